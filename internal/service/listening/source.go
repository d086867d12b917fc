// internal/service/listening/source.go

package listening

import (
	"context"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"fashionpulse/internal/domain/mention"
	"fashionpulse/internal/service/sentiment"
)

// Source defines a producer of raw brand mentions
type Source interface {
	// Name returns the source kind recorded on every mention it produces
	Name() mention.Source

	// Collect returns up to desired raw mentions of brand
	Collect(ctx context.Context, brand string, desired int) ([]mention.Raw, error)
}

// CycleObserver is implemented by sources that rotate state between cycles
type CycleObserver interface {
	BeginCycle(cycle int64)
}

// Feed binds a source to the number of mentions requested from it per brand
type Feed struct {
	Source  Source
	Desired int
}

// Scorer scores mention text
type Scorer interface {
	Score(text string) (float64, mention.Label)
}

// Finisher turns raw mentions into scored, identified mentions
type Finisher struct {
	scorer Scorer
	now    func() time.Time
	newID  func() string
}

// NewFinisher creates a finisher that scores with scorer
func NewFinisher(scorer Scorer) *Finisher {
	return &Finisher{
		scorer: scorer,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Finish truncates, scores and stamps a raw mention
func (f *Finisher) Finish(raw mention.Raw) mention.Mention {
	content := Truncate(raw.Content, mention.MaxContentLength)

	var score float64
	var label mention.Label
	if raw.Seed != nil {
		score = math.Max(-1, math.Min(1, *raw.Seed))
		label = sentiment.Label(score)
	} else {
		score, label = f.scorer.Score(content)
	}

	engagement := raw.Engagement
	if engagement < 0 {
		engagement = 0
	}

	m := mention.Mention{
		ID:             f.newID(),
		Brand:          raw.Brand,
		Source:         raw.Source,
		Content:        content,
		SentimentScore: score,
		SentimentLabel: label,
		Engagement:     engagement,
		Timestamp:      f.now().UTC(),
		Venue:          raw.Venue,
	}
	if raw.URL != "" {
		url := raw.URL
		m.URL = &url
	}

	return m
}

// Truncate cuts s to at most n characters
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
