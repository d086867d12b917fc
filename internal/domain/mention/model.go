// internal/domain/mention/model.go

package mention

import (
	"errors"
	"time"
)

// MaxContentLength is the maximum number of characters kept from a mention's text
const MaxContentLength = 500

// ErrStorageUnavailable marks a failure of the storage backend as a whole,
// as opposed to a single rejected record
var ErrStorageUnavailable = errors.New("storage unavailable")

// Source identifies where a mention was collected
type Source string

// Mention sources
const (
	SourceLiveSearch      Source = "live-search"
	SourceSyntheticNews   Source = "synthetic-news"
	SourceSyntheticSocial Source = "synthetic-social"
)

// Label is the three-way sentiment class of a score
type Label string

// Sentiment labels
const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Mention is one scored observation of text referencing a brand
type Mention struct {
	ID             string    `json:"id"`
	Brand          string    `json:"brand"`
	Source         Source    `json:"source"`
	Content        string    `json:"content"`
	SentimentScore float64   `json:"sentiment_score"`
	SentimentLabel Label     `json:"sentiment_label"`
	Engagement     int       `json:"engagement"`
	Timestamp      time.Time `json:"timestamp"`
	URL            *string   `json:"url,omitempty"`

	// Venue is the forum or hashtag a live mention came from. Not persisted.
	Venue string `json:"-"`
}

// Raw is an unscored mention as produced by a source
type Raw struct {
	Brand      string
	Source     Source
	Content    string
	Engagement int
	URL        string
	Venue      string

	// Seed, when set, is used as the compound score instead of scoring Content
	Seed *float64
}

// Filter selects recent mentions
type Filter struct {
	Brand string
	Limit int
}

// Post is one search hit returned by a live-search venue
type Post struct {
	Text       string
	Engagement int
	Permalink  string
}
