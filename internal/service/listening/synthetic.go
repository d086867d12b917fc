// internal/service/listening/synthetic.go

package listening

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"fashionpulse/internal/domain/mention"
)

var newsTemplates = []string{
	"%s launches new sustainable fashion line",
	"%s reports strong quarterly growth in fashion segment",
	"%s collaborates with leading designers for exclusive collection",
	"%s expands digital presence with new mobile app features",
	"%s introduces AI-powered personal styling recommendations",
	"%s announces expansion to new international markets",
	"%s receives award for innovative fashion technology",
}

var socialTemplates = []string{
	"Just bought from %s and loving the quality! 😍",
	"%s has the best customer service ever! Highly recommend",
	"Not impressed with %s's latest collection tbh",
	"%s sale is live! Great deals on everything 🛍️",
	"Why is %s so expensive? Looking for alternatives",
	"%s fits perfectly! Will definitely shop again",
	"Waiting for %s to restock my favorite items",
	"%s delivery was super fast! Impressed 📦",
}

// Range is a closed numeric interval
type Range struct {
	Min float64
	Max float64
}

// SyntheticConfig describes a placeholder mention generator
type SyntheticConfig struct {
	Source     mention.Source
	Templates  []string
	Sentiment  Range
	Engagement Range
}

// NewsConfig returns the news-style generator configuration
func NewsConfig() SyntheticConfig {
	return SyntheticConfig{
		Source:     mention.SourceSyntheticNews,
		Templates:  newsTemplates,
		Sentiment:  Range{Min: -0.5, Max: 0.8},
		Engagement: Range{Min: 50, Max: 500},
	}
}

// SocialConfig returns the social-style generator configuration
func SocialConfig() SyntheticConfig {
	return SyntheticConfig{
		Source:     mention.SourceSyntheticSocial,
		Templates:  socialTemplates,
		Sentiment:  Range{Min: -0.8, Max: 0.9},
		Engagement: Range{Min: 10, Max: 200},
	}
}

// SyntheticSource generates plausible placeholder mentions from templates.
// It keeps the pipeline exercisable when live sources are rate limited.
type SyntheticSource struct {
	config SyntheticConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSyntheticSource creates a generator seeded from the clock
func NewSyntheticSource(config SyntheticConfig) *SyntheticSource {
	seed := uint64(time.Now().UnixNano())
	return NewSyntheticSourceWithRand(config, rand.New(rand.NewPCG(seed, seed>>1)))
}

// NewSyntheticSourceWithRand creates a generator drawing from rnd
func NewSyntheticSourceWithRand(config SyntheticConfig, rnd *rand.Rand) *SyntheticSource {
	return &SyntheticSource{
		config: config,
		rnd:    rnd,
	}
}

// Name returns the source kind
func (s *SyntheticSource) Name() mention.Source {
	return s.config.Source
}

// Collect generates desired mentions of brand
func (s *SyntheticSource) Collect(ctx context.Context, brand string, desired int) ([]mention.Raw, error) {
	if len(s.config.Templates) == 0 {
		return nil, fmt.Errorf("%s: no templates configured", s.config.Source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raws := make([]mention.Raw, 0, desired)
	for i := 0; i < desired; i++ {
		template := s.config.Templates[s.rnd.IntN(len(s.config.Templates))]
		seed := s.uniform(s.config.Sentiment)

		lo, hi := int(s.config.Engagement.Min), int(s.config.Engagement.Max)

		raws = append(raws, mention.Raw{
			Brand:      brand,
			Source:     s.config.Source,
			Content:    fmt.Sprintf(template, brand),
			Engagement: lo + s.rnd.IntN(hi-lo+1),
			Seed:       &seed,
		})
	}

	return raws, nil
}

func (s *SyntheticSource) uniform(r Range) float64 {
	return r.Min + s.rnd.Float64()*(r.Max-r.Min)
}
