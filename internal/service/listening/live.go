// internal/service/listening/live.go

package listening

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"fashionpulse/internal/domain/mention"
	"fashionpulse/internal/metrics"
	"fashionpulse/pkg/logger"
)

// Searcher is the live-search collaborator
type Searcher interface {
	// Name identifies the upstream (reddit, twitter)
	Name() string

	// Search returns up to limit posts matching keyword in venue
	Search(ctx context.Context, keyword, venue string, limit int) ([]mention.Post, error)
}

// LiveSourceConfig contains configuration for the live-search source
type LiveSourceConfig struct {
	Venues          []string
	VenuesPerCycle  int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultVenues are the community forums searched for brand keywords
var DefaultVenues = []string{
	"fashion", "malefashionadvice", "femalefashionadvice", "streetwear", "india", "IndiaInvestments",
}

// LiveSource collects mentions from community forums through a Searcher
type LiveSource struct {
	searcher Searcher
	config   LiveSourceConfig
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
	log      *logger.Logger

	mu     sync.RWMutex
	offset int
}

// NewLiveSource creates a live-search source
func NewLiveSource(searcher Searcher, config LiveSourceConfig, m *metrics.Metrics) *LiveSource {
	if len(config.Venues) == 0 {
		config.Venues = DefaultVenues
	}
	if config.VenuesPerCycle <= 0 {
		config.VenuesPerCycle = 2
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = 5
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = 10 * time.Minute
	}

	log := logger.Get().With("component", "live_source", "searcher", searcher.Name())

	settings := gobreaker.Settings{
		Name:        "live-search-" + searcher.Name(),
		MaxRequests: 1,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnw("Live search circuit breaker changed state", "from", from.String(), "to", to.String())
		},
	}

	return &LiveSource{
		searcher: searcher,
		config:   config,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		metrics:  m,
		log:      log,
	}
}

// Name returns the source kind
func (s *LiveSource) Name() mention.Source {
	return mention.SourceLiveSearch
}

// BeginCycle rotates the venue window so every venue is sampled over time
func (s *LiveSource) BeginCycle(cycle int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offset = int(cycle*int64(s.config.VenuesPerCycle)) % len(s.config.Venues)
}

// Venues returns the venues searched in the current cycle
func (s *LiveSource) Venues() []string {
	s.mu.RLock()
	offset := s.offset
	s.mu.RUnlock()

	n := s.config.VenuesPerCycle
	if n > len(s.config.Venues) {
		n = len(s.config.Venues)
	}

	venues := make([]string, 0, n)
	for i := 0; i < n; i++ {
		venues = append(venues, s.config.Venues[(offset+i)%len(s.config.Venues)])
	}
	return venues
}

// Collect searches each venue of the current cycle for brand.
// A failing venue is logged and skipped; total failure yields no mentions and no error.
func (s *LiveSource) Collect(ctx context.Context, brand string, desired int) ([]mention.Raw, error) {
	perVenue := desired / 2
	if perVenue <= 0 {
		return nil, nil
	}

	var raws []mention.Raw
	for _, venue := range s.Venues() {
		posts, err := s.search(ctx, brand, venue, perVenue)
		if err != nil {
			s.log.Errorw("Error collecting from venue", "venue", venue, "brand", brand, "error", err)
			s.metrics.SourceError(string(mention.SourceLiveSearch))
			continue
		}

		for _, p := range posts {
			raws = append(raws, mention.Raw{
				Brand:      brand,
				Source:     mention.SourceLiveSearch,
				Content:    p.Text,
				Engagement: p.Engagement,
				URL:        p.Permalink,
				Venue:      venue,
			})
		}
	}

	return raws, nil
}

func (s *LiveSource) search(ctx context.Context, brand, venue string, limit int) ([]mention.Post, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.searcher.Search(ctx, brand, venue, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("search %s in %s: %w", brand, venue, err)
	}

	posts, _ := result.([]mention.Post)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}
