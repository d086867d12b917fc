// internal/adapter/social/twitter.go

package social

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/g8rswimmer/go-twitter/v2"

	"fashionpulse/internal/domain/mention"
)

// recent search rejects max_results outside 10..100
const (
	minTweetResults = 10
	maxTweetResults = 100
)

// TwitterConfig contains configuration for the X/Twitter searcher
type TwitterConfig struct {
	BearerToken string
	Host        string
	Timeout     time.Duration
}

// TwitterSearcher searches recent tweets, treating the venue as a hashtag
type TwitterSearcher struct {
	client *twitter.Client
}

type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", a.token))
}

// NewTwitterSearcher creates a new X/Twitter searcher
func NewTwitterSearcher(config TwitterConfig) *TwitterSearcher {
	if config.Host == "" {
		config.Host = "https://api.twitter.com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &TwitterSearcher{
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: config.BearerToken},
			Client:     &http.Client{Timeout: config.Timeout},
			Host:       config.Host,
		},
	}
}

// Name returns the searcher name
func (s *TwitterSearcher) Name() string {
	return "twitter"
}

// Search returns up to limit recent tweets mentioning keyword under the venue hashtag
func (s *TwitterSearcher) Search(ctx context.Context, keyword, venue string, limit int) ([]mention.Post, error) {
	if limit <= 0 {
		return nil, nil
	}

	resp, err := s.client.TweetRecentSearch(ctx, buildTweetQuery(keyword, venue), twitter.TweetRecentSearchOpts{
		MaxResults:  clampResults(limit),
		TweetFields: []twitter.TweetField{twitter.TweetFieldPublicMetrics},
	})
	if err != nil {
		return nil, fmt.Errorf("error searching tweets: %w", err)
	}
	if resp == nil || resp.Raw == nil {
		return nil, nil
	}

	return tweetsToPosts(resp.Raw.Tweets, limit), nil
}

func buildTweetQuery(keyword, venue string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%q", keyword))

	tag := strings.Join(strings.Fields(venue), "")
	if tag != "" {
		b.WriteString(" #")
		b.WriteString(tag)
	}

	b.WriteString(" -is:retweet lang:en")
	return b.String()
}

func clampResults(limit int) int {
	if limit < minTweetResults {
		return minTweetResults
	}
	if limit > maxTweetResults {
		return maxTweetResults
	}
	return limit
}

func tweetsToPosts(tweets []*twitter.TweetObj, limit int) []mention.Post {
	posts := make([]mention.Post, 0, len(tweets))
	for _, t := range tweets {
		if t == nil {
			continue
		}
		if len(posts) == limit {
			break
		}

		engagement := 0
		if t.PublicMetrics != nil {
			engagement = t.PublicMetrics.Likes + t.PublicMetrics.Replies + t.PublicMetrics.Retweets + t.PublicMetrics.Quotes
		}

		posts = append(posts, mention.Post{
			Text:       t.Text,
			Engagement: engagement,
			Permalink:  fmt.Sprintf("https://twitter.com/i/web/status/%s", t.ID),
		})
	}
	return posts
}
