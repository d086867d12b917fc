// internal/adapter/social/reddit.go

package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fashionpulse/internal/domain/mention"
	"fashionpulse/pkg/logger"
)

// RedditConfig contains configuration for the Reddit searcher
type RedditConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
}

// RedditSearcher searches subreddits for brand keywords
type RedditSearcher struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	log        *logger.Logger
}

// redditPost is the subset of a Reddit listing item we read
type redditPost struct {
	Title       string `json:"title"`
	SelfText    string `json:"selftext"`
	Permalink   string `json:"permalink"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	Subreddit   string `json:"subreddit"`
}

// redditResponse represents the structure of a Reddit listing
type redditResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewRedditSearcher creates a new Reddit searcher
func NewRedditSearcher(config RedditConfig) *RedditSearcher {
	if config.BaseURL == "" {
		config.BaseURL = "https://www.reddit.com"
	}
	if config.UserAgent == "" {
		config.UserAgent = "fashionpulse/1.0"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 30
	}

	return &RedditSearcher{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		userAgent:  config.UserAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
		log:        logger.Get().With("component", "reddit_searcher"),
	}
}

// Name returns the searcher name
func (c *RedditSearcher) Name() string {
	return "reddit"
}

// Search returns up to limit posts in subreddit venue matching keyword
func (c *RedditSearcher) Search(ctx context.Context, keyword, venue string, limit int) ([]mention.Post, error) {
	if limit <= 0 {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("q", keyword)
	q.Set("restrict_sr", "1")
	q.Set("sort", "new")
	q.Set("limit", fmt.Sprintf("%d", limit))
	endpoint := fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, url.PathEscape(venue), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Reddit throttles requests without a descriptive User-Agent
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Reddit API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Reddit API returned status code %d", resp.StatusCode)
	}

	var listing redditResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode Reddit API response: %w", err)
	}

	posts := make([]mention.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if len(posts) == limit {
			break
		}
		posts = append(posts, toPost(child.Data))
	}

	c.log.Debugw("Reddit search completed", "venue", venue, "keyword", keyword, "posts", len(posts))
	return posts, nil
}

func toPost(p redditPost) mention.Post {
	text := strings.TrimSpace(p.Title + " " + p.SelfText)

	var permalink string
	if p.Permalink != "" {
		permalink = "https://reddit.com" + p.Permalink
	}

	return mention.Post{
		Text:       text,
		Engagement: p.Score + p.NumComments,
		Permalink:  permalink,
	}
}
