// internal/config/config.go

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	NATS     NATSConfig
	Pipeline PipelineConfig
	Sources  SourcesConfig
	Reddit   RedditConfig
	Twitter  TwitterConfig
	Catalog  CatalogConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8001"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	CorsOrigins     []string      `envconfig:"SERVER_CORS_ORIGINS" default:"*"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string        `envconfig:"DB_DRIVER" default:"postgres"`
	Host         string        `envconfig:"DB_HOST" default:"localhost"`
	Port         int           `envconfig:"DB_PORT" default:"5432"`
	User         string        `envconfig:"DB_USER" default:"postgres"`
	Password     string        `envconfig:"DB_PASSWORD" default:"postgres"`
	Database     string        `envconfig:"DB_NAME" default:"fashionpulse"`
	SSLMode      string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	MaxLifetime  time.Duration `envconfig:"DB_MAX_LIFETIME" default:"5m"`
}

// ConnString returns the postgres connection URL
func (c DatabaseConfig) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// NATSConfig holds NATS configuration. An empty URL keeps events in process.
type NATSConfig struct {
	URL            string        `envconfig:"NATS_URL"`
	Topic          string        `envconfig:"NATS_TOPIC" default:"analytics"`
	MaxReconnects  int           `envconfig:"NATS_MAX_RECONNECTS" default:"10"`
	ReconnectWait  time.Duration `envconfig:"NATS_RECONNECT_WAIT" default:"1s"`
	ConnectTimeout time.Duration `envconfig:"NATS_CONNECT_TIMEOUT" default:"2s"`
}

// PipelineConfig holds aggregation and scheduling configuration
type PipelineConfig struct {
	Enabled             bool          `envconfig:"PIPELINE_ENABLED" default:"true"`
	Interval            time.Duration `envconfig:"PIPELINE_INTERVAL" default:"5m"`
	RetryInterval       time.Duration `envconfig:"PIPELINE_RETRY_INTERVAL" default:"1m"`
	MaxConcurrentBrands int           `envconfig:"PIPELINE_MAX_CONCURRENT_BRANDS" default:"4"`
	HistoryLimit        int           `envconfig:"PIPELINE_HISTORY_LIMIT" default:"10"`
}

// SourcesConfig holds per-source collection settings
type SourcesConfig struct {
	LiveCount       int           `envconfig:"SOURCES_LIVE_COUNT" default:"5"`
	NewsCount       int           `envconfig:"SOURCES_NEWS_COUNT" default:"3"`
	SocialCount     int           `envconfig:"SOURCES_SOCIAL_COUNT" default:"5"`
	Venues          []string      `envconfig:"SOURCES_VENUES" default:"fashion,malefashionadvice,femalefashionadvice,streetwear,india,IndiaInvestments"`
	VenuesPerCycle  int           `envconfig:"SOURCES_VENUES_PER_CYCLE" default:"2"`
	BreakerFailures uint32        `envconfig:"SOURCES_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"SOURCES_BREAKER_TIMEOUT" default:"10m"`
}

// RedditConfig holds Reddit search configuration
type RedditConfig struct {
	Enabled           bool          `envconfig:"REDDIT_ENABLED" default:"true"`
	BaseURL           string        `envconfig:"REDDIT_BASE_URL" default:"https://www.reddit.com"`
	UserAgent         string        `envconfig:"REDDIT_USER_AGENT" default:"fashionpulse/1.0"`
	Timeout           time.Duration `envconfig:"REDDIT_TIMEOUT" default:"10s"`
	RequestsPerMinute int           `envconfig:"REDDIT_REQUESTS_PER_MINUTE" default:"30"`
}

// TwitterConfig holds X/Twitter search configuration. Search is enabled
// only when a bearer token is set.
type TwitterConfig struct {
	BearerToken string        `envconfig:"TWITTER_BEARER_TOKEN"`
	Host        string        `envconfig:"TWITTER_HOST" default:"https://api.twitter.com"`
	Hashtags    []string      `envconfig:"TWITTER_HASHTAGS" default:"fashion,ootd,streetwear"`
	Timeout     time.Duration `envconfig:"TWITTER_TIMEOUT" default:"10s"`
}

// CatalogConfig holds the tracked brand lists
type CatalogConfig struct {
	Indian []string `envconfig:"CATALOG_INDIAN" default:"Myntra,Fabindia,W,AND,Nykaa Fashion,Ajio,Global Desi"`
	Global []string `envconfig:"CATALOG_GLOBAL" default:"Zara,H&M,Nike,Adidas,Uniqlo,Forever 21,Shein"`
}

// Load loads configuration from an optional .env file and the environment
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return config, fmt.Errorf("failed to process env config: %w", err)
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	switch config.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", config.Server.Port)
	}

	if config.Pipeline.Interval <= 0 {
		return fmt.Errorf("pipeline interval must be positive")
	}
	if config.Pipeline.RetryInterval <= 0 {
		return fmt.Errorf("pipeline retry interval must be positive")
	}
	if config.Pipeline.MaxConcurrentBrands <= 0 {
		return fmt.Errorf("pipeline max concurrent brands must be positive")
	}

	if config.Sources.LiveCount < 0 || config.Sources.NewsCount < 0 || config.Sources.SocialCount < 0 {
		return fmt.Errorf("source counts must not be negative")
	}

	if len(config.Catalog.Indian)+len(config.Catalog.Global) == 0 {
		return fmt.Errorf("catalog must list at least one brand")
	}

	return nil
}
