// cmd/api/main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"fashionpulse/internal/adapter/events"
	"fashionpulse/internal/adapter/social"
	"fashionpulse/internal/adapter/storage"
	"fashionpulse/internal/config"
	"fashionpulse/internal/domain/brand"
	"fashionpulse/internal/metrics"
	"fashionpulse/internal/server"
	"fashionpulse/internal/service/aggregation"
	"fashionpulse/internal/service/insight"
	"fashionpulse/internal/service/listening"
	"fashionpulse/internal/service/sentiment"
	"fashionpulse/pkg/logger"
)

// store is everything the pipeline and the query views need from storage
type store interface {
	aggregation.Store
	insight.Store
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	lg := logger.Get().With("component", "main")

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	catalog, err := brand.NewCatalog(cfg.Catalog.Indian, cfg.Catalog.Global)
	if err != nil {
		lg.Fatalw("Invalid brand catalog", "error", err)
	}

	// Initialize storage
	st, closeStore, err := initStore(ctx, cfg.Database)
	if err != nil {
		lg.Fatalw("Failed to initialize storage", "driver", cfg.Database.Driver, "error", err)
	}
	defer closeStore()

	// Initialize event bus
	bus, closeBus, err := initBus(cfg.NATS)
	if err != nil {
		lg.Fatalw("Failed to connect to NATS", "error", err)
	}
	defer closeBus()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Sources and aggregation cycle
	finisher := listening.NewFinisher(sentiment.NewScorer())
	cycle := aggregation.NewCycle(
		catalog,
		buildFeeds(cfg, m),
		finisher,
		st,
		events.NewPublisher(bus, cfg.NATS.Topic),
		m,
		aggregation.CycleConfig{
			MaxConcurrentBrands: cfg.Pipeline.MaxConcurrentBrands,
			HistoryLimit:        cfg.Pipeline.HistoryLimit,
		},
	)

	scheduler := aggregation.NewScheduler(cycle, aggregation.SchedulerConfig{
		Interval:      cfg.Pipeline.Interval,
		RetryInterval: cfg.Pipeline.RetryInterval,
	}, m)

	schedulerDone := make(chan struct{})
	if cfg.Pipeline.Enabled {
		go func() {
			defer close(schedulerDone)
			if err := scheduler.Run(ctx); err != nil {
				lg.Errorw("Scheduler exited", "error", err)
			}
		}()
	} else {
		close(schedulerDone)
		lg.Info("Background collection disabled")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, server.Dependencies{
		Insights:   insight.NewService(catalog, st),
		Collector:  scheduler,
		Bus:        bus,
		EventTopic: cfg.NATS.Topic,
		Gatherer:   registry,
	})

	// Start HTTP server
	go func() {
		lg.Infow("Starting HTTP server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("HTTP server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	lg.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop scheduling; a brand already being collected finishes its writes
	cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("HTTP server shutdown error", "error", err)
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		lg.Warn("Scheduler did not stop before shutdown timeout")
	}

	lg.Info("Shutdown complete")
}

// buildFeeds assembles the mention sources with their per-brand counts
func buildFeeds(cfg config.Config, m *metrics.Metrics) []listening.Feed {
	var feeds []listening.Feed

	liveConfig := listening.LiveSourceConfig{
		Venues:          cfg.Sources.Venues,
		VenuesPerCycle:  cfg.Sources.VenuesPerCycle,
		BreakerFailures: cfg.Sources.BreakerFailures,
		BreakerTimeout:  cfg.Sources.BreakerTimeout,
	}

	if cfg.Reddit.Enabled {
		reddit := social.NewRedditSearcher(social.RedditConfig{
			BaseURL:           cfg.Reddit.BaseURL,
			UserAgent:         cfg.Reddit.UserAgent,
			Timeout:           cfg.Reddit.Timeout,
			RequestsPerMinute: cfg.Reddit.RequestsPerMinute,
		})
		feeds = append(feeds, listening.Feed{
			Source:  listening.NewLiveSource(reddit, liveConfig, m),
			Desired: cfg.Sources.LiveCount,
		})
	}

	if cfg.Twitter.BearerToken != "" {
		twitter := social.NewTwitterSearcher(social.TwitterConfig{
			BearerToken: cfg.Twitter.BearerToken,
			Host:        cfg.Twitter.Host,
			Timeout:     cfg.Twitter.Timeout,
		})
		tagConfig := liveConfig
		tagConfig.Venues = cfg.Twitter.Hashtags
		feeds = append(feeds, listening.Feed{
			Source:  listening.NewLiveSource(twitter, tagConfig, m),
			Desired: cfg.Sources.LiveCount,
		})
	}

	feeds = append(feeds,
		listening.Feed{
			Source:  listening.NewSyntheticSource(listening.NewsConfig()),
			Desired: cfg.Sources.NewsCount,
		},
		listening.Feed{
			Source:  listening.NewSyntheticSource(listening.SocialConfig()),
			Desired: cfg.Sources.SocialCount,
		},
	)

	return feeds
}

// initStore opens the configured storage backend
func initStore(ctx context.Context, cfg config.DatabaseConfig) (store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		return storage.NewMemoryStore(), func() {}, nil
	}

	db, err := initDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	pg := storage.NewPostgresStore(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return pg, db.Close, nil
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// initBus connects to NATS, or falls back to an in-process bus when no URL is set
func initBus(cfg config.NATSConfig) (events.Bus, func(), error) {
	if cfg.URL == "" {
		logger.Get().Info("NATS_URL not set, publishing events in process")
		return events.NewLocalBus(), func() {}, nil
	}

	bus, err := events.Connect(events.NATSConfig{
		URL:            cfg.URL,
		MaxReconnects:  cfg.MaxReconnects,
		ReconnectWait:  cfg.ReconnectWait,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	return bus, bus.Close, nil
}
