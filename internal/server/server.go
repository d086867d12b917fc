// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fashionpulse/internal/adapter/events"
	"fashionpulse/internal/config"
	"fashionpulse/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// Dependencies are the collaborators the routes are served from
type Dependencies struct {
	Insights   handlers.Insights
	Collector  handlers.Collector
	Bus        events.Bus
	EventTopic string
	Gatherer   prometheus.Gatherer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	analyticsHandler := handlers.NewAnalyticsHandler(deps.Insights, deps.Collector)

	router.Get("/", analyticsHandler.Root)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Get("/", analyticsHandler.Root)

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// a cycle can outlast the default request timeout
		r.Post("/collect-data", analyticsHandler.CollectData)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/dashboard", analyticsHandler.GetDashboard)
			r.Get("/brands", analyticsHandler.GetBrands)
			r.Get("/scheduler", analyticsHandler.GetSchedulerStatus)

			r.Route("/brand/{brand}", func(r chi.Router) {
				r.Get("/analytics", analyticsHandler.GetBrandAnalytics)
				r.Get("/latest", analyticsHandler.GetLatestSnapshot)
			})
		})
	})

	// WebSocket endpoint for live analytics events
	if deps.Bus != nil {
		router.Get("/ws/analytics", handlers.AnalyticsFeed(deps.Bus, deps.EventTopic))
	}

	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
