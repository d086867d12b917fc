// internal/server/handlers/analytics.go

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"fashionpulse/internal/domain/analytics"
	"fashionpulse/internal/domain/brand"
	"fashionpulse/internal/service/aggregation"
	"fashionpulse/internal/service/insight"
)

// ServiceName is reported by the banner routes
const ServiceName = "Fashion Market Analyst API"

// Insights provides the read-only analytics views
type Insights interface {
	Dashboard(ctx context.Context) (*insight.Dashboard, error)
	BrandAnalytics(ctx context.Context, name string) (*insight.BrandDetail, error)
	LatestSnapshot(ctx context.Context, name string) (*analytics.Snapshot, error)
	Brands() insight.BrandList
}

// Collector runs cycles on demand and reports scheduler status
type Collector interface {
	Trigger(ctx context.Context) (analytics.CycleSummary, error)
	Status() aggregation.Status
}

// AnalyticsHandler handles analytics HTTP requests
type AnalyticsHandler struct {
	insights  Insights
	collector Collector
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(insights Insights, collector Collector) *AnalyticsHandler {
	return &AnalyticsHandler{
		insights:  insights,
		collector: collector,
	}
}

// Root returns the service banner
func (h *AnalyticsHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": ServiceName,
		"status":  "running",
	})
}

// CollectData runs one aggregation cycle
func (h *AnalyticsHandler) CollectData(w http.ResponseWriter, r *http.Request) {
	// a started cycle finishes even if the client goes away
	summary, err := h.collector.Trigger(context.WithoutCancel(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to collect data", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":           fmt.Sprintf("Data collected for %d brands", summary.BrandsProcessed),
		"cycle_id":          summary.CycleID,
		"total_mentions":    summary.TotalMentions,
		"brands_processed":  summary.BrandsProcessed,
		"snapshots_written": summary.SnapshotsWritten,
	})
}

// GetDashboard returns the cross-brand dashboard
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.insights.Dashboard(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get dashboard data", err)
		return
	}

	respondWithJSON(w, http.StatusOK, dashboard)
}

// GetBrands returns the tracked catalog
func (h *AnalyticsHandler) GetBrands(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.insights.Brands())
}

// GetBrandAnalytics returns one brand's history
func (h *AnalyticsHandler) GetBrandAnalytics(w http.ResponseWriter, r *http.Request) {
	name := brandParam(r)

	detail, err := h.insights.BrandAnalytics(r.Context(), name)
	if err != nil {
		if errors.Is(err, brand.ErrUnknownBrand) {
			respondWithError(w, http.StatusNotFound, "Brand not tracked", err)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get brand analytics", err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// GetLatestSnapshot returns one brand's most recent snapshot
func (h *AnalyticsHandler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	name := brandParam(r)

	snap, err := h.insights.LatestSnapshot(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, brand.ErrUnknownBrand):
			respondWithError(w, http.StatusNotFound, "Brand not tracked", err)
		case errors.Is(err, analytics.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "No analytics yet", err)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to get snapshot", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, snap)
}

// GetSchedulerStatus returns the scheduler status
func (h *AnalyticsHandler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.collector.Status())
}

func brandParam(r *http.Request) string {
	raw := chi.URLParam(r, "brand")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
