package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// SummarySource provides the most recent reconciliation run, nil when
// no run has completed yet.
type SummarySource interface {
	Latest() *model.ReconciliationSummary
}

// SummaryHandler serves the latest run's rollup, day comparisons and
// alerts.
type SummaryHandler struct {
	Source SummarySource
	Log    *zap.Logger
}

// SummaryResponse is the run-level rollup without the per-day detail.
type SummaryResponse struct {
	RunID                 string  `json:"run_id"`
	StaffID               string  `json:"staff_id"`
	GeneratedAt           string  `json:"generated_at"`
	TotalDays             int     `json:"total_days"`
	MatchedJobs           int     `json:"matched_jobs"`
	UnmatchedTrips        int     `json:"unmatched_trips"`
	UnmatchedEntries      int     `json:"unmatched_entries"`
	LocationMatchAccuracy float64 `json:"location_match_accuracy"`
	TimeMatchAccuracy     float64 `json:"time_match_accuracy"`
	AlertCount            int     `json:"alert_count"`
}

// GetSummary returns the run-level rollup of the latest run.
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary := h.Source.Latest()
	if summary == nil {
		writeError(w, http.StatusNotFound, "no reconciliation run available")
		return
	}

	writeJSON(w, h.Log, SummaryResponse{
		RunID:                 summary.RunID,
		StaffID:               summary.StaffID,
		GeneratedAt:           summary.GeneratedAt.Format(time.RFC3339),
		TotalDays:             summary.TotalDays,
		MatchedJobs:           summary.MatchedJobs,
		UnmatchedTrips:        summary.UnmatchedTrips,
		UnmatchedEntries:      summary.UnmatchedEntries,
		LocationMatchAccuracy: summary.LocationMatchAccuracy,
		TimeMatchAccuracy:     summary.TimeMatchAccuracy,
		AlertCount:            len(summary.Alerts),
	})
}

// ListDays returns the traditional day-level comparison rows.
func (h *SummaryHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	summary := h.Source.Latest()
	if summary == nil {
		writeError(w, http.StatusNotFound, "no reconciliation run available")
		return
	}
	writeJSON(w, h.Log, summary.DayResults)
}

// GetDay returns the full matching detail for one date.
func (h *SummaryHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	summary := h.Source.Latest()
	if summary == nil {
		writeError(w, http.StatusNotFound, "no reconciliation run available")
		return
	}

	date := mux.Vars(r)["date"]
	for _, day := range summary.Days {
		if day.Date == date {
			writeJSON(w, h.Log, day)
			return
		}
	}
	writeError(w, http.StatusNotFound, "date not in run")
}

// GetAlerts returns the latest run's alerts.
func (h *SummaryHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	summary := h.Source.Latest()
	if summary == nil {
		writeError(w, http.StatusNotFound, "no reconciliation run available")
		return
	}
	writeJSON(w, h.Log, summary.Alerts)
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
