package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/store"
)

const defaultTripLimit = 200

// TripsHandler serves archived raw trips from the store.
type TripsHandler struct {
	Store *store.Connection
	Log   *zap.Logger
}

// ListTrips returns archived trips filtered by staff_id, from and to
// query parameters.
func (h *TripsHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "trip archive not configured")
		return
	}

	q := r.URL.Query()
	staffID := q.Get("staff_id")
	if staffID == "" {
		writeError(w, http.StatusBadRequest, "staff_id is required")
		return
	}

	limit := defaultTripLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	from := q.Get("from")
	if from == "" {
		from = "0001-01-01"
	}
	to := q.Get("to")
	if to == "" {
		to = "9999-12-31"
	}

	trips, err := h.Store.ListTrips(staffID, from, to, limit)
	if err != nil {
		h.Log.Error("list trips", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "trip archive query failed")
		return
	}

	writeJSON(w, h.Log, trips)
}
