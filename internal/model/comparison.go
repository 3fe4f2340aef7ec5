package model

import (
	"time"

	"github.com/google/uuid"
)

// Match criteria tags recorded on a JobMatch.
const (
	CriterionExactLocation   = "exact_location"
	CriterionApproxLocation  = "approximate_location"
	CriterionTimeOverlap     = "time_overlap"
	CriterionApproxTime      = "approximate_time"
	CriterionDurationMatch   = "duration_match"
	CriterionJobTypeMatch    = "job_type_match"
	CriterionFuzzyMatch      = "fuzzy_match"
)

// Severity levels for alerts and discrepancies.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// JobMatch pairs one work trip with one timesheet entry. Immutable once
// produced by the matching engine.
type JobMatch struct {
	Trip              *Trip           `json:"trip"`
	Entry             *TimesheetEntry `json:"entry"`
	Job               *JobDetails     `json:"job"`
	Confidence        float64         `json:"confidence"`
	Criteria          []string        `json:"criteria"`
	LocationScore     float64         `json:"location_score"`
	TimeScore         float64         `json:"time_score"`
	DistanceKm        float64         `json:"distance_km"`
	TimeOffsetMinutes int             `json:"time_offset_minutes"`
}

// IsFuzzy reports whether the match was committed by the relaxed pass.
func (m *JobMatch) IsFuzzy() bool {
	for _, c := range m.Criteria {
		if c == CriterionFuzzyMatch {
			return true
		}
	}
	return false
}

// Discrepancy flags a committed match whose time or location offset
// exceeds configured tolerance.
type Discrepancy struct {
	Date     string    `json:"date"`
	Match    *JobMatch `json:"match"`
	Kind     string    `json:"kind"` // "time" or "location"
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
}

// DayComparison is the per-date output of the matching engine. Every
// trip and every timesheet entry of the day appears in exactly one of
// {a JobMatch, the unmatched list for its type}.
type DayComparison struct {
	Date                  string            `json:"date"`
	Matches               []*JobMatch       `json:"matches"`
	UnmatchedTrips        []*Trip           `json:"unmatched_trips"`
	UnmatchedEntries      []*TimesheetEntry `json:"unmatched_entries"`
	TimeDiscrepancies     []*Discrepancy    `json:"time_discrepancies"`
	LocationDiscrepancies []*Discrepancy    `json:"location_discrepancies"`
	MatchedMinutes        int               `json:"matched_minutes"`
	AvgLocationScore      float64           `json:"avg_location_score"`
	AvgTimeScore          float64           `json:"avg_time_score"`
	Degraded              bool              `json:"degraded,omitempty"` // matching failed, lists are empty or partial
}

// Day-level traditional comparison statuses.
const (
	DayStatusMatched     = "matched"
	DayStatusMissingWfx  = "missing_wfx"
	DayStatusDiscrepancy = "discrepancy"
)

// DayResult is the traditional day-level hour comparison, independent of
// job matching: GPS-derived net work hours against billed WFX hours.
type DayResult struct {
	Date             string  `json:"date"`
	CSVNetHours      float64 `json:"csv_net_hours"`
	WfxTotalHours    float64 `json:"wfx_total_hours"`
	DiscrepancyHours float64 `json:"discrepancy_hours"`
	Status           string  `json:"status"`
	Severity         string  `json:"severity,omitempty"`
}

// Alert is an actionable finding derived from a run.
type Alert struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ReconciliationSummary is the run-level rollup returned by the engine.
type ReconciliationSummary struct {
	RunID       string    `json:"run_id"`
	StaffID     string    `json:"staff_id"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalDays        int `json:"total_days"`
	MatchedJobs      int `json:"matched_jobs"`
	UnmatchedTrips   int `json:"unmatched_trips"`
	UnmatchedEntries int `json:"unmatched_entries"`

	// Completion-rate proxies: the fraction of each side successfully
	// matched, not averaged quality scores.
	LocationMatchAccuracy float64 `json:"location_match_accuracy"`
	TimeMatchAccuracy     float64 `json:"time_match_accuracy"`

	// Traditional day-level metric, reported alongside the job-level
	// accuracies; the two answer different questions.
	MatchedDays int     `json:"matched_days"`
	DayAccuracy float64 `json:"day_accuracy"`

	Days       []*DayComparison `json:"days"`
	DayResults []*DayResult     `json:"day_results"`
	Alerts     []*Alert         `json:"alerts"`
}

// NewReconciliationSummary allocates a summary with a fresh run id.
func NewReconciliationSummary(staffID string) *ReconciliationSummary {
	return &ReconciliationSummary{
		RunID:       uuid.NewString(),
		StaffID:     staffID,
		GeneratedAt: time.Now().UTC(),
	}
}
