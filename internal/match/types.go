// Package match pairs classified GPS trips with WFX timesheet entries
// using a weighted multi-criteria scorer and a two-pass greedy
// assignment.
package match

import (
	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// Weights are the scoring weights for the four match dimensions. They
// must sum to at most 1 so confidence stays inside [0,1]; the config
// loader validates this.
type Weights struct {
	Location float64
	Time     float64
	Duration float64
	JobType  float64
}

// DefaultWeights returns the recommended dimension weights.
func DefaultWeights() *Weights {
	return &Weights{
		Location: 0.5,
		Time:     0.3,
		Duration: 0.1,
		JobType:  0.1,
	}
}

// Sum returns the total weight available to a single match score.
func (w *Weights) Sum() float64 {
	return w.Location + w.Time + w.Duration + w.JobType
}

// Thresholds define the confidence tiers and discrepancy tolerances of
// the matching engine.
type Thresholds struct {
	MinimumMatch      float64 // confident pass floor
	Fuzzy             float64 // relaxed pass floor
	MaxTimeOffsetMin  int     // minutes before a match is a time discrepancy
	MaxDistanceKm     float64 // km before a match is a location discrepancy
	HourDiscrepancy   float64 // day-level hour tolerance (traditional comparison)
}

// DefaultThresholds returns the recommended thresholds.
func DefaultThresholds() *Thresholds {
	return &Thresholds{
		MinimumMatch:     0.7,
		Fuzzy:            0.4,
		MaxTimeOffsetMin: 30,
		MaxDistanceKm:    2.0,
		HourDiscrepancy:  0.5,
	}
}

// Score is the outcome of scoring one trip against one timesheet entry.
type Score struct {
	Confidence        float64
	Criteria          []string
	LocationScore     float64
	TimeScore         float64
	DistanceKm        float64
	TimeOffsetMinutes int
}

// DayInput is the material the engine matches for a single date: the
// day's classified trips, its timesheet entries, and the job details
// resolved for those entries (placeholders allowed, they are skipped
// during scoring).
type DayInput struct {
	Date    string
	Trips   []*model.Trip
	Entries []*model.TimesheetEntry
	Jobs    map[string]*model.JobDetails
}
