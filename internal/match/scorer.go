package match

import (
	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
	"github.com/Haokaiiii/WFX-Timesheet/internal/normalize"
)

// DefaultEntryStartMinute is substituted when a timesheet entry carries
// no declared start time. A known data-quality gap in the WFX export:
// most field work starts near 09:00, but this materially affects
// time-overlap scoring.
const DefaultEntryStartMinute = 9 * 60

// neutralJobTypeScore stands in for a job-type comparison until job
// categories carry a usable taxonomy.
const neutralJobTypeScore = 0.5

// Scorer computes the weighted confidence between one trip and one
// timesheet entry.
type Scorer struct {
	weights *Weights
}

// NewScorer creates a scorer; nil weights select the defaults.
func NewScorer(weights *Weights) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score evaluates trip against entry across the location, time,
// duration and job-type dimensions. job must be a resolved (non
// placeholder) JobDetails record.
func (s *Scorer) Score(trip *model.Trip, entry *model.TimesheetEntry, job *model.JobDetails) Score {
	var result Score

	// Location: trip destination against the job's postal address.
	result.LocationScore = normalize.Similarity(trip.Destination, job.Address)
	result.DistanceKm = normalize.DistanceProxy(result.LocationScore)
	switch {
	case result.LocationScore > 0.8:
		result.Confidence += s.weights.Location
		result.Criteria = append(result.Criteria, model.CriterionExactLocation)
	case result.LocationScore > 0.6:
		result.Confidence += s.weights.Location * 0.6
		result.Criteria = append(result.Criteria, model.CriterionApproxLocation)
	}

	// Time: interval overlap normalized by the union span. The start
	// offset is recorded regardless of the overlap score.
	entryStart := entry.StartMinute
	if !entry.HasDeclaredStart() {
		entryStart = DefaultEntryStartMinute
	}
	entryEnd := entryStart + entry.Minutes

	result.TimeScore = intervalOverlap(trip.StartMinute, trip.EndMinute, entryStart, entryEnd)
	result.TimeOffsetMinutes = absInt(trip.StartMinute - entryStart)
	switch {
	case result.TimeScore > 0.8:
		result.Confidence += s.weights.Time
		result.Criteria = append(result.Criteria, model.CriterionTimeOverlap)
	case result.TimeScore > 0.5:
		result.Confidence += s.weights.Time * 0.5
		result.Criteria = append(result.Criteria, model.CriterionApproxTime)
	}

	// Duration: driving minutes against billed minutes.
	if ratio := durationRatio(trip.DrivingMinutes, entry.Minutes); ratio > 0.7 {
		result.Confidence += s.weights.Duration
		result.Criteria = append(result.Criteria, model.CriterionDurationMatch)
	}

	// Job type: neutral until job categories carry a taxonomy.
	if neutralJobTypeScore > 0.5 {
		result.Confidence += s.weights.JobType
		result.Criteria = append(result.Criteria, model.CriterionJobTypeMatch)
	}

	return result
}

// intervalOverlap returns the overlap of [aStart,aEnd] and
// [bStart,bEnd] in minutes, normalized by the union of both spans.
func intervalOverlap(aStart, aEnd, bStart, bEnd int) float64 {
	overlapStart := maxInt(aStart, bStart)
	overlapEnd := minInt(aEnd, bEnd)
	if overlapEnd <= overlapStart {
		return 0.0
	}

	unionStart := minInt(aStart, bStart)
	unionEnd := maxInt(aEnd, bEnd)
	if unionEnd <= unionStart {
		return 0.0
	}

	return float64(overlapEnd-overlapStart) / float64(unionEnd-unionStart)
}

// durationRatio is min/max of the two durations, 0 when either is
// non-positive.
func durationRatio(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0.0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
