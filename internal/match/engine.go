package match

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// Engine performs the two-pass trip/entry assignment for one day at a
// time: a confident greedy pass over best candidates, then a relaxed
// fuzzy pass over whatever remains.
type Engine struct {
	scorer     *Scorer
	thresholds *Thresholds
	log        *zap.Logger
}

// NewEngine creates a matching engine; nil weights or thresholds select
// the defaults.
func NewEngine(weights *Weights, thresholds *Thresholds, log *zap.Logger) *Engine {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return &Engine{
		scorer:     NewScorer(weights),
		thresholds: thresholds,
		log:        log,
	}
}

// MatchDay assigns the day's work trips to its timesheet entries.
// Personal trips never enter the candidate pools. Every work trip and
// every entry of the day ends up in exactly one of {a JobMatch, the
// unmatched list for its type}.
func (e *Engine) MatchDay(in DayInput) *model.DayComparison {
	cmp := &model.DayComparison{Date: in.Date}

	// Arena + remaining-set bookkeeping: candidates are referenced by
	// index and removed from the remaining sets as matches commit, so
	// no pool is mutated while being iterated.
	workTrips := make([]*model.Trip, 0, len(in.Trips))
	for _, trip := range in.Trips {
		if trip.IsWork() {
			workTrips = append(workTrips, trip)
		}
	}

	// Most-recent first. Order affects tie-breaking only: committed
	// candidates leave the shared pool either way.
	sort.SliceStable(workTrips, func(i, j int) bool {
		return workTrips[i].StartMinute > workTrips[j].StartMinute
	})

	tripRemaining := make(map[int]bool, len(workTrips))
	for i := range workTrips {
		tripRemaining[i] = true
	}
	entryRemaining := make(map[int]bool, len(in.Entries))
	for j := range in.Entries {
		entryRemaining[j] = true
	}

	e.confidentPass(in, workTrips, tripRemaining, entryRemaining, cmp)
	e.fuzzyPass(in, workTrips, tripRemaining, entryRemaining, cmp)

	for i := range workTrips {
		if tripRemaining[i] {
			cmp.UnmatchedTrips = append(cmp.UnmatchedTrips, workTrips[i])
		}
	}
	for j := range in.Entries {
		if entryRemaining[j] {
			cmp.UnmatchedEntries = append(cmp.UnmatchedEntries, in.Entries[j])
		}
	}

	e.summarizeDay(cmp)

	if e.log != nil {
		e.log.Debug("matched day",
			zap.String("date", in.Date),
			zap.Int("matches", len(cmp.Matches)),
			zap.Int("unmatched_trips", len(cmp.UnmatchedTrips)),
			zap.Int("unmatched_entries", len(cmp.UnmatchedEntries)))
	}

	return cmp
}

// confidentPass commits, per remaining trip, the single best-scoring
// entry when its confidence clears the minimum-match threshold.
func (e *Engine) confidentPass(in DayInput, trips []*model.Trip, tripRemaining, entryRemaining map[int]bool, cmp *model.DayComparison) {
	for i := range trips {
		if !tripRemaining[i] {
			continue
		}

		bestIdx := -1
		var bestScore Score
		for j := range in.Entries {
			if !entryRemaining[j] {
				continue
			}
			job, ok := e.resolvedJob(in, in.Entries[j])
			if !ok {
				continue
			}
			score := e.scorer.Score(trips[i], in.Entries[j], job)
			if bestIdx < 0 || score.Confidence > bestScore.Confidence {
				bestIdx = j
				bestScore = score
			}
		}

		if bestIdx < 0 || bestScore.Confidence <= e.thresholds.MinimumMatch {
			continue
		}

		job, _ := e.resolvedJob(in, in.Entries[bestIdx])
		m := newJobMatch(trips[i], in.Entries[bestIdx], job, bestScore)
		cmp.Matches = append(cmp.Matches, m)
		tripRemaining[i] = false
		entryRemaining[bestIdx] = false
		e.classifyDiscrepancies(cmp, m)
	}
}

// fuzzyPass takes, per remaining trip, the first entry clearing the
// relaxed threshold rather than the best one, and tags it fuzzy_match.
func (e *Engine) fuzzyPass(in DayInput, trips []*model.Trip, tripRemaining, entryRemaining map[int]bool, cmp *model.DayComparison) {
	for i := range trips {
		if !tripRemaining[i] {
			continue
		}

		for j := range in.Entries {
			if !entryRemaining[j] {
				continue
			}
			job, ok := e.resolvedJob(in, in.Entries[j])
			if !ok {
				continue
			}
			score := e.scorer.Score(trips[i], in.Entries[j], job)
			if score.Confidence <= e.thresholds.Fuzzy {
				continue
			}

			score.Criteria = append(score.Criteria, model.CriterionFuzzyMatch)
			m := newJobMatch(trips[i], in.Entries[j], job, score)
			cmp.Matches = append(cmp.Matches, m)
			tripRemaining[i] = false
			entryRemaining[j] = false
			e.classifyDiscrepancies(cmp, m)
			break
		}
	}
}

// resolvedJob returns the entry's job details when they were fetched
// successfully. Entries without a job reference or with a placeholder
// record are excluded from scoring and fail open into unmatched.
func (e *Engine) resolvedJob(in DayInput, entry *model.TimesheetEntry) (*model.JobDetails, bool) {
	if entry.JobID == "" {
		return nil, false
	}
	job, ok := in.Jobs[entry.JobID]
	if !ok || job == nil || job.Placeholder {
		return nil, false
	}
	return job, true
}

// classifyDiscrepancies records a committed match as a time and/or
// location discrepancy when its offsets exceed the configured maxima.
// Severity is high above twice the tolerance, else medium.
func (e *Engine) classifyDiscrepancies(cmp *model.DayComparison, m *model.JobMatch) {
	if m.TimeOffsetMinutes > e.thresholds.MaxTimeOffsetMin {
		severity := model.SeverityMedium
		if m.TimeOffsetMinutes > 2*e.thresholds.MaxTimeOffsetMin {
			severity = model.SeverityHigh
		}
		cmp.TimeDiscrepancies = append(cmp.TimeDiscrepancies, &model.Discrepancy{
			Date:     cmp.Date,
			Match:    m,
			Kind:     "time",
			Severity: severity,
			Message: fmt.Sprintf("trip at %s starts %d min from entry for job %s",
				model.ClockString(m.Trip.StartMinute), m.TimeOffsetMinutes, m.Entry.JobID),
		})
	}

	if m.DistanceKm > e.thresholds.MaxDistanceKm {
		severity := model.SeverityMedium
		if m.DistanceKm > 2*e.thresholds.MaxDistanceKm {
			severity = model.SeverityHigh
		}
		cmp.LocationDiscrepancies = append(cmp.LocationDiscrepancies, &model.Discrepancy{
			Date:     cmp.Date,
			Match:    m,
			Kind:     "location",
			Severity: severity,
			Message: fmt.Sprintf("trip to %q is ~%.1f km from job %s address",
				m.Trip.Destination, m.DistanceKm, m.Entry.JobID),
		})
	}
}

// summarizeDay fills the per-day aggregates: matched minutes and the
// average location/time sub-scores. Averages are zero when the day has
// no matches.
func (e *Engine) summarizeDay(cmp *model.DayComparison) {
	if len(cmp.Matches) == 0 {
		return
	}

	var locSum, timeSum float64
	for _, m := range cmp.Matches {
		cmp.MatchedMinutes += m.Entry.Minutes
		locSum += m.LocationScore
		timeSum += m.TimeScore
	}
	cmp.AvgLocationScore = locSum / float64(len(cmp.Matches))
	cmp.AvgTimeScore = timeSum / float64(len(cmp.Matches))
}

func newJobMatch(trip *model.Trip, entry *model.TimesheetEntry, job *model.JobDetails, score Score) *model.JobMatch {
	return &model.JobMatch{
		Trip:              trip,
		Entry:             entry,
		Job:               job,
		Confidence:        score.Confidence,
		Criteria:          score.Criteria,
		LocationScore:     score.LocationScore,
		TimeScore:         score.TimeScore,
		DistanceKm:        score.DistanceKm,
		TimeOffsetMinutes: score.TimeOffsetMinutes,
	}
}
