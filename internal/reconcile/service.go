// Package reconcile drives the per-day matching pipeline and rolls the
// results into a run-level summary with accuracy metrics and alerts.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/classify"
	"github.com/Haokaiiii/WFX-Timesheet/internal/match"
	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// JobFetcher resolves job metadata for a WFX job id. A returned error
// means "unavailable": the service substitutes a placeholder record and
// carries on.
type JobFetcher interface {
	FetchJobDetails(ctx context.Context, jobID string) (*model.JobDetails, error)
}

// Service is a single-run reconciliation engine instance. It owns the
// run-scoped job-details cache (write-once per key, never invalidated)
// and the classifier's address cache; callers needing fresh data start
// a new Service.
type Service struct {
	jobs       JobFetcher
	jobCache   map[string]*model.JobDetails
	classifier *classify.Classifier
	engine     *match.Engine
	thresholds *match.Thresholds
	log        *zap.Logger
}

// NewService wires a reconciliation engine. Nil weights or thresholds
// select the defaults.
func NewService(jobs JobFetcher, weights *match.Weights, thresholds *match.Thresholds, log *zap.Logger) *Service {
	if thresholds == nil {
		thresholds = match.DefaultThresholds()
	}
	return &Service{
		jobs:       jobs,
		jobCache:   make(map[string]*model.JobDetails),
		classifier: classify.New(log),
		engine:     match.NewEngine(weights, thresholds, log),
		thresholds: thresholds,
		log:        log,
	}
}

// PerformEnhancedComparison reconciles every day present on either side
// and returns the run summary. The run always completes: job lookups
// that fail degrade to placeholders, and a day whose matching fails is
// surfaced as a degraded DayComparison plus an alert, never an error.
func (s *Service) PerformEnhancedComparison(
	ctx context.Context,
	tripsByDate map[string]*model.DailyTripSummary,
	entriesByDate map[string]*model.DailyTimesheetSummary,
	profile *model.StaffProfile,
) *model.ReconciliationSummary {
	summary := model.NewReconciliationSummary(profile.ID)

	for _, date := range unionDates(tripsByDate, entriesByDate) {
		day := s.compareDay(ctx, date, tripsByDate[date], entriesByDate[date], profile)
		s.foldDay(summary, day)
		summary.DayResults = append(summary.DayResults,
			traditionalDayResult(date, tripsByDate[date], entriesByDate[date], s.thresholds.HourDiscrepancy))
	}

	finalize(summary, s.thresholds)

	s.log.Info("reconciliation complete",
		zap.String("run_id", summary.RunID),
		zap.String("staff", profile.ID),
		zap.Int("days", summary.TotalDays),
		zap.Int("matched_jobs", summary.MatchedJobs),
		zap.Float64("location_accuracy", summary.LocationMatchAccuracy),
		zap.Float64("time_accuracy", summary.TimeMatchAccuracy))

	return summary
}

// compareDay classifies the day's trips, resolves job details for its
// entries and runs the matching engine. Failures are isolated: a panic
// inside one day's matching yields a degraded comparison for that day
// only.
func (s *Service) compareDay(
	ctx context.Context,
	date string,
	trips *model.DailyTripSummary,
	entries *model.DailyTimesheetSummary,
	profile *model.StaffProfile,
) (day *model.DayComparison) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("day comparison failed",
				zap.String("date", date), zap.Any("panic", r))
			day = &model.DayComparison{Date: date, Degraded: true}
		}
	}()

	in := match.DayInput{Date: date}
	if trips != nil {
		s.classifier.ClassifyDay(profile, trips.Trips)
		in.Trips = trips.Trips
	}
	if entries != nil {
		in.Entries = entries.Entries
		in.Jobs = s.resolveJobs(ctx, entries.Entries)
	}

	return s.engine.MatchDay(in)
}

// resolveJobs fetches details for each distinct job id once per run.
// Repeat lookups are cache hits; a failed fetch caches a placeholder so
// the id is never retried within the run.
func (s *Service) resolveJobs(ctx context.Context, entries []*model.TimesheetEntry) map[string]*model.JobDetails {
	jobs := make(map[string]*model.JobDetails)
	for _, entry := range entries {
		if entry.JobID == "" {
			continue
		}
		if cached, ok := s.jobCache[entry.JobID]; ok {
			jobs[entry.JobID] = cached
			continue
		}

		details, err := s.jobs.FetchJobDetails(ctx, entry.JobID)
		if err != nil || details == nil {
			if err != nil {
				s.log.Warn("job details unavailable",
					zap.String("job_id", entry.JobID), zap.Error(err))
			}
			details = model.PlaceholderJob(entry.JobID)
		}
		s.jobCache[entry.JobID] = details
		jobs[entry.JobID] = details
	}
	return jobs
}

// foldDay accumulates one day's comparison into the run totals.
func (s *Service) foldDay(summary *model.ReconciliationSummary, day *model.DayComparison) {
	summary.Days = append(summary.Days, day)
	summary.TotalDays++
	summary.MatchedJobs += len(day.Matches)
	summary.UnmatchedTrips += len(day.UnmatchedTrips)
	summary.UnmatchedEntries += len(day.UnmatchedEntries)

	if day.Degraded {
		summary.Alerts = append(summary.Alerts, &model.Alert{
			Type:     "day_failed",
			Message:  fmt.Sprintf("matching for %s failed and was skipped", day.Date),
			Severity: model.SeverityMedium,
		})
	}
}

// unionDates returns every date present on either side, ascending. The
// inputs are plain maps, so insertion order is not observable here;
// chronological order keeps runs deterministic.
func unionDates(trips map[string]*model.DailyTripSummary, entries map[string]*model.DailyTimesheetSummary) []string {
	seen := make(map[string]bool, len(trips)+len(entries))
	var dates []string
	for date := range trips {
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}
	for date := range entries {
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}
