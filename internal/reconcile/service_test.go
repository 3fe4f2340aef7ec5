package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// fakeJobFetcher serves job details from a map and counts lookups.
type fakeJobFetcher struct {
	jobs   map[string]*model.JobDetails
	calls  map[string]int
	broken bool
}

func newFakeJobFetcher(jobs ...*model.JobDetails) *fakeJobFetcher {
	f := &fakeJobFetcher{
		jobs:  make(map[string]*model.JobDetails),
		calls: make(map[string]int),
	}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobFetcher) FetchJobDetails(_ context.Context, jobID string) (*model.JobDetails, error) {
	f.calls[jobID]++
	if f.broken {
		return nil, errors.New("api unavailable")
	}
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}

func profile() *model.StaffProfile {
	return &model.StaffProfile{ID: "staff-1", Name: "Test Worker", HomeAddress: "10 Wattle Grove"}
}

func daySummary(date string, trips ...*model.Trip) *model.DailyTripSummary {
	total := 0
	for _, t := range trips {
		total += t.Span()
	}
	return &model.DailyTripSummary{
		StaffID:      "staff-1",
		Date:         date,
		Trips:        trips,
		TotalMinutes: total,
		NetWorkHours: 8.0,
	}
}

func entrySummary(date string, entries ...*model.TimesheetEntry) *model.DailyTimesheetSummary {
	total := 0
	var jobIDs []string
	for _, e := range entries {
		total += e.Minutes
		if e.JobID != "" {
			jobIDs = append(jobIDs, e.JobID)
		}
	}
	return &model.DailyTimesheetSummary{
		StaffID:      "staff-1",
		Date:         date,
		Entries:      entries,
		TotalMinutes: total,
		JobIDs:       jobIDs,
	}
}

func workTrip(date, dest string, start, end int) *model.Trip {
	return &model.Trip{
		StaffID:        "staff-1",
		Date:           date,
		Origin:         "somewhere",
		Destination:    dest,
		StartMinute:    start,
		EndMinute:      end,
		DrivingMinutes: end - start,
		Class:          model.ClassWork,
	}
}

func entry(id, date, jobID string, minutes, start int) *model.TimesheetEntry {
	return &model.TimesheetEntry{
		ID: id, StaffID: "staff-1", Date: date,
		JobID: jobID, Minutes: minutes, StartMinute: start,
	}
}

func TestPerformEnhancedComparisonHappyPath(t *testing.T) {
	fetcher := newFakeJobFetcher(
		&model.JobDetails{ID: "J1", Name: "Fitout", Address: "123 Main Street"},
	)
	s := NewService(fetcher, nil, nil, zap.NewNop())

	trips := map[string]*model.DailyTripSummary{
		"2024-03-04": daySummary("2024-03-04", workTrip("2024-03-04", "123 Main St", 9*60, 10*60)),
	}
	entries := map[string]*model.DailyTimesheetSummary{
		"2024-03-04": entrySummary("2024-03-04",
			entry("e1", "2024-03-04", "J1", 55, 9*60+5)),
	}

	summary := s.PerformEnhancedComparison(context.Background(), trips, entries, profile())

	assert.Equal(t, 1, summary.TotalDays)
	assert.Equal(t, 1, summary.MatchedJobs)
	assert.Zero(t, summary.UnmatchedTrips)
	assert.Zero(t, summary.UnmatchedEntries)
	assert.Equal(t, 100.0, summary.LocationMatchAccuracy)
	assert.Equal(t, 100.0, summary.TimeMatchAccuracy)
	assert.NotEmpty(t, summary.RunID)
}

func TestJobDetailsFetchedOncePerRun(t *testing.T) {
	fetcher := newFakeJobFetcher(
		&model.JobDetails{ID: "J1", Name: "Fitout", Address: "123 Main Street"},
	)
	s := NewService(fetcher, nil, nil, zap.NewNop())

	trips := map[string]*model.DailyTripSummary{
		"2024-03-04": daySummary("2024-03-04", workTrip("2024-03-04", "123 Main St", 9*60, 10*60)),
		"2024-03-05": daySummary("2024-03-05", workTrip("2024-03-05", "123 Main St", 9*60, 10*60)),
	}
	entries := map[string]*model.DailyTimesheetSummary{
		"2024-03-04": entrySummary("2024-03-04", entry("e1", "2024-03-04", "J1", 55, 9*60+5)),
		"2024-03-05": entrySummary("2024-03-05", entry("e2", "2024-03-05", "J1", 55, 9*60+5)),
	}

	s.PerformEnhancedComparison(context.Background(), trips, entries, profile())

	assert.Equal(t, 1, fetcher.calls["J1"])
}

func TestFailedJobLookupDegradesToUnmatched(t *testing.T) {
	fetcher := newFakeJobFetcher()
	fetcher.broken = true
	s := NewService(fetcher, nil, nil, zap.NewNop())

	trips := map[string]*model.DailyTripSummary{
		"2024-03-04": daySummary("2024-03-04", workTrip("2024-03-04", "123 Main St", 9*60, 10*60)),
	}
	entries := map[string]*model.DailyTimesheetSummary{
		"2024-03-04": entrySummary("2024-03-04", entry("e1", "2024-03-04", "J1", 55, 9*60+5)),
	}

	summary := s.PerformEnhancedComparison(context.Background(), trips, entries, profile())

	// The run completes; the unresolvable entry and its trip fall into
	// the unmatched lists.
	assert.Equal(t, 0, summary.MatchedJobs)
	assert.Equal(t, 1, summary.UnmatchedTrips)
	assert.Equal(t, 1, summary.UnmatchedEntries)
}

func TestDayWithoutEntriesAllTripsUnmatched(t *testing.T) {
	s := NewService(newFakeJobFetcher(), nil, nil, zap.NewNop())

	trips := map[string]*model.DailyTripSummary{
		"2024-03-04": daySummary("2024-03-04",
			workTrip("2024-03-04", "123 Main St", 9*60, 10*60),
			workTrip("2024-03-04", "45 Harbour Drive", 11*60, 12*60)),
	}

	summary := s.PerformEnhancedComparison(context.Background(), trips, nil, profile())

	assert.Equal(t, 2, summary.UnmatchedTrips)
	assert.Empty(t, summary.Days[0].Matches)
}

func TestDayWithoutTripsAllEntriesUnmatched(t *testing.T) {
	fetcher := newFakeJobFetcher(
		&model.JobDetails{ID: "J1", Name: "Fitout", Address: "123 Main Street"},
	)
	s := NewService(fetcher, nil, nil, zap.NewNop())

	entries := map[string]*model.DailyTimesheetSummary{
		"2024-03-04": entrySummary("2024-03-04", entry("e1", "2024-03-04", "J1", 55, 9*60)),
	}

	summary := s.PerformEnhancedComparison(context.Background(), nil, entries, profile())

	assert.Equal(t, 1, summary.UnmatchedEntries)
	assert.Equal(t, 1, summary.TotalDays)
	// 0 net hours against 0.92 billed hours is a day-level discrepancy.
	assert.Equal(t, model.DayStatusDiscrepancy, summary.DayResults[0].Status)
}

func TestDaysProcessedInChronologicalOrder(t *testing.T) {
	s := NewService(newFakeJobFetcher(), nil, nil, zap.NewNop())

	trips := map[string]*model.DailyTripSummary{
		"2024-03-06": daySummary("2024-03-06", workTrip("2024-03-06", "a st", 9*60, 10*60)),
		"2024-03-04": daySummary("2024-03-04", workTrip("2024-03-04", "b st", 9*60, 10*60)),
		"2024-03-05": daySummary("2024-03-05", workTrip("2024-03-05", "c st", 9*60, 10*60)),
	}

	summary := s.PerformEnhancedComparison(context.Background(), trips, nil, profile())

	var dates []string
	for _, day := range summary.Days {
		dates = append(dates, day.Date)
	}
	assert.Equal(t, []string{"2024-03-04", "2024-03-05", "2024-03-06"}, dates)
}
