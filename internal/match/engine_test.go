package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

func dayInput(trips []*model.Trip, entries []*model.TimesheetEntry, jobs ...*model.JobDetails) DayInput {
	jobMap := make(map[string]*model.JobDetails, len(jobs))
	for _, j := range jobs {
		jobMap[j.ID] = j
	}
	return DayInput{
		Date:    "2024-03-04",
		Trips:   trips,
		Entries: entries,
		Jobs:    jobMap,
	}
}

func TestMatchDayConfidentPass(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	trips := []*model.Trip{
		workTrip("123 Main St", 9*60, 10*60),
		workTrip("45 Harbour Drive", 11*60, 12*60),
	}
	entries := []*model.TimesheetEntry{
		entryFor("J1", 55, 9*60+5),
		entryFor("J2", 60, 11*60),
	}

	cmp := e.MatchDay(dayInput(trips, entries,
		jobAt("J1", "123 Main Street"),
		jobAt("J2", "45 Harbour Dr")))

	assert.Len(t, cmp.Matches, 2)
	assert.Empty(t, cmp.UnmatchedTrips)
	assert.Empty(t, cmp.UnmatchedEntries)
	for _, m := range cmp.Matches {
		assert.Greater(t, m.Confidence, 0.7)
		assert.False(t, m.IsFuzzy())
	}
}

// Every trip and entry lands in exactly one of matched or unmatched.
func TestMatchDayPartitionInvariant(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	trips := []*model.Trip{
		workTrip("123 Main St", 9*60, 10*60),
		workTrip("45 Harbour Drive", 11*60, 12*60),
		workTrip("9 Pine Road", 14*60, 15*60),
	}
	entries := []*model.TimesheetEntry{
		entryFor("J1", 55, 9*60+5),
		entryFor("J9", 120, 13*60), // job in a different suburb entirely
	}

	cmp := e.MatchDay(dayInput(trips, entries,
		jobAt("J1", "123 Main Street"),
		jobAt("J9", "200 Distant Parkway Bathurst")))

	seenTrips := make(map[*model.Trip]int)
	for _, m := range cmp.Matches {
		seenTrips[m.Trip]++
	}
	for _, tr := range cmp.UnmatchedTrips {
		seenTrips[tr]++
	}
	for _, tr := range trips {
		assert.Equal(t, 1, seenTrips[tr], "trip %s counted once", tr.Destination)
	}

	seenEntries := make(map[*model.TimesheetEntry]int)
	for _, m := range cmp.Matches {
		seenEntries[m.Entry]++
	}
	for _, en := range cmp.UnmatchedEntries {
		seenEntries[en]++
	}
	for _, en := range entries {
		assert.Equal(t, 1, seenEntries[en], "entry %s counted once", en.ID)
	}
}

func TestMatchDayFuzzyPass(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	// Approximate location (3 of 4 tokens shared), approximate time
	// (0.6 overlap) and a duration hit: 0.3 + 0.15 + 0.1 = 0.55, below
	// the confident threshold but above the fuzzy floor.
	trips := []*model.Trip{
		workTrip("14 Bridge Penrith Plaza North", 9*60, 10*60),
	}
	entries := []*model.TimesheetEntry{
		entryFor("J5", 60, 9*60+15),
	}

	cmp := e.MatchDay(dayInput(trips, entries,
		jobAt("J5", "16 Bridge Penrith Plaza South")))

	assert.Len(t, cmp.Matches, 1)
	m := cmp.Matches[0]
	assert.True(t, m.IsFuzzy())
	assert.Greater(t, m.Confidence, 0.4)
	assert.LessOrEqual(t, m.Confidence, 0.7)
}

func TestMatchDayZeroEntries(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	trips := []*model.Trip{
		workTrip("123 Main St", 9*60, 10*60),
		workTrip("45 Harbour Drive", 11*60, 12*60),
	}

	cmp := e.MatchDay(dayInput(trips, nil))

	assert.Empty(t, cmp.Matches)
	assert.Len(t, cmp.UnmatchedTrips, 2)
	assert.Empty(t, cmp.UnmatchedEntries)
}

func TestMatchDayPlaceholderJobExcluded(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	trips := []*model.Trip{workTrip("123 Main St", 9*60, 10*60)}
	entries := []*model.TimesheetEntry{entryFor("J404", 55, 9*60+5)}

	cmp := e.MatchDay(dayInput(trips, entries, model.PlaceholderJob("J404")))

	assert.Empty(t, cmp.Matches)
	assert.Len(t, cmp.UnmatchedTrips, 1)
	assert.Len(t, cmp.UnmatchedEntries, 1)
}

func TestMatchDayPersonalTripsExcluded(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	personal := workTrip("10 Wattle Grove", 7*60, 7*60+30)
	personal.Class = model.ClassPersonalMorning

	cmp := e.MatchDay(dayInput([]*model.Trip{personal}, nil))

	assert.Empty(t, cmp.Matches)
	assert.Empty(t, cmp.UnmatchedTrips)
}

func TestMatchDayThresholdsHonored(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	trips := []*model.Trip{
		workTrip("123 Main St", 9*60, 10*60),
		workTrip("14 Bridge Road Penrith Plaza", 11*60, 12*60),
	}
	entries := []*model.TimesheetEntry{
		entryFor("J1", 55, 9*60+5),
		entryFor("J5", 60, 11*60),
		entryFor("J9", 45, 15*60),
	}

	cmp := e.MatchDay(dayInput(trips, entries,
		jobAt("J1", "123 Main Street"),
		jobAt("J5", "16 Bridge Street Penrith Plaza"),
		jobAt("J9", "200 Distant Parkway Bathurst")))

	matchedEntries := make(map[string]bool)
	for _, m := range cmp.Matches {
		matchedEntries[m.Entry.ID] = true
		if m.IsFuzzy() {
			assert.Greater(t, m.Confidence, DefaultThresholds().Fuzzy)
		} else {
			assert.Greater(t, m.Confidence, DefaultThresholds().MinimumMatch)
		}
	}
	// No entry is matched by both passes.
	assert.Len(t, matchedEntries, len(cmp.Matches))
}

func TestMatchDayTimeDiscrepancy(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	// Location identical, timing off by 45 minutes: the match commits
	// and carries a medium time discrepancy.
	trips := []*model.Trip{workTrip("123 Main St", 9*60+45, 10*60+45)}
	entries := []*model.TimesheetEntry{entryFor("J1", 60, 9*60)}

	cmp := e.MatchDay(dayInput(trips, entries, jobAt("J1", "123 Main Street")))

	if assert.Len(t, cmp.Matches, 1) {
		assert.Len(t, cmp.TimeDiscrepancies, 1)
		assert.Equal(t, model.SeverityMedium, cmp.TimeDiscrepancies[0].Severity)
		assert.Equal(t, 45, cmp.Matches[0].TimeOffsetMinutes)
	}
}

func TestMatchDayHighTimeDiscrepancy(t *testing.T) {
	thresholds := DefaultThresholds()
	e := NewEngine(nil, thresholds, zap.NewNop())

	// 90 minute offset is beyond twice the 30 minute tolerance.
	trips := []*model.Trip{workTrip("123 Main St", 10*60+30, 12*60+30)}
	entries := []*model.TimesheetEntry{entryFor("J1", 150, 9*60)}

	cmp := e.MatchDay(dayInput(trips, entries, jobAt("J1", "123 Main Street")))

	if assert.Len(t, cmp.Matches, 1) {
		if assert.Len(t, cmp.TimeDiscrepancies, 1) {
			assert.Equal(t, model.SeverityHigh, cmp.TimeDiscrepancies[0].Severity)
		}
	}
}

func TestMatchDaySummary(t *testing.T) {
	e := NewEngine(nil, nil, zap.NewNop())

	trips := []*model.Trip{workTrip("123 Main St", 9*60, 10*60)}
	entries := []*model.TimesheetEntry{entryFor("J1", 55, 9*60+5)}

	cmp := e.MatchDay(dayInput(trips, entries, jobAt("J1", "123 Main Street")))

	assert.Equal(t, 55, cmp.MatchedMinutes)
	assert.Equal(t, 1.0, cmp.AvgLocationScore)
	assert.Greater(t, cmp.AvgTimeScore, 0.8)
}
