package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

func testProfile() *model.StaffProfile {
	return &model.StaffProfile{
		ID:          "staff-1",
		Name:        "Test Worker",
		HomeAddress: "10 Wattle Grove, Hornsby",
	}
}

func trip(date, origin, dest string, start, end int) *model.Trip {
	return &model.Trip{
		StaffID:        "staff-1",
		Date:           date,
		Origin:         origin,
		Destination:    dest,
		StartMinute:    start,
		EndMinute:      end,
		DrivingMinutes: end - start,
	}
}

func TestClassifyDayFullDay(t *testing.T) {
	c := New(zap.NewNop())

	trips := []*model.Trip{
		trip("2024-03-04", "10 Wattle Grove, Hornsby", "123 Main Street", 480, 520),
		trip("2024-03-04", "123 Main Street", "45 Harbour Drive", 600, 640),
		trip("2024-03-04", "45 Harbour Drive", "10 Wattle Grove, Hornsby", 1020, 1070),
	}

	jobSites := c.ClassifyDay(testProfile(), trips)

	assert.Equal(t, model.ClassPersonalMorning, trips[0].Class)
	assert.Equal(t, model.ClassWork, trips[1].Class)
	assert.Equal(t, model.ClassPersonalEvening, trips[2].Class)
	assert.Equal(t, []string{"45 Harbour Drive"}, jobSites)
}

func TestClassifyDayMidDayHomeVisit(t *testing.T) {
	c := New(zap.NewNop())

	trips := []*model.Trip{
		trip("2024-03-04", "10 Wattle Grove, Hornsby", "123 Main Street", 480, 520),
		trip("2024-03-04", "123 Main Street", "45 Harbour Drive", 560, 600),
		trip("2024-03-04", "45 Harbour Drive", "10 Wattle Grove, Hornsby", 700, 740),
		trip("2024-03-04", "10 Wattle Grove, Hornsby", "88 George Street", 800, 840),
		trip("2024-03-04", "88 George Street", "10 Wattle Grove, Hornsby", 1000, 1040),
	}

	jobSites := c.ClassifyDay(testProfile(), trips)

	// Home touched mid-day, neither first-origin nor last-destination.
	assert.Equal(t, model.ClassPersonalMorning, trips[0].Class)
	assert.Equal(t, model.ClassWork, trips[1].Class)
	assert.Equal(t, model.ClassPersonalMixed, trips[2].Class)
	assert.Equal(t, model.ClassPersonalMixed, trips[3].Class)
	assert.Equal(t, model.ClassPersonalEvening, trips[4].Class)
	assert.Equal(t, []string{"45 Harbour Drive"}, jobSites)
}

func TestClassifyDayFrequencyInference(t *testing.T) {
	c := New(zap.NewNop())
	profile := &model.StaffProfile{ID: "staff-2", HomeAddress: ""}

	// No configured home; "7 Quiet Close" dominates by combined
	// origin+destination count and is inferred as home.
	trips := []*model.Trip{
		trip("2024-03-05", "7 Quiet Close", "123 Main Street", 480, 520),
		trip("2024-03-05", "123 Main Street", "7 Quiet Close", 700, 740),
		trip("2024-03-05", "7 Quiet Close", "45 Harbour Drive", 800, 840),
		trip("2024-03-05", "45 Harbour Drive", "7 Quiet Close", 1000, 1040),
	}

	c.ClassifyDay(profile, trips)

	assert.Equal(t, model.ClassPersonalMorning, trips[0].Class)
	assert.Equal(t, model.ClassPersonalMixed, trips[1].Class)
	assert.Equal(t, model.ClassPersonalMixed, trips[2].Class)
	assert.Equal(t, model.ClassPersonalEvening, trips[3].Class)
}

func TestClassifyDaySetsClassOnce(t *testing.T) {
	c := New(zap.NewNop())

	trips := []*model.Trip{
		trip("2024-03-04", "10 Wattle Grove, Hornsby", "123 Main Street", 480, 520),
	}
	trips[0].Class = model.ClassWork

	c.ClassifyDay(testProfile(), trips)

	// Pre-classified trips keep their tag.
	assert.Equal(t, model.ClassWork, trips[0].Class)
}

func TestClassifyDayEmpty(t *testing.T) {
	c := New(zap.NewNop())
	assert.Nil(t, c.ClassifyDay(testProfile(), nil))
}
