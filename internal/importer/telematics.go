// Package importer parses the telematics trip export and builds the
// per-day trip summaries the reconciliation engine consumes.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/classify"
	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// Expected telematics export columns, by position.
const (
	colStaffID = iota
	colDate
	colStartTime
	colEndTime
	colOrigin
	colDestination
	colDistanceKm
	colDrivingMinutes
	columnCount
)

// ParseTrips reads a telematics CSV export. Malformed rows are logged
// and skipped; a file is only rejected when its header cannot be read.
func ParseTrips(r io.Reader, log *zap.Logger) ([]*model.Trip, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("importer: read header: %w", err)
	}

	var trips []*model.Trip
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warn("skipping unreadable row", zap.Int("line", line), zap.Error(err))
			continue
		}

		trip, err := mapRecord(record)
		if err != nil {
			log.Warn("skipping malformed row", zap.Int("line", line), zap.Error(err))
			continue
		}
		trips = append(trips, trip)
	}

	return trips, nil
}

// ParseTripsFile opens and parses a telematics export from disk.
func ParseTripsFile(path string, log *zap.Logger) ([]*model.Trip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("importer: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseTrips(f, log)
}

func mapRecord(record []string) (*model.Trip, error) {
	if len(record) < columnCount {
		return nil, fmt.Errorf("expected %d columns, got %d", columnCount, len(record))
	}

	start, err := parseClock(record[colStartTime])
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	end, err := parseClock(record[colEndTime])
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}
	if end < start {
		return nil, fmt.Errorf("trip ends (%s) before it starts (%s)", record[colEndTime], record[colStartTime])
	}

	distance, err := strconv.ParseFloat(strings.TrimSpace(record[colDistanceKm]), 64)
	if err != nil {
		return nil, fmt.Errorf("distance: %w", err)
	}

	driving, err := strconv.Atoi(strings.TrimSpace(record[colDrivingMinutes]))
	if err != nil {
		return nil, fmt.Errorf("driving minutes: %w", err)
	}

	return &model.Trip{
		StaffID:        strings.TrimSpace(record[colStaffID]),
		Date:           strings.TrimSpace(record[colDate]),
		StartMinute:    start,
		EndMinute:      end,
		Origin:         strings.TrimSpace(record[colOrigin]),
		Destination:    strings.TrimSpace(record[colDestination]),
		DistanceKm:     distance,
		DrivingMinutes: driving,
	}, nil
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return h*60 + m, nil
}

// BuildDailySummaries groups trips by date, classifies each day and
// constructs the immutable per-day summaries. breakMinutes is the
// deduction applied to the on-site span when deriving net work hours.
func BuildDailySummaries(trips []*model.Trip, classifier *classify.Classifier, profile *model.StaffProfile, breakMinutes int) map[string]*model.DailyTripSummary {
	byDate := make(map[string][]*model.Trip)
	for _, trip := range trips {
		byDate[trip.Date] = append(byDate[trip.Date], trip)
	}

	summaries := make(map[string]*model.DailyTripSummary, len(byDate))
	for date, dayTrips := range byDate {
		sort.SliceStable(dayTrips, func(i, j int) bool {
			return dayTrips[i].StartMinute < dayTrips[j].StartMinute
		})

		jobSites := classifier.ClassifyDay(profile, dayTrips)
		summaries[date] = buildSummary(profile.ID, date, dayTrips, jobSites, breakMinutes)
	}
	return summaries
}

// buildSummary derives the day aggregates from an ordered, classified
// trip list. Net work hours are the span from first arrival to last
// departure minus mid-day personal travel and the break deduction.
func buildSummary(staffID, date string, trips []*model.Trip, jobSites []string, breakMinutes int) *model.DailyTripSummary {
	s := &model.DailyTripSummary{
		StaffID:  staffID,
		Date:     date,
		Trips:    trips,
		JobSites: jobSites,
	}
	if len(trips) == 0 {
		return s
	}

	s.FirstArrival = trips[0].EndMinute
	s.LastDeparture = trips[len(trips)-1].StartMinute

	for _, trip := range trips {
		s.TotalMinutes += trip.DrivingMinutes
		if trip.IsWork() {
			s.WorkMinutes += trip.DrivingMinutes
		} else {
			s.PersonalMinutes += trip.DrivingMinutes
		}
	}

	midDayPersonal := 0
	for i, trip := range trips {
		if trip.Class == model.ClassPersonalMixed && i > 0 && i < len(trips)-1 {
			midDayPersonal += trip.DrivingMinutes
		}
	}

	onSite := s.LastDeparture - s.FirstArrival - midDayPersonal - breakMinutes
	if onSite > 0 {
		s.NetWorkHours = float64(onSite) / 60.0
	}
	return s
}
