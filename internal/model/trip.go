package model

import "fmt"

// TripClass labels how a GPS trip relates to the working day.
type TripClass string

const (
	ClassPersonalMorning TripClass = "personal_morning"
	ClassPersonalEvening TripClass = "personal_evening"
	ClassPersonalMixed   TripClass = "personal_mixed"
	ClassWork            TripClass = "work"
)

// Trip is one GPS-tracked vehicle movement between two addresses.
// The classification is set exactly once, when the day it belongs to
// is classified; every other field is fixed at import time.
type Trip struct {
	StaffID        string    `json:"staff_id"`
	Date           string    `json:"date"` // YYYY-MM-DD
	StartMinute    int       `json:"start_minute"` // minutes since midnight
	EndMinute      int       `json:"end_minute"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DistanceKm     float64   `json:"distance_km"`
	DrivingMinutes int       `json:"driving_minutes"`
	Class          TripClass `json:"classification,omitempty"`
}

// IsWork reports whether the trip has been classified as work travel.
func (t *Trip) IsWork() bool {
	return t.Class == ClassWork
}

// Span returns the elapsed minutes between trip start and end.
func (t *Trip) Span() int {
	return t.EndMinute - t.StartMinute
}

// ClockString renders a minutes-since-midnight value as HH:MM.
func ClockString(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// DailyTripSummary aggregates all trips of one staff member on one date.
// It is built once from the raw trip list and never mutated afterwards;
// the engine only touches the classification field of the trips it holds.
type DailyTripSummary struct {
	StaffID         string   `json:"staff_id"`
	Date            string   `json:"date"`
	Trips           []*Trip  `json:"trips"`
	FirstArrival    int      `json:"first_arrival"`
	LastDeparture   int      `json:"last_departure"`
	TotalMinutes    int      `json:"total_travel_minutes"`
	WorkMinutes     int      `json:"work_travel_minutes"`
	PersonalMinutes int      `json:"personal_travel_minutes"`
	NetWorkHours    float64  `json:"net_work_hours"`
	JobSites        []string `json:"job_sites"`
}

// StaffProfile identifies the worker a run reconciles and carries the
// configured home-address hint used by trip classification.
type StaffProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HomeAddress string `json:"home_address"`
}
