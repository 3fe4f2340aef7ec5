package model

// TimesheetEntry is one externally recorded unit of billed time from the
// WFX API. Read-only input to the engine. StartMinute is negative when
// the source data carried no declared start time; the scorer substitutes
// a fixed default in that case.
type TimesheetEntry struct {
	ID          string `json:"id"`
	StaffID     string `json:"staff_id"`
	Date        string `json:"date"` // YYYY-MM-DD
	JobID       string `json:"job_id,omitempty"`
	Minutes     int    `json:"minutes"`
	StartMinute int    `json:"start_minute"` // minutes since midnight, -1 if undeclared
	Note        string `json:"note,omitempty"`
}

// HasDeclaredStart reports whether the entry carried a start time in the
// source data rather than relying on the inferred default.
func (e *TimesheetEntry) HasDeclaredStart() bool {
	return e.StartMinute >= 0
}

// DailyTimesheetSummary groups all timesheet entries of one staff member
// on one date.
type DailyTimesheetSummary struct {
	StaffID      string            `json:"staff_id"`
	Date         string            `json:"date"`
	Entries      []*TimesheetEntry `json:"entries"`
	TotalMinutes int               `json:"total_minutes"`
	JobIDs       []string          `json:"job_ids"`
}

// TotalHours converts the day's billed minutes to hours.
func (s *DailyTimesheetSummary) TotalHours() float64 {
	return float64(s.TotalMinutes) / 60.0
}

// JobDetails is descriptive metadata for a WFX job, fetched once per
// distinct job id per run and cached for the run's lifetime.
type JobDetails struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Client      string `json:"client"`
	Category    string `json:"category"`
	Placeholder bool   `json:"placeholder,omitempty"` // details could not be fetched
}

// PlaceholderJob is the degraded record substituted when a job lookup
// fails; such jobs are excluded from match scoring.
func PlaceholderJob(jobID string) *JobDetails {
	return &JobDetails{
		ID:          jobID,
		Name:        "details unavailable",
		Placeholder: true,
	}
}
