package wfx

import (
	"net/http"
	"sort"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// Config defines WFX API client settings.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	// HTTPClient overrides the OAuth-wrapped default, used by tests.
	HTTPClient *http.Client
}

// Client queries the WFX time and job APIs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type timesheetListResponse struct {
	Times []timesheetRecord `json:"times"`
}

type timesheetRecord struct {
	ID      string `json:"id"`
	StaffID string `json:"staff_id"`
	Date    string `json:"date"`
	JobID   string `json:"job_id"`
	Minutes int    `json:"minutes"`
	Start   string `json:"start,omitempty"` // HH:MM, often absent
	Note    string `json:"note,omitempty"`
}

type jobResponse struct {
	Job jobRecord `json:"job"`
}

type jobRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Client   struct {
		Name string `json:"name"`
	} `json:"client"`
	Category string `json:"category"`
}

// GroupByDate folds timesheet entries into per-day summaries keyed by
// date (YYYY-MM-DD).
func GroupByDate(entries []*model.TimesheetEntry) map[string]*model.DailyTimesheetSummary {
	byDate := make(map[string]*model.DailyTimesheetSummary)
	for _, entry := range entries {
		day, ok := byDate[entry.Date]
		if !ok {
			day = &model.DailyTimesheetSummary{
				StaffID: entry.StaffID,
				Date:    entry.Date,
			}
			byDate[entry.Date] = day
		}
		day.Entries = append(day.Entries, entry)
		day.TotalMinutes += entry.Minutes
		if entry.JobID != "" && !containsString(day.JobIDs, entry.JobID) {
			day.JobIDs = append(day.JobIDs, entry.JobID)
		}
	}

	for _, day := range byDate {
		sort.SliceStable(day.Entries, func(i, j int) bool {
			return day.Entries[i].StartMinute < day.Entries[j].StartMinute
		})
	}
	return byDate
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
