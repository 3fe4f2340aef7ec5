package wfx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	assert.NoError(t, err)
	return c
}

func TestFetchTimesheets(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time.api/list", r.URL.Path)
		assert.Equal(t, "staff-1", r.URL.Query().Get("staff"))
		assert.Equal(t, "2024-03-04", r.URL.Query().Get("from"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"times": [
				{"id": "t1", "staff_id": "staff-1", "date": "2024-03-04", "job_id": "J1", "minutes": 55, "start": "09:05"},
				{"id": "t2", "staff_id": "staff-1", "date": "2024-03-04", "job_id": "J2", "minutes": 120}
			]
		}`))
	})

	from := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	entries, err := c.FetchTimesheets(context.Background(), "staff-1", from, to)

	assert.NoError(t, err)
	if assert.Len(t, entries, 2) {
		assert.Equal(t, 9*60+5, entries[0].StartMinute)
		assert.True(t, entries[0].HasDeclaredStart())
		assert.Equal(t, -1, entries[1].StartMinute)
		assert.False(t, entries[1].HasDeclaredStart())
	}
}

func TestFetchJobDetails(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job.api/get/J100", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"job": {
				"id": "J100",
				"name": "Office fitout",
				"address": "123 Main Street",
				"client": {"name": "Acme Pty Ltd"},
				"category": "construction"
			}
		}`))
	})

	job, err := c.FetchJobDetails(context.Background(), "J100")

	assert.NoError(t, err)
	assert.Equal(t, "J100", job.ID)
	assert.Equal(t, "123 Main Street", job.Address)
	assert.Equal(t, "Acme Pty Ltd", job.Client)
	assert.False(t, job.Placeholder)
}

func TestFetchJobDetailsAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "job not found", http.StatusNotFound)
	})

	_, err := c.FetchJobDetails(context.Background(), "J404")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://example.test"})
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"09:05", 9*60 + 5},
		{"00:00", 0},
		{"23:59", 23*60 + 59},
		{"", -1},
		{"garbage", -1},
		{"25:00", -1},
		{"09:75", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseClock(tt.input), "parseClock(%q)", tt.input)
	}
}

func TestGroupByDate(t *testing.T) {
	entries := []*model.TimesheetEntry{
		{ID: "t1", StaffID: "s", Date: "2024-03-04", JobID: "J1", Minutes: 60, StartMinute: 600},
		{ID: "t2", StaffID: "s", Date: "2024-03-04", JobID: "J2", Minutes: 30, StartMinute: 540},
		{ID: "t3", StaffID: "s", Date: "2024-03-05", JobID: "J1", Minutes: 45, StartMinute: -1},
	}

	byDate := GroupByDate(entries)

	assert.Len(t, byDate, 2)
	day := byDate["2024-03-04"]
	if assert.NotNil(t, day) {
		assert.Equal(t, 90, day.TotalMinutes)
		assert.Equal(t, []string{"J1", "J2"}, day.JobIDs)
		// Sorted by start time.
		assert.Equal(t, "t2", day.Entries[0].ID)
	}
	assert.Equal(t, 45, byDate["2024-03-05"].TotalMinutes)
}
