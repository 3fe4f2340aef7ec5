// Package report renders a reconciliation summary to CSV or JSON and
// optionally mirrors it into a Google Sheets spreadsheet.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// WriteJSON renders the full summary as indented JSON.
func WriteJSON(w io.Writer, summary *model.ReconciliationSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

// WriteDaysCSV renders the traditional day-level comparison.
func WriteDaysCSV(w io.Writer, summary *model.ReconciliationSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"date", "csv_net_hours", "wfx_total_hours", "discrepancy_hours", "status", "severity",
	}); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	for _, day := range summary.DayResults {
		record := []string{
			day.Date,
			formatHours(day.CSVNetHours),
			formatHours(day.WfxTotalHours),
			formatHours(day.DiscrepancyHours),
			day.Status,
			day.Severity,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("report: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMatchesCSV renders every committed job match across the run.
func WriteMatchesCSV(w io.Writer, summary *model.ReconciliationSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"date", "trip_start", "trip_destination", "job_id", "job_name",
		"confidence", "criteria", "location_score", "time_score",
		"distance_km", "time_offset_minutes",
	}); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	for _, day := range summary.Days {
		for _, m := range day.Matches {
			record := []string{
				day.Date,
				model.ClockString(m.Trip.StartMinute),
				m.Trip.Destination,
				m.Entry.JobID,
				m.Job.Name,
				strconv.FormatFloat(m.Confidence, 'f', 3, 64),
				strings.Join(m.Criteria, "|"),
				strconv.FormatFloat(m.LocationScore, 'f', 3, 64),
				strconv.FormatFloat(m.TimeScore, 'f', 3, 64),
				strconv.FormatFloat(m.DistanceKm, 'f', 1, 64),
				strconv.Itoa(m.TimeOffsetMinutes),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("report: write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAlertsCSV renders the run's alerts in order.
func WriteAlertsCSV(w io.Writer, summary *model.ReconciliationSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"type", "severity", "message"}); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	for _, alert := range summary.Alerts {
		if err := cw.Write([]string{alert.Type, alert.Severity, alert.Message}); err != nil {
			return fmt.Errorf("report: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
