package report

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// SheetsUploader mirrors run summaries into a Google Sheets
// spreadsheet, one row per day.
type SheetsUploader struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewSheetsUploader creates the uploader from a service-account
// credentials file.
func NewSheetsUploader(ctx context.Context, credentialsPath, spreadsheetID string) (*SheetsUploader, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("sheets: credentials path is required")
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	return &SheetsUploader{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// Upload appends one row per reconciled day plus a run footer to the
// "Reconciliation" sheet.
func (u *SheetsUploader) Upload(ctx context.Context, summary *model.ReconciliationSummary) error {
	values := make([][]interface{}, 0, len(summary.DayResults)+1)
	for _, day := range summary.DayResults {
		values = append(values, []interface{}{
			summary.RunID,
			day.Date,
			day.CSVNetHours,
			day.WfxTotalHours,
			day.DiscrepancyHours,
			day.Status,
			day.Severity,
		})
	}
	values = append(values, []interface{}{
		summary.RunID,
		"run total",
		summary.MatchedJobs,
		summary.UnmatchedTrips,
		summary.UnmatchedEntries,
		fmt.Sprintf("location %.1f%% / time %.1f%%", summary.LocationMatchAccuracy, summary.TimeMatchAccuracy),
		strings.ToLower(worstAlertSeverity(summary.Alerts)),
	})

	valueRange := &sheets.ValueRange{Values: values}
	_, err := u.service.Spreadsheets.Values.Append(u.spreadsheetID, "Reconciliation!A:G", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append values: %w", err)
	}
	return nil
}

func worstAlertSeverity(alerts []*model.Alert) string {
	worst := ""
	rank := map[string]int{model.SeverityLow: 1, model.SeverityMedium: 2, model.SeverityHigh: 3}
	for _, alert := range alerts {
		if rank[alert.Severity] > rank[worst] {
			worst = alert.Severity
		}
	}
	if worst == "" {
		worst = "none"
	}
	return worst
}
