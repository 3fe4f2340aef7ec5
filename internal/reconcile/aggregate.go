package reconcile

import (
	"fmt"

	"github.com/Haokaiiii/WFX-Timesheet/internal/match"
	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// Accuracy thresholds below which run-level alerts fire.
const (
	locationAccuracyFloor = 70.0
	timeAccuracyFloor     = 60.0
)

// finalize computes the run-level metrics and derives alerts once all
// days have been folded in.
func finalize(summary *model.ReconciliationSummary, thresholds *match.Thresholds) {
	// Completion-rate proxies: the fraction of each side successfully
	// matched. Names kept from the reporting layer they feed.
	summary.LocationMatchAccuracy = completionRate(summary.MatchedJobs, summary.UnmatchedEntries)
	summary.TimeMatchAccuracy = completionRate(summary.MatchedJobs, summary.UnmatchedTrips)

	for _, result := range summary.DayResults {
		if result.Status == model.DayStatusMatched {
			summary.MatchedDays++
		}
	}
	if summary.TotalDays > 0 {
		summary.DayAccuracy = float64(summary.MatchedDays) / float64(summary.TotalDays) * 100.0
	}

	deriveAlerts(summary)
}

// completionRate is matched / (matched + unmatched) as a percentage,
// 0 when there is nothing to rate.
func completionRate(matched, unmatched int) float64 {
	total := matched + unmatched
	if total == 0 {
		return 0.0
	}
	return float64(matched) / float64(total) * 100.0
}

// deriveAlerts appends the run-level alerts: low accuracies, unmatched
// residuals, and one summarized alert per day carrying high-severity
// discrepancies.
func deriveAlerts(summary *model.ReconciliationSummary) {
	if summary.MatchedJobs+summary.UnmatchedEntries > 0 && summary.LocationMatchAccuracy < locationAccuracyFloor {
		summary.Alerts = append(summary.Alerts, &model.Alert{
			Type:     "low_location_accuracy",
			Message:  fmt.Sprintf("location match accuracy %.1f%% is below %.0f%%", summary.LocationMatchAccuracy, locationAccuracyFloor),
			Severity: model.SeverityHigh,
		})
	}
	if summary.MatchedJobs+summary.UnmatchedTrips > 0 && summary.TimeMatchAccuracy < timeAccuracyFloor {
		summary.Alerts = append(summary.Alerts, &model.Alert{
			Type:     "low_time_accuracy",
			Message:  fmt.Sprintf("time match accuracy %.1f%% is below %.0f%%", summary.TimeMatchAccuracy, timeAccuracyFloor),
			Severity: model.SeverityMedium,
		})
	}

	if summary.UnmatchedTrips > 0 {
		summary.Alerts = append(summary.Alerts, &model.Alert{
			Type:     "unmatched_trips",
			Message:  fmt.Sprintf("%d work trips have no matching timesheet entry", summary.UnmatchedTrips),
			Severity: model.SeverityMedium,
		})
	}
	if summary.UnmatchedEntries > 0 {
		summary.Alerts = append(summary.Alerts, &model.Alert{
			Type:     "unmatched_entries",
			Message:  fmt.Sprintf("%d timesheet entries have no matching trip", summary.UnmatchedEntries),
			Severity: model.SeverityMedium,
		})
	}

	for _, day := range summary.Days {
		high := 0
		for _, d := range day.TimeDiscrepancies {
			if d.Severity == model.SeverityHigh {
				high++
			}
		}
		for _, d := range day.LocationDiscrepancies {
			if d.Severity == model.SeverityHigh {
				high++
			}
		}
		if high > 0 {
			summary.Alerts = append(summary.Alerts, &model.Alert{
				Type:     "high_discrepancy_day",
				Message:  fmt.Sprintf("%s has %d high-severity discrepancies", day.Date, high),
				Severity: model.SeverityHigh,
			})
		}
	}
}
