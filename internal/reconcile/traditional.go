package reconcile

import (
	"math"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// traditionalDayResult is the day-level hour comparison, independent of
// job matching: GPS-derived net work hours against billed WFX hours.
// It answers "do the day's hours agree", not "do the jobs line up".
func traditionalDayResult(date string, trips *model.DailyTripSummary, entries *model.DailyTimesheetSummary, hourThreshold float64) *model.DayResult {
	result := &model.DayResult{Date: date}

	if trips != nil {
		result.CSVNetHours = trips.NetWorkHours
	}

	if entries == nil || len(entries.Entries) == 0 {
		result.Status = model.DayStatusMissingWfx
		result.DiscrepancyHours = result.CSVNetHours
		return result
	}
	result.WfxTotalHours = entries.TotalHours()
	result.DiscrepancyHours = result.CSVNetHours - result.WfxTotalHours

	if math.Abs(result.DiscrepancyHours) > hourThreshold {
		result.Status = model.DayStatusDiscrepancy
		result.Severity = model.SeverityMedium
		if math.Abs(result.DiscrepancyHours) >= 2.0 {
			result.Severity = model.SeverityHigh
		}
		return result
	}

	result.Status = model.DayStatusMatched
	return result
}
