package attendance

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// CalculateSummary derives status, remarks and total hours from a day's times.
// It must not be applied to records carrying an override status.
func CalculateSummary(timeIn, timeOut *clock.TimeOfDay, cfg settings.AttendanceSettings) attendance.Summary {
	switch {
	case timeIn != nil && timeOut != nil:
		status := attendance.StatusPresent
		if timeIn.After(cfg.RequiredTimeIn) {
			status = attendance.StatusLate
		}
		hours := TotalHours(*timeIn, *timeOut, cfg)
		return attendance.Summary{Status: status, Remarks: attendance.RemarksComplete, TotalHours: &hours}
	case timeIn != nil:
		return attendance.Summary{Status: attendance.StatusIncomplete, Remarks: attendance.RemarksMissingTimeOut}
	case timeOut != nil:
		return attendance.Summary{Status: attendance.StatusIncomplete, Remarks: attendance.RemarksMissingTimeIn}
	}
	return attendance.Summary{Status: attendance.StatusIncomplete, Remarks: attendance.RemarksMissingTimeInAndOut}
}

// TotalHours counts whole minutes from max(timeIn, required time in) to timeOut, docks an
// uncounted break once, and rounds the hours to two places. Never negative.
func TotalHours(timeIn, timeOut clock.TimeOfDay, cfg settings.AttendanceSettings) decimal.Decimal {
	workStart := timeIn
	if cfg.RequiredTimeIn.After(workStart) {
		workStart = cfg.RequiredTimeIn
	}

	minutes := int64(timeOut.Sub(workStart).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	if !cfg.BreakIsCounted {
		minutes -= int64(cfg.BreakDurationMinutes)
		if minutes < 0 {
			minutes = 0
		}
	}

	return decimal.NewFromInt(minutes).Div(minutesPerHour).Round(2)
}
