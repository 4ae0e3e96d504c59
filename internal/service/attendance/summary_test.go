package attendance

import (
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func officeHours(breakMinutes int, counted bool) settings.AttendanceSettings {
	return settings.AttendanceSettings{
		RequiredTimeIn:       clock.MustParse("08:00:00"),
		RequiredTimeOut:      clock.MustParse("17:00:00"),
		BreakDurationMinutes: breakMinutes,
		BreakIsCounted:       counted,
	}
}

func TestCalculateSummary_DecisionTable(t *testing.T) {
	cfg := settings.Default()

	cases := []struct {
		name    string
		in, out *clock.TimeOfDay
		status  attendance.Status
		remarks string
		hours   bool
	}{
		{"both present on time", tod("07:55:00"), tod("17:00:00"), attendance.StatusPresent, attendance.RemarksComplete, true},
		{"both present exactly on time", tod("08:00:00"), tod("17:00:00"), attendance.StatusPresent, attendance.RemarksComplete, true},
		{"both present late", tod("08:10:00"), tod("17:00:00"), attendance.StatusLate, attendance.RemarksComplete, true},
		{"missing time out", tod("08:00:00"), nil, attendance.StatusIncomplete, attendance.RemarksMissingTimeOut, false},
		{"missing time in", nil, tod("17:00:00"), attendance.StatusIncomplete, attendance.RemarksMissingTimeIn, false},
		{"missing both", nil, nil, attendance.StatusIncomplete, attendance.RemarksMissingTimeInAndOut, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateSummary(tc.in, tc.out, cfg)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.remarks, got.Remarks)
			if tc.hours {
				assert.NotNil(t, got.TotalHours)
			} else {
				assert.Nil(t, got.TotalHours)
			}
		})
	}
}

func TestTotalHours(t *testing.T) {
	cases := []struct {
		name    string
		in, out string
		cfg     settings.AttendanceSettings
		want    string
	}{
		{"uncounted break docked", "08:00:00", "17:00:00", officeHours(60, false), "8.00"},
		{"counted break kept", "08:00:00", "17:00:00", officeHours(60, true), "9.00"},
		{"early arrival not credited", "07:00:00", "17:00:00", officeHours(0, false), "9.00"},
		{"late arrival counts from arrival", "08:30:00", "17:00:00", officeHours(0, false), "8.50"},
		{"default settings end to end", "08:05:00", "17:10:00", settings.Default(), "9.08"},
		{"partial minutes dropped", "08:00:00", "08:01:59", officeHours(0, false), "0.02"},
		{"out before required start", "06:30:00", "07:30:00", officeHours(0, false), "0.00"},
		{"break larger than the day", "08:00:00", "08:30:00", officeHours(60, false), "0.00"},
		{"five minutes", "08:00:00", "08:05:00", officeHours(0, false), "0.08"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TotalHours(clock.MustParse(tc.in), clock.MustParse(tc.out), tc.cfg)
			assert.Equal(t, tc.want, got.StringFixed(2))
			assert.False(t, got.IsNegative())
		})
	}
}

func TestCalculateSummary_LateAgainstSettings(t *testing.T) {
	cfg := officeHours(60, false)

	late := CalculateSummary(tod("08:10:00"), tod("17:00:00"), cfg)
	assert.Equal(t, attendance.StatusLate, late.Status)

	present := CalculateSummary(tod("07:55:00"), tod("17:00:00"), cfg)
	assert.Equal(t, attendance.StatusPresent, present.Status)
	require.NotNil(t, present.TotalHours)
	assert.Equal(t, "8.00", present.TotalHours.StringFixed(2))
}
