package settings

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

// AttendanceSettings drives the attendance summary. The most recently created row governs.
type AttendanceSettings struct {
	ID                   string
	RequiredTimeIn       clock.TimeOfDay
	RequiredTimeOut      clock.TimeOfDay
	BreakDurationMinutes int
	BreakIsCounted       bool
	CreatedAt            time.Time
}

// Default is substituted when no settings row exists.
func Default() AttendanceSettings {
	return AttendanceSettings{
		RequiredTimeIn:       clock.New(8, 0, 0),
		RequiredTimeOut:      clock.New(22, 0, 0),
		BreakDurationMinutes: 0,
		BreakIsCounted:       false,
	}
}

// IsDefault reports whether s is the built-in fallback rather than a stored row.
func (s AttendanceSettings) IsDefault() bool {
	return s.ID == ""
}
