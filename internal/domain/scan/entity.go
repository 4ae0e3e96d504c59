package scan

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

// Event is a raw attendance-device reading. Timestamp holds the device's local wall clock
// (see clock.WallClock); it is never edited after ingestion.
type Event struct {
	ID           string
	EmployeeCode string
	EmployeeID   *string // nil while the code does not resolve to an employee
	Timestamp    time.Time
	CreatedAt    time.Time
}

// Date is the calendar day the scan belongs to.
func (e Event) Date() time.Time {
	return clock.Date(e.Timestamp)
}

func (e Event) TimeOfDay() clock.TimeOfDay {
	return clock.Of(e.Timestamp)
}

func (e Event) IsDangling() bool {
	return e.EmployeeID == nil
}
