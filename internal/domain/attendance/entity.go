package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent    Status = "present"
	StatusLate       Status = "late"
	StatusIncomplete Status = "incomplete"
	StatusAbsent     Status = "absent"
	StatusLeave      Status = "on_leave"
	StatusHoliday    Status = "holiday"
)

// IsOverride reports whether the status was set by an external authority (leave approval,
// holiday calendar, manual absence). Such records are never recomputed from scans.
func (s Status) IsOverride() bool {
	return s == StatusAbsent || s == StatusLeave || s == StatusHoliday
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusIncomplete, StatusAbsent, StatusLeave, StatusHoliday:
		return true
	}
	return false
}

const (
	RemarksComplete            = "Complete"
	RemarksMissingTimeOut      = "Missing Time Out"
	RemarksMissingTimeIn       = "Missing Time In"
	RemarksMissingTimeInAndOut = "Missing Time In & Time Out"
	RemarksOnLeave             = "On Leave"
	RemarksHoliday             = "Holiday"
	RemarksAbsent              = "Absent"
)

// Window is the half-day interval a scan's time of day falls into.
type Window int

const (
	WindowUnclassified Window = iota
	WindowTimeIn
	WindowTimeOut
)

func (w Window) String() string {
	switch w {
	case WindowTimeIn:
		return "time_in"
	case WindowTimeOut:
		return "time_out"
	}
	return "unclassified"
}

// Summary is the derived part of an attendance record.
type Summary struct {
	Status     Status
	Remarks    string
	TotalHours *decimal.Decimal
}

func (s Summary) Equal(o Summary) bool {
	if s.Status != o.Status || s.Remarks != o.Remarks {
		return false
	}
	if s.TotalHours == nil || o.TotalHours == nil {
		return s.TotalHours == nil && o.TotalHours == nil
	}
	return s.TotalHours.Equal(*o.TotalHours)
}

// Attendance is the canonical record of one employee-day.
type Attendance struct {
	ID         string
	EmployeeID string
	Date       time.Time
	TimeIn     *clock.TimeOfDay
	TimeOut    *clock.TimeOfDay
	Status     Status
	Remarks    string
	TotalHours *decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// DTO
	EmployeeCode *string
	EmployeeName *string
}

func (a Attendance) Summary() Summary {
	return Summary{Status: a.Status, Remarks: a.Remarks, TotalHours: a.TotalHours}
}

func (a *Attendance) ApplySummary(s Summary) {
	a.Status = s.Status
	a.Remarks = s.Remarks
	a.TotalHours = s.TotalHours
}

// SameState reports whether a and b hold the same times and summary.
func (a Attendance) SameState(b Attendance) bool {
	return clock.Equal(a.TimeIn, b.TimeIn) &&
		clock.Equal(a.TimeOut, b.TimeOut) &&
		a.Summary().Equal(b.Summary())
}
