package attendance

import "errors"

// Attendance domain errors
var (
	ErrAttendanceNotFound      = errors.New("attendance record not found")
	ErrAttendanceAlreadyExists = errors.New("attendance record already exists for this employee and date")

	// ErrConcurrencyConflict reports a serialization failure, deadlock or lock timeout on an
	// employee-day row. Callers retry a bounded number of times before surfacing it.
	ErrConcurrencyConflict = errors.New("concurrent update on attendance record, please retry")

	ErrInvalidOverrideStatus = errors.New("status must be one of: absent, on_leave, holiday")
	ErrStatusNotOverridden   = errors.New("attendance status is not overridden")
)
