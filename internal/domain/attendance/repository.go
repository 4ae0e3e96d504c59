package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Methods suffixed ForUpdate lock the row until the surrounding transaction ends.
type AttendanceRepository interface {
	// LockDay serialises writers of one employee-day, whether or not its record exists yet.
	// The lock is held until the surrounding transaction ends.
	LockDay(ctx context.Context, employeeID string, date time.Time) error

	// Create creates a new attendance record; ErrAttendanceAlreadyExists on (employee, date) clash.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// CreateIfAbsent inserts the record unless one exists for its (employee, date).
	// created is false when another writer got there first; the returned record is then zero.
	CreateIfAbsent(ctx context.Context, attendance Attendance) (result Attendance, created bool, err error)

	GetByID(ctx context.Context, id string) (Attendance, error)
	GetByIDForUpdate(ctx context.Context, id string) (Attendance, error)

	// GetByEmployeeAndDate returns nil, nil when no record exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)
	GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)

	Update(ctx context.Context, attendance Attendance) error

	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	// ListRecomputableForUpdate locks and returns every record without an override status.
	ListRecomputableForUpdate(ctx context.Context) ([]Attendance, error)

	// DeleteOrphans removes records whose employee no longer resolves.
	DeleteOrphans(ctx context.Context) (int64, error)

	Delete(ctx context.Context, id string) error
}
