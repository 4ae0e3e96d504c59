package scan

import (
	"context"
	"time"
)

type ScanRepository interface {
	Create(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id string) (Event, error)

	// Delete removes the scan and returns it as it was stored.
	Delete(ctx context.Context, id string) (Event, error)

	// ListByEmployeeAndDate returns the scans of one employee-day ordered by timestamp.
	ListByEmployeeAndDate(ctx context.Context, employeeCode string, date time.Time) ([]Event, error)

	// ListAll returns every scan ordered by timestamp ascending.
	ListAll(ctx context.Context) ([]Event, error)

	List(ctx context.Context, filter ScanFilter) ([]Event, int64, error)

	// AssignEmployee links dangling scans of employeeCode to employeeID.
	AssignEmployee(ctx context.Context, employeeCode string, employeeID string) (int64, error)
}
