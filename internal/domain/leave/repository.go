package leave

import (
	"context"
	"time"
)

// LeaveCalendar answers whether an employee is on approved leave. Leave requests are owned by
// the leave module; attendance only reads them.
type LeaveCalendar interface {
	IsOnApprovedLeave(ctx context.Context, employeeID string, date time.Time) (bool, error)
}
