package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

// leaveCalendarImpl reads approved leave from the leave module's table.
type leaveCalendarImpl struct {
	db *database.DB
}

func NewLeaveCalendar(db *database.DB) leave.LeaveCalendar {
	return &leaveCalendarImpl{db: db}
}

// IsOnApprovedLeave implements leave.LeaveCalendar.
func (r *leaveCalendarImpl) IsOnApprovedLeave(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	if !isUUID(employeeID) {
		return false, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM leave_requests
			WHERE employee_id = $1
			AND status = $2
			AND start_date <= $3 AND end_date >= $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, string(leave.LeaveRequestStatusApproved), date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check approved leave: %w", translateError(err))
	}
	return exists, nil
}
