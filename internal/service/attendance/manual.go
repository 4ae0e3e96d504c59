package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

func parseOptionalTime(s *string) *clock.TimeOfDay {
	if s == nil {
		return nil
	}
	t := clock.MustParse(*s)
	return &t
}

// CreateAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CreateAttendance(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := a.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return attendance.AttendanceResponse{}, employee.ErrEmployeeNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	date := clock.Date(mustParseDate(req.Date))

	var created attendance.Attendance
	err = a.inTx(ctx, "create_attendance", func(ctx context.Context) error {
		cfg, err := a.lockDay(ctx, emp.ID, date)
		if err != nil {
			return err
		}

		fresh, err := a.newDay(ctx, emp.ID, date)
		if err != nil {
			return err
		}
		fresh.TimeIn = parseOptionalTime(req.TimeIn)
		fresh.TimeOut = parseOptionalTime(req.TimeOut)
		if !fresh.Status.IsOverride() {
			fresh.ApplySummary(CalculateSummary(fresh.TimeIn, fresh.TimeOut, cfg))
		}

		created, err = a.attendanceRepo.Create(ctx, fresh)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceAlreadyExists) {
				return attendance.ErrAttendanceAlreadyExists
			}
			return fmt.Errorf("failed to create attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	created.EmployeeCode = &emp.EmployeeCode
	created.EmployeeName = &emp.FullName
	slog.Info("attendance created manually", "attendance_id", created.ID, "employee_id", emp.ID, "date", req.Date)
	resp := mapAttendanceToResponse(created)
	a.publish(EventAttendanceUpdated, resp)
	return resp, nil
}

// UpdateAttendance implements attendance.AttendanceService.
// Manual times replace the stored ones outright; later scans only improve on them.
func (a *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var updated attendance.Attendance
	err := a.inTx(ctx, "update_attendance", func(ctx context.Context) error {
		cfg, err := a.settingsProvider.Locked(ctx)
		if err != nil {
			return fmt.Errorf("failed to load attendance settings: %w", err)
		}

		att, err := a.lockByID(ctx, req.ID)
		if err != nil {
			return err
		}

		switch {
		case req.ClearTimeIn:
			att.TimeIn = nil
		case req.TimeIn != nil:
			att.TimeIn = parseOptionalTime(req.TimeIn)
		}
		switch {
		case req.ClearTimeOut:
			att.TimeOut = nil
		case req.TimeOut != nil:
			att.TimeOut = parseOptionalTime(req.TimeOut)
		}

		if !att.Status.IsOverride() {
			att.ApplySummary(CalculateSummary(att.TimeIn, att.TimeOut, cfg))
		}
		att.UpdatedAt = a.now()
		if err := a.attendanceRepo.Update(ctx, att); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		updated = att
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance updated manually", "attendance_id", updated.ID,
		"time_in", clock.Format(updated.TimeIn), "time_out", clock.Format(updated.TimeOut))
	return a.readBackAndPublish(ctx, updated.ID)
}

// SetStatusOverride implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SetStatusOverride(ctx context.Context, req attendance.StatusOverrideRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	status := attendance.Status(req.Status)
	remarks := defaultOverrideRemarks(status)
	if req.Remarks != nil && *req.Remarks != "" {
		remarks = *req.Remarks
	}

	err := a.inTx(ctx, "set_status_override", func(ctx context.Context) error {
		att, err := a.lockByID(ctx, req.ID)
		if err != nil {
			return err
		}
		att.ApplySummary(attendance.Summary{Status: status, Remarks: remarks})
		att.UpdatedAt = a.now()
		if err := a.attendanceRepo.Update(ctx, att); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance status overridden", "attendance_id", req.ID, "status", status)
	return a.readBackAndPublish(ctx, req.ID)
}

// ClearStatusOverride implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClearStatusOverride(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	err := a.inTx(ctx, "clear_status_override", func(ctx context.Context) error {
		// The day lock comes before the row lock, as on the scan paths.
		current, err := a.attendanceRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrAttendanceNotFound
			}
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		cfg, err := a.lockDay(ctx, current.EmployeeID, current.Date)
		if err != nil {
			return err
		}

		att, err := a.lockByID(ctx, id)
		if err != nil {
			return err
		}
		if !att.Status.IsOverride() {
			return attendance.ErrStatusNotOverridden
		}

		emp, err := a.employeeRepo.GetByID(ctx, att.EmployeeID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				return employee.ErrEmployeeNotFound
			}
			return fmt.Errorf("failed to get employee: %w", err)
		}

		timeIns, timeOuts, err := a.listDayScans(ctx, emp.EmployeeCode, att.Date)
		if err != nil {
			return err
		}

		att.TimeIn = Earliest(timeIns)
		att.TimeOut = Latest(timeOuts)
		att.ApplySummary(CalculateSummary(att.TimeIn, att.TimeOut, cfg))
		att.UpdatedAt = a.now()
		if err := a.attendanceRepo.Update(ctx, att); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance status override cleared", "attendance_id", id)
	return a.readBackAndPublish(ctx, id)
}

// DeleteAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteAttendance(ctx context.Context, id string) error {
	if err := a.attendanceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.ErrAttendanceNotFound
		}
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	a.publish(EventAttendanceDeleted, map[string]string{"id": id})
	return nil
}

// readBackAndPublish returns the committed record as clients see it and announces it.
func (a *AttendanceServiceImpl) readBackAndPublish(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	resp, err := a.GetAttendance(ctx, id)
	if err != nil {
		return resp, err
	}
	a.publish(EventAttendanceUpdated, resp)
	return resp, nil
}

func (a *AttendanceServiceImpl) lockByID(ctx context.Context, id string) (attendance.Attendance, error) {
	att, err := a.attendanceRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return att, nil
}

func defaultOverrideRemarks(status attendance.Status) string {
	switch status {
	case attendance.StatusLeave:
		return attendance.RemarksOnLeave
	case attendance.StatusHoliday:
		return attendance.RemarksHoliday
	}
	return attendance.RemarksAbsent
}
