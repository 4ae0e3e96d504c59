package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeCreated
	outcomeUpdated
	outcomeOverridden
	outcomeSkipped
)

// RecordScan implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordScan(ctx context.Context, req scan.RecordScanRequest) (attendance.ScanResultResponse, error) {
	req.Location = a.loc
	if err := req.Validate(); err != nil {
		return attendance.ScanResultResponse{}, err
	}

	event := scan.Event{
		EmployeeCode: req.EmployeeCode,
		Timestamp:    req.ParsedTimestamp,
	}
	window := a.classifier.Classify(event.Timestamp)

	var (
		stored  scan.Event
		record  *attendance.Attendance
		warning *string
	)
	err := a.inTx(ctx, "record_scan", func(ctx context.Context) error {
		record, warning = nil, nil

		emp, err := a.employeeRepo.GetByEmployeeCode(ctx, event.EmployeeCode)
		if err != nil && !errors.Is(err, employee.ErrEmployeeNotFound) {
			return fmt.Errorf("failed to resolve employee code: %w", err)
		}

		ev := event
		if err == nil {
			ev.EmployeeID = &emp.ID
		}
		stored, err = a.scanRepo.Create(ctx, ev)
		if err != nil {
			return fmt.Errorf("failed to store scan: %w", err)
		}

		if stored.IsDangling() {
			msg := fmt.Sprintf("employee code %q does not match any employee; scan stored without attendance", ev.EmployeeCode)
			warning = &msg
			return nil
		}

		record, err = a.onScanInserted(ctx, emp, stored, window)
		return err
	})
	if err != nil {
		return attendance.ScanResultResponse{}, err
	}

	if warning != nil {
		slog.Warn("dangling scan recorded", "scan_id", stored.ID, "employee_code", stored.EmployeeCode)
	}

	resp := attendance.ScanResultResponse{
		Scan:    a.mapScanToResponse(stored),
		Window:  window.String(),
		Warning: warning,
	}
	if record != nil {
		mapped := mapAttendanceToResponse(*record)
		resp.Attendance = &mapped
	}
	a.publish(EventScanRecorded, resp)
	return resp, nil
}

// DeleteScan implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteScan(ctx context.Context, id string) (attendance.ScanResultResponse, error) {
	var (
		deleted scan.Event
		record  *attendance.Attendance
	)
	err := a.inTx(ctx, "delete_scan", func(ctx context.Context) error {
		var err error
		deleted, err = a.scanRepo.Delete(ctx, id)
		if err != nil {
			if errors.Is(err, scan.ErrScanNotFound) {
				return scan.ErrScanNotFound
			}
			return fmt.Errorf("failed to delete scan: %w", err)
		}

		record, err = a.onScanDeleted(ctx, deleted)
		return err
	})
	if err != nil {
		return attendance.ScanResultResponse{}, err
	}

	resp := attendance.ScanResultResponse{
		Scan:   a.mapScanToResponse(deleted),
		Window: a.classifier.Classify(deleted.Timestamp).String(),
	}
	if record != nil {
		mapped := mapAttendanceToResponse(*record)
		resp.Attendance = &mapped
	}
	a.publish(EventScanDeleted, resp)
	return resp, nil
}

// onScanInserted folds a freshly stored scan into its employee-day. Must run inside a transaction
// that already holds the scan.
func (a *AttendanceServiceImpl) onScanInserted(ctx context.Context, emp employee.Employee, ev scan.Event, window attendance.Window) (*attendance.Attendance, error) {
	date := ev.Date()

	if window == attendance.WindowUnclassified {
		existing, err := a.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to get attendance: %w", err)
		}
		return existing, nil
	}

	record, result, err := a.upsertDay(ctx, emp.ID, date, func(ctx context.Context, att *attendance.Attendance) error {
		timeIns, timeOuts, err := a.listDayScans(ctx, emp.EmployeeCode, date)
		if err != nil {
			return err
		}
		switch window {
		case attendance.WindowTimeIn:
			att.TimeIn = SelectTimeIn(att.TimeIn, timeIns)
		case attendance.WindowTimeOut:
			att.TimeOut = SelectTimeOut(att.TimeOut, timeOuts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("scan reconciled",
		"scan_id", ev.ID, "employee_id", emp.ID, "date", date.Format(dateLayout),
		"window", window.String(), "outcome", result.String())
	return &record, nil
}

// onScanDeleted repairs the employee-day when the deleted scan was the value in effect. The scan
// must already be gone from the store in the current transaction.
func (a *AttendanceServiceImpl) onScanDeleted(ctx context.Context, ev scan.Event) (*attendance.Attendance, error) {
	window := a.classifier.Classify(ev.Timestamp)
	if window == attendance.WindowUnclassified || ev.IsDangling() {
		return nil, nil
	}

	date := ev.Date()
	cfg, err := a.lockDay(ctx, *ev.EmployeeID, date)
	if err != nil {
		return nil, err
	}

	existing, err := a.attendanceRepo.GetByEmployeeAndDateForUpdate(ctx, *ev.EmployeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	if existing == nil || existing.Status.IsOverride() {
		return existing, nil
	}

	scanned := ev.TimeOfDay()
	current := existing.TimeIn
	if window == attendance.WindowTimeOut {
		current = existing.TimeOut
	}
	if current == nil || *current != scanned {
		return existing, nil
	}

	timeIns, timeOuts, err := a.listDayScans(ctx, ev.EmployeeCode, date)
	if err != nil {
		return nil, err
	}

	next := *existing
	switch window {
	case attendance.WindowTimeIn:
		next.TimeIn = Earliest(timeIns)
	case attendance.WindowTimeOut:
		next.TimeOut = Latest(timeOuts)
	}

	next.ApplySummary(CalculateSummary(next.TimeIn, next.TimeOut, cfg))
	if next.SameState(*existing) {
		return existing, nil
	}

	next.UpdatedAt = a.now()
	if err := a.attendanceRepo.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to update attendance: %w", err)
	}

	slog.Info("attendance repaired after scan deletion",
		"scan_id", ev.ID, "employee_id", next.EmployeeID, "date", date.Format(dateLayout),
		"time_in", clock.Format(next.TimeIn), "time_out", clock.Format(next.TimeOut))
	return &next, nil
}

// lockDay takes the shared settings lock and then the employee-day lock, always in that order,
// and returns the settings that hold until the transaction ends.
func (a *AttendanceServiceImpl) lockDay(ctx context.Context, employeeID string, date time.Time) (settings.AttendanceSettings, error) {
	cfg, err := a.settingsProvider.Locked(ctx)
	if err != nil {
		return settings.AttendanceSettings{}, fmt.Errorf("failed to load attendance settings: %w", err)
	}
	if err := a.attendanceRepo.LockDay(ctx, employeeID, date); err != nil {
		return settings.AttendanceSettings{}, err
	}
	return cfg, nil
}

// listDayScans returns the day's scans split by window. Callers hold the day lock, so every
// committed scan of the day is visible and none can appear or vanish until the lock is released.
func (a *AttendanceServiceImpl) listDayScans(ctx context.Context, employeeCode string, date time.Time) (timeIns, timeOuts []clock.TimeOfDay, err error) {
	events, err := a.scanRepo.ListByEmployeeAndDate(ctx, employeeCode, date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list scans: %w", err)
	}
	timeIns, timeOuts = a.classifier.Split(events)
	return timeIns, timeOuts, nil
}

// upsertDay locks the employee-day, creates its record when absent, lets apply adjust the times
// and re-derives the summary. apply runs under the day lock, so the scans it reads are current.
// Override records are returned untouched.
func (a *AttendanceServiceImpl) upsertDay(ctx context.Context, employeeID string, date time.Time, apply func(ctx context.Context, att *attendance.Attendance) error) (attendance.Attendance, outcome, error) {
	cfg, err := a.lockDay(ctx, employeeID, date)
	if err != nil {
		return attendance.Attendance{}, outcomeUnchanged, err
	}

	existing, err := a.attendanceRepo.GetByEmployeeAndDateForUpdate(ctx, employeeID, date)
	if err != nil {
		return attendance.Attendance{}, outcomeUnchanged, fmt.Errorf("failed to get attendance: %w", err)
	}

	if existing == nil {
		fresh, err := a.newDay(ctx, employeeID, date)
		if err != nil {
			return attendance.Attendance{}, outcomeUnchanged, err
		}
		if !fresh.Status.IsOverride() {
			if err := apply(ctx, &fresh); err != nil {
				return attendance.Attendance{}, outcomeUnchanged, err
			}
			fresh.ApplySummary(CalculateSummary(fresh.TimeIn, fresh.TimeOut, cfg))
		}

		created, ok, err := a.attendanceRepo.CreateIfAbsent(ctx, fresh)
		if err != nil {
			return attendance.Attendance{}, outcomeUnchanged, fmt.Errorf("failed to create attendance: %w", err)
		}
		if ok {
			return created, outcomeCreated, nil
		}

		// A writer that bypasses the day lock created the record between the read and the insert.
		existing, err = a.attendanceRepo.GetByEmployeeAndDateForUpdate(ctx, employeeID, date)
		if err != nil {
			return attendance.Attendance{}, outcomeUnchanged, fmt.Errorf("failed to get attendance: %w", err)
		}
		if existing == nil {
			return attendance.Attendance{}, outcomeUnchanged, attendance.ErrConcurrencyConflict
		}
	}

	if existing.Status.IsOverride() {
		return *existing, outcomeOverridden, nil
	}

	next := *existing
	if err := apply(ctx, &next); err != nil {
		return attendance.Attendance{}, outcomeUnchanged, err
	}
	next.ApplySummary(CalculateSummary(next.TimeIn, next.TimeOut, cfg))
	if next.SameState(*existing) {
		return *existing, outcomeUnchanged, nil
	}

	next.UpdatedAt = a.now()
	if err := a.attendanceRepo.Update(ctx, next); err != nil {
		return attendance.Attendance{}, outcomeUnchanged, fmt.Errorf("failed to update attendance: %w", err)
	}
	return next, outcomeUpdated, nil
}

// newDay builds the record template for an employee-day. Approved leave makes it an on_leave
// override from the start.
func (a *AttendanceServiceImpl) newDay(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	fresh := attendance.Attendance{
		EmployeeID: employeeID,
		Date:       date,
		Status:     attendance.StatusIncomplete,
		Remarks:    attendance.RemarksMissingTimeInAndOut,
	}

	onLeave, err := a.leaveCalendar.IsOnApprovedLeave(ctx, employeeID, date)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to check leave: %w", err)
	}
	if onLeave {
		fresh.Status = attendance.StatusLeave
		fresh.Remarks = attendance.RemarksOnLeave
	}
	return fresh, nil
}

func (o outcome) String() string {
	switch o {
	case outcomeCreated:
		return "created"
	case outcomeUpdated:
		return "updated"
	case outcomeOverridden:
		return "overridden"
	case outcomeSkipped:
		return "skipped"
	}
	return "unchanged"
}
