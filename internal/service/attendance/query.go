package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
)

func mustParseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	att, err := a.attendanceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	cfg, err := a.settingsProvider.Current(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to load attendance settings: %w", err)
	}

	return mapAttendanceToResponse(verifySummary(att, cfg)), nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	attendances, total, err := a.attendanceRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	cfg, err := a.settingsProvider.Current(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to load attendance settings: %w", err)
	}

	// Map to response
	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, mapAttendanceToResponse(verifySummary(att, cfg)))
	}

	totalPages, showing := paginate(total, filter.Page, filter.Limit)
	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// verifySummary recomputes the summary of a record read from the store. A stored summary that
// disagrees with the stored times is logged and replaced in the returned copy.
func verifySummary(att attendance.Attendance, cfg settings.AttendanceSettings) attendance.Attendance {
	if att.Status.IsOverride() {
		return att
	}
	want := CalculateSummary(att.TimeIn, att.TimeOut, cfg)
	if want.Equal(att.Summary()) {
		return att
	}

	slog.Warn("attendance summary inconsistent with stored times, serving recomputed summary",
		"attendance_id", att.ID, "employee_id", att.EmployeeID, "date", att.Date.Format(dateLayout),
		"stored_status", att.Status, "computed_status", want.Status)
	att.ApplySummary(want)
	return att
}

// GetScan implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetScan(ctx context.Context, id string) (scan.ScanResponse, error) {
	ev, err := a.scanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, scan.ErrScanNotFound) {
			return scan.ScanResponse{}, scan.ErrScanNotFound
		}
		return scan.ScanResponse{}, fmt.Errorf("failed to get scan: %w", err)
	}
	return a.mapScanToResponse(ev), nil
}

// ListScans implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListScans(ctx context.Context, filter scan.ScanFilter) (scan.ListScanResponse, error) {
	if err := filter.Validate(); err != nil {
		return scan.ListScanResponse{}, err
	}

	events, total, err := a.scanRepo.List(ctx, filter)
	if err != nil {
		return scan.ListScanResponse{}, fmt.Errorf("failed to list scans: %w", err)
	}

	responses := make([]scan.ScanResponse, 0, len(events))
	for _, ev := range events {
		responses = append(responses, a.mapScanToResponse(ev))
	}

	totalPages, showing := paginate(total, filter.Page, filter.Limit)
	return scan.ListScanResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Scans:      responses,
	}, nil
}
