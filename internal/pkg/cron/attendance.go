package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// Syncer is the slice of attendance.AttendanceService the jobs need.
type Syncer interface {
	SyncAll(ctx context.Context) (attendance.SyncReport, error)
}

type AttendanceJobs struct {
	syncer  Syncer
	timeout time.Duration
}

func NewAttendanceJobs(syncer Syncer, timeout time.Duration) *AttendanceJobs {
	return &AttendanceJobs{syncer: syncer, timeout: timeout}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, syncSpec string) error {
	return scheduler.AddJob(Job{
		Name:    "attendance_bulk_sync",
		Spec:    syncSpec,
		Timeout: j.timeout,
		Fn:      j.BulkSync,
	})
}

// BulkSync rebuilds attendance from all stored scans. Per-day failures are logged by the
// sync itself; only a run that could not complete is an error here.
func (j *AttendanceJobs) BulkSync(ctx context.Context) error {
	slog.Info("Cron: Starting attendance bulk sync")

	report, err := j.syncer.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("attendance bulk sync: %w", err)
	}

	if len(report.Failures) > 0 {
		slog.Warn("Cron: Attendance bulk sync finished with failures",
			"failures", len(report.Failures), "created", report.Created, "updated", report.Updated)
		return nil
	}
	slog.Info("Cron: Attendance bulk sync finished",
		"created", report.Created, "updated", report.Updated, "deleted", report.Deleted, "duration", report.Duration)
	return nil
}
