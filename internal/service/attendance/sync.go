package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"golang.org/x/sync/errgroup"
)

// scanGroup is every scan of one employee code on one day.
type scanGroup struct {
	employeeCode string
	date         time.Time
	events       []scan.Event
}

// groupScans keeps the order in which (code, day) pairs first appear.
func groupScans(events []scan.Event) []scanGroup {
	type key struct {
		code string
		date time.Time
	}
	index := make(map[key]int)
	var groups []scanGroup
	for _, ev := range events {
		k := key{code: ev.EmployeeCode, date: ev.Date()}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, scanGroup{employeeCode: k.code, date: k.date})
		}
		groups[i].events = append(groups[i].events, ev)
	}
	return groups
}

// SyncAll implements attendance.AttendanceService.
// Each employee-day is reconciled in its own transaction; orphan cleanup runs only after every
// group has finished. A failing group is reported, never fatal.
func (a *AttendanceServiceImpl) SyncAll(ctx context.Context) (attendance.SyncReport, error) {
	started := a.now()
	report := attendance.SyncReport{
		StartedAt: started.Format(time.RFC3339),
		Failures:  []attendance.SyncFailure{},
	}

	events, err := a.scanRepo.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list scans: %w", err)
	}
	groups := groupScans(events)

	employees, err := a.resolveEmployees(ctx, groups, &report)
	if err != nil {
		return report, err
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.syncWorkers)

	for _, grp := range groups {
		emp, ok := employees[grp.employeeCode]
		if !ok {
			report.Dangling++
			continue
		}

		if !a.hasClassified(grp.events) {
			report.Skipped++
			continue
		}

		g.Go(func() error {
			result, err := a.syncGroup(gCtx, emp, grp.date)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("failed to sync attendance",
					"employee_code", grp.employeeCode, "date", grp.date.Format(dateLayout), "error", err)
				report.Failures = append(report.Failures, attendance.SyncFailure{
					EmployeeCode: grp.employeeCode,
					Date:         grp.date.Format(dateLayout),
					Error:        err.Error(),
				})
				return nil
			}
			switch result {
			case outcomeSkipped:
				report.Skipped++
			case outcomeCreated:
				report.Created++
			case outcomeUpdated:
				report.Updated++
			case outcomeOverridden:
				report.Overridden++
			default:
				report.Unchanged++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	var deleted int64
	err = a.withRetry(ctx, "delete_orphans", func(ctx context.Context) error {
		var err error
		deleted, err = a.attendanceRepo.DeleteOrphans(ctx)
		return err
	})
	if err != nil {
		return report, fmt.Errorf("failed to delete orphaned attendance: %w", err)
	}
	report.Deleted = int(deleted)
	report.Duration = a.now().Sub(started).String()

	slog.Info("attendance sync finished",
		"created", report.Created, "updated", report.Updated, "deleted", report.Deleted,
		"unchanged", report.Unchanged, "skipped", report.Skipped, "dangling", report.Dangling,
		"overridden", report.Overridden, "linked_scans", report.Linked,
		"failures", len(report.Failures), "duration", report.Duration)
	a.publish(EventSyncCompleted, report)
	return report, nil
}

// errDayEmptied stops a sync group whose classified scans were all deleted after the snapshot.
var errDayEmptied = errors.New("no classified scans left for the day")

// syncGroup reconciles one employee-day in its own transaction. The snapshot only nominates the
// day: its scans are listed again under the day lock, so scans stored or deleted since the
// snapshot are accounted for.
func (a *AttendanceServiceImpl) syncGroup(ctx context.Context, emp employee.Employee, date time.Time) (outcome, error) {
	var result outcome
	err := a.inTx(ctx, "sync_group", func(ctx context.Context) error {
		var err error
		_, result, err = a.upsertDay(ctx, emp.ID, date, func(ctx context.Context, att *attendance.Attendance) error {
			timeIns, timeOuts, err := a.listDayScans(ctx, emp.EmployeeCode, date)
			if err != nil {
				return err
			}
			if len(timeIns) == 0 && len(timeOuts) == 0 {
				return errDayEmptied
			}
			att.TimeIn = SelectTimeIn(att.TimeIn, timeIns)
			att.TimeOut = SelectTimeOut(att.TimeOut, timeOuts)
			return nil
		})
		if errors.Is(err, errDayEmptied) {
			result = outcomeSkipped
			return nil
		}
		return err
	})
	return result, err
}

// hasClassified reports whether any scan falls in a window. Groups without one contribute
// nothing and get no record.
func (a *AttendanceServiceImpl) hasClassified(events []scan.Event) bool {
	for _, ev := range events {
		if a.classifier.Classify(ev.Timestamp) != attendance.WindowUnclassified {
			return true
		}
	}
	return false
}

// resolveEmployees looks every distinct code up once and links dangling scans whose code now
// resolves. Codes that do not resolve are left out of the result.
func (a *AttendanceServiceImpl) resolveEmployees(ctx context.Context, groups []scanGroup, report *attendance.SyncReport) (map[string]employee.Employee, error) {
	employees := make(map[string]employee.Employee)
	seen := make(map[string]bool)

	for _, grp := range groups {
		code := grp.employeeCode
		if !seen[code] {
			seen[code] = true
			emp, err := a.employeeRepo.GetByEmployeeCode(ctx, code)
			if err != nil {
				if errors.Is(err, employee.ErrEmployeeNotFound) {
					continue
				}
				return nil, fmt.Errorf("failed to resolve employee code %q: %w", code, err)
			}
			employees[code] = emp
		}

		emp, ok := employees[code]
		if !ok || !hasDangling(grp.events) {
			continue
		}
		linked, err := a.scanRepo.AssignEmployee(ctx, code, emp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to link scans of %q: %w", code, err)
		}
		report.Linked += linked
	}
	return employees, nil
}

func hasDangling(events []scan.Event) bool {
	for _, ev := range events {
		if ev.IsDangling() {
			return true
		}
	}
	return false
}

// RecomputeAll implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecomputeAll(ctx context.Context) (int, error) {
	var updated int
	err := a.inTx(ctx, "recompute_all", func(ctx context.Context) error {
		cfg, err := a.settingsProvider.Locked(ctx)
		if err != nil {
			return fmt.Errorf("failed to load attendance settings: %w", err)
		}
		updated, err = a.RecomputeWith(ctx, cfg)
		return err
	})
	if err != nil {
		return 0, err
	}
	a.publish(EventSettingsRecomputed, attendance.RecomputeResponse{Recomputed: updated})
	return updated, nil
}

// RecomputeWith re-derives every non-override record's summary from cfg and returns how many
// changed. It joins the transaction in ctx when there is one.
func (a *AttendanceServiceImpl) RecomputeWith(ctx context.Context, cfg settings.AttendanceSettings) (int, error) {
	var updated int
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		updated = 0

		records, err := a.attendanceRepo.ListRecomputableForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}

		now := a.now()
		for _, att := range records {
			next := att
			next.ApplySummary(CalculateSummary(att.TimeIn, att.TimeOut, cfg))
			if next.SameState(att) {
				continue
			}
			next.UpdatedAt = now
			if err := a.attendanceRepo.Update(ctx, next); err != nil {
				return fmt.Errorf("failed to update attendance %s: %w", att.ID, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("attendance summaries recomputed", "updated", updated)
	return updated, nil
}
