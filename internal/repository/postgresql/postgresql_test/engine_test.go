package postgresql_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	settingsService "github.com/cmlabs-hris/attendance-engine/internal/service/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(setup *TestDatabaseSetup) *attendanceService.AttendanceServiceImpl {
	provider := settingsService.NewCachedProvider(postgresql.NewSettingsRepository(setup.DB), time.Minute)
	return attendanceService.NewAttendanceService(
		postgresql.NewTransactor(setup.DB),
		postgresql.NewAttendanceRepository(setup.DB),
		postgresql.NewScanRepository(setup.DB),
		postgresql.NewEmployeeRepository(setup.DB),
		postgresql.NewLeaveCalendar(setup.DB),
		provider,
		attendanceService.Config{SyncWorkers: 4},
	)
}

func TestEngine_ConcurrentScansConvergeOnOneRecord(t *testing.T) {
	setup := NewTestDatabase(t)
	engine := newEngine(setup)
	ctx := context.Background()

	setup.InsertEmployee(t, "EMP001", "Ayu Lestari")

	stamps := []string{
		"2025-03-10 08:20:00", "2025-03-10 08:05:00", "2025-03-10 09:00:00",
		"2025-03-10 16:00:00", "2025-03-10 17:10:00", "2025-03-10 13:00:00",
	}
	var wg sync.WaitGroup
	errs := make(chan error, len(stamps))
	for _, ts := range stamps {
		wg.Add(1)
		go func(ts string) {
			defer wg.Done()
			_, err := engine.RecordScan(ctx, scan.RecordScanRequest{EmployeeCode: "EMP001", Timestamp: ts})
			errs <- err
		}(ts)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := engine.ListAttendance(ctx, attendance.AttendanceFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Attendances, 1)
	rec := list.Attendances[0]
	assert.Equal(t, "08:05:00", *rec.TimeIn)
	assert.Equal(t, "17:10:00", *rec.TimeOut)
	assert.Equal(t, string(attendance.StatusLate), rec.Status)
	assert.Equal(t, "9.08", *rec.TotalHours)
}

func TestEngine_SyncRebuildsAndCleansUp(t *testing.T) {
	setup := NewTestDatabase(t)
	engine := newEngine(setup)
	scans := postgresql.NewScanRepository(setup.DB)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		code := fmt.Sprintf("EMP%03d", i)
		id := setup.InsertEmployee(t, code, "Employee "+code)
		ids = append(ids, id)
		for _, ts := range []string{"2025-03-10 07:50:00", "2025-03-10 17:30:00"} {
			emp := id
			_, err := scans.Create(ctx, scan.Event{EmployeeCode: code, EmployeeID: &emp, Timestamp: wallClock(ts)})
			require.NoError(t, err)
		}
	}

	report, err := engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Created)
	assert.Empty(t, report.Failures)

	setup.SoftDeleteEmployee(t, ids[0])
	report, err = engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Unchanged)
	assert.Equal(t, 1, report.Deleted)
}

func TestEngine_ScanAndDeleteOfSameDayConverge(t *testing.T) {
	setup := NewTestDatabase(t)
	engine := newEngine(setup)
	ctx := context.Background()

	setup.InsertEmployee(t, "EMP001", "Ayu Lestari")

	for i := 0; i < 10; i++ {
		day := fmt.Sprintf("2025-03-%02d", 10+i)
		first, err := engine.RecordScan(ctx, scan.RecordScanRequest{EmployeeCode: "EMP001", Timestamp: day + " 08:05:00"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := engine.RecordScan(ctx, scan.RecordScanRequest{EmployeeCode: "EMP001", Timestamp: day + " 08:10:00"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := engine.DeleteScan(ctx, first.Scan.ID)
			errs <- err
		}()
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		rec, err := engine.GetAttendance(ctx, first.Attendance.ID)
		require.NoError(t, err)
		require.NotNil(t, rec.TimeIn, day)
		assert.Equal(t, "08:10:00", *rec.TimeIn, day)
	}
}
