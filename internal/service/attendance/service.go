package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

const dateLayout = "2006-01-02"

// Config tunes the engine.
type Config struct {
	Classifier WindowClassifier
	// Location is the zone device timestamps are read in. Nil means UTC.
	Location *time.Location
	// SyncWorkers bounds how many employee-days SyncAll reconciles in parallel.
	SyncWorkers int
	// Events is told about committed changes. Nil disables publishing.
	Events Publisher
}

type AttendanceServiceImpl struct {
	tx               database.Transactor
	attendanceRepo   attendance.AttendanceRepository
	scanRepo         scan.ScanRepository
	employeeRepo     employee.EmployeeRepository
	leaveCalendar    leave.LeaveCalendar
	settingsProvider settings.Provider

	classifier   WindowClassifier
	loc          *time.Location
	syncWorkers  int
	events       Publisher
	retryBackoff []time.Duration
	now          func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	scanRepo scan.ScanRepository,
	employeeRepo employee.EmployeeRepository,
	leaveCalendar leave.LeaveCalendar,
	settingsProvider settings.Provider,
	cfg Config,
) *AttendanceServiceImpl {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	classifier := cfg.Classifier
	if classifier == (WindowClassifier{}) {
		classifier = WindowClassifier{bounds: DefaultWindowBounds()}
	}
	workers := cfg.SyncWorkers
	if workers < 1 {
		workers = 1
	}
	return &AttendanceServiceImpl{
		tx:               tx,
		attendanceRepo:   attendanceRepo,
		scanRepo:         scanRepo,
		employeeRepo:     employeeRepo,
		leaveCalendar:    leaveCalendar,
		settingsProvider: settingsProvider,
		classifier:       classifier,
		loc:              loc,
		syncWorkers:      workers,
		events:           cfg.Events,
		retryBackoff:     defaultRetryBackoff,
		now:              time.Now,
	}
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

// mapAttendanceToResponse converts an Attendance entity to AttendanceResponse
func mapAttendanceToResponse(att attendance.Attendance) attendance.AttendanceResponse {
	var totalHours *string
	if att.TotalHours != nil {
		formatted := att.TotalHours.StringFixed(2)
		totalHours = &formatted
	}

	return attendance.AttendanceResponse{
		ID:           att.ID,
		EmployeeID:   att.EmployeeID,
		EmployeeCode: att.EmployeeCode,
		EmployeeName: att.EmployeeName,
		Date:         att.Date.Format(dateLayout),
		TimeIn:       clock.Format(att.TimeIn),
		TimeOut:      clock.Format(att.TimeOut),
		Status:       string(att.Status),
		Remarks:      att.Remarks,
		TotalHours:   totalHours,
		IsOverride:   att.Status.IsOverride(),
		CreatedAt:    att.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:    att.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (a *AttendanceServiceImpl) mapScanToResponse(ev scan.Event) scan.ScanResponse {
	return scan.ScanResponse{
		ID:           ev.ID,
		EmployeeCode: ev.EmployeeCode,
		EmployeeID:   ev.EmployeeID,
		Timestamp:    ev.Timestamp.Format("2006-01-02 15:04:05"),
		Date:         ev.Date().Format(dateLayout),
		Time:         ev.TimeOfDay().String(),
		Window:       a.classifier.Classify(ev.Timestamp).String(),
		Dangling:     ev.IsDangling(),
		CreatedAt:    ev.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func paginate(total int64, page, limit int) (totalPages int, showing string) {
	totalPages = int(math.Ceil(float64(total) / float64(limit)))
	showing = fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}
	return totalPages, showing
}
