package attendance

import (
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type AttendanceResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeCode *string `json:"employee_code,omitempty"`
	EmployeeName *string `json:"employee_name,omitempty"`
	Date         string  `json:"date"`
	TimeIn       *string `json:"time_in"`
	TimeOut      *string `json:"time_out"`
	Status       string  `json:"status"`
	Remarks      string  `json:"remarks"`
	TotalHours   *string `json:"total_hours"`
	IsOverride   bool    `json:"is_override"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type AttendanceFilter struct {
	// Search & Filter
	EmployeeID   *string `json:"employee_id,omitempty"`
	EmployeeCode *string `json:"employee_code,omitempty"`
	Date         *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status       *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, employee_code, time_in, time_out, status
	SortOrder string `json:"sort_order"` // asc, desc
}

var validStatuses = []string{
	string(StatusPresent), string(StatusLate), string(StatusIncomplete),
	string(StatusAbsent), string(StatusLeave), string(StatusHoliday),
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + strings.Join(validStatuses, ", "),
			})
		}
	}

	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.SortBy != "" {
		validSortFields := []string{"date", "employee_code", "time_in", "time_out", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, employee_code, time_in, time_out, status",
			})
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // newest first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

// CreateAttendanceRequest records a day manually, e.g. for an employee whose device was down.
type CreateAttendanceRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`               // YYYY-MM-DD
	TimeIn     *string `json:"time_in,omitempty"`  // HH:MM:SS
	TimeOut    *string `json:"time_out,omitempty"` // HH:MM:SS
}

func (r *CreateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	errs = append(errs, validateOptionalTime("time_in", r.TimeIn)...)
	errs = append(errs, validateOptionalTime("time_out", r.TimeOut)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UpdateAttendanceRequest for admin/manager to correct recorded times.
// A nil time leaves the field alone; the Clear flags null it.
type UpdateAttendanceRequest struct {
	ID           string  `json:"-"`
	TimeIn       *string `json:"time_in,omitempty"`  // HH:MM:SS
	TimeOut      *string `json:"time_out,omitempty"` // HH:MM:SS
	ClearTimeIn  bool    `json:"clear_time_in"`
	ClearTimeOut bool    `json:"clear_time_out"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateOptionalTime("time_in", r.TimeIn)...)
	errs = append(errs, validateOptionalTime("time_out", r.TimeOut)...)

	if r.ClearTimeIn && r.TimeIn != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "clear_time_in",
			Message: "clear_time_in cannot be combined with time_in",
		})
	}
	if r.ClearTimeOut && r.TimeOut != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "clear_time_out",
			Message: "clear_time_out cannot be combined with time_out",
		})
	}
	if r.TimeIn == nil && r.TimeOut == nil && !r.ClearTimeIn && !r.ClearTimeOut {
		errs = append(errs, validator.ValidationError{
			Field:   "time_in",
			Message: "at least one of time_in, time_out, clear_time_in, clear_time_out is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// StatusOverrideRequest marks a day absent, on leave or holiday.
type StatusOverrideRequest struct {
	ID      string  `json:"-"`
	Status  string  `json:"status"`
	Remarks *string `json:"remarks,omitempty"`
}

func (r *StatusOverrideRequest) Validate() error {
	var errs validator.ValidationErrors

	if !Status(r.Status).IsOverride() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: ErrInvalidOverrideStatus.Error(),
		})
	}

	if r.Remarks != nil && len(*r.Remarks) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "remarks",
			Message: "remarks must not exceed 255 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateOptionalTime(field string, value *string) validator.ValidationErrors {
	if value == nil {
		return nil
	}
	if _, err := clock.Parse(*value); err != nil {
		return validator.ValidationErrors{{
			Field:   field,
			Message: field + " must be in HH:MM:SS format",
		}}
	}
	return nil
}

// ========================================
// RECONCILIATION DTOs
// ========================================

// ScanResultResponse is returned by RecordScan and DeleteScan. Attendance is nil when the scan
// touched no record (unclassified, dangling, or no record for the day).
type ScanResultResponse struct {
	Scan       scan.ScanResponse   `json:"scan"`
	Window     string              `json:"window"`
	Attendance *AttendanceResponse `json:"attendance,omitempty"`
	Warning    *string             `json:"warning,omitempty"`
}

type SyncFailure struct {
	EmployeeCode string `json:"employee_code"`
	Date         string `json:"date"`
	Error        string `json:"error"`
}

// SyncReport summarises one SyncAll run.
type SyncReport struct {
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Deleted    int           `json:"deleted"`
	Unchanged  int           `json:"unchanged"`
	Skipped    int           `json:"skipped"` // groups holding only unclassified scans
	Dangling   int           `json:"dangling"`
	Overridden int           `json:"overridden"`
	Linked     int64         `json:"linked_scans"`
	Failures   []SyncFailure `json:"failures"`
	StartedAt  string        `json:"started_at"`
	Duration   string        `json:"duration"`
}

type RecomputeResponse struct {
	Recomputed int `json:"recomputed"`
}
