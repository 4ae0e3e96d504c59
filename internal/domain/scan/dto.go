package scan

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// SCAN DTOs
// ========================================

type RecordScanRequest struct {
	EmployeeCode string `json:"employee_code"`
	Timestamp    string `json:"timestamp"` // YYYY-MM-DD HH:MM:SS (device local) or RFC3339

	// Location interprets zone-less timestamps and converts RFC3339 ones. Nil means UTC.
	Location        *time.Location `json:"-"`
	ParsedTimestamp time.Time      `json:"-"`
}

func (r *RecordScanRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_code",
			Message: "employee_code is required",
		})
	} else if !validator.IsValidEmployeeCode(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_code",
			Message: "employee_code must be 1-32 characters of letters, digits, '.', '_' or '-'",
		})
	}

	if validator.IsEmpty(r.Timestamp) {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	} else if ts, ok := validator.ParseScanTimestamp(r.Timestamp, r.Location); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be in YYYY-MM-DD HH:MM:SS or RFC3339 format",
		})
	} else {
		r.ParsedTimestamp = ts
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ScanResponse struct {
	ID           string  `json:"id"`
	EmployeeCode string  `json:"employee_code"`
	EmployeeID   *string `json:"employee_id,omitempty"`
	Timestamp    string  `json:"timestamp"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Window       string  `json:"window"`
	Dangling     bool    `json:"dangling"`
	CreatedAt    string  `json:"created_at"`
}

type ScanFilter struct {
	EmployeeCode *string `json:"employee_code,omitempty"`
	Date         *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	DanglingOnly bool    `json:"dangling_only"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ScanFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 200",
		})
	}

	for field, value := range map[string]*string{"date": f.Date, "start_date": f.StartDate, "end_date": f.EndDate} {
		if value != nil && *value != "" {
			if _, valid := validator.IsValidDate(*value); !valid {
				errs = append(errs, validator.ValidationError{
					Field:   field,
					Message: field + " must be in YYYY-MM-DD format",
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListScanResponse struct {
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	Showing    string         `json:"showing"`
	Scans      []ScanResponse `json:"scans"`
}
