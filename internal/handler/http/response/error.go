package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrMissingClaims):
		Unauthorized(w, "Token is missing required claims")
	case errors.Is(err, auth.ErrAccessDenied):
		Forbidden(w, "Insufficient role for this operation")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAttendanceAlreadyExists):
		Conflict(w, "Attendance record already exists for this employee and date")
	case errors.Is(err, attendance.ErrConcurrencyConflict):
		Conflict(w, "Attendance record is being updated concurrently, please retry")
	case errors.Is(err, attendance.ErrInvalidOverrideStatus):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrStatusNotOverridden):
		Conflict(w, "Attendance status is not overridden")

	// Scan domain errors
	case errors.Is(err, scan.ErrScanNotFound):
		NotFound(w, "Scan event not found")
	case errors.Is(err, scan.ErrInvalidTimestamp):
		BadRequest(w, "Invalid scan timestamp", nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrInvalidEmployeeCode):
		BadRequest(w, "Invalid employee code format", nil)

	// Settings domain errors
	case errors.Is(err, settings.ErrInvalidRequiredRange):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
