package settings

import (
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type CreateSettingsRequest struct {
	RequiredTimeIn       string `json:"required_time_in"`  // HH:MM:SS
	RequiredTimeOut      string `json:"required_time_out"` // HH:MM:SS
	BreakDurationMinutes int    `json:"break_duration_minutes"`
	BreakIsCounted       bool   `json:"break_is_counted"`
}

func (r *CreateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	timeIn, errIn := clock.Parse(r.RequiredTimeIn)
	if errIn != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "required_time_in",
			Message: "required_time_in must be in HH:MM:SS format",
		})
	}

	timeOut, errOut := clock.Parse(r.RequiredTimeOut)
	if errOut != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "required_time_out",
			Message: "required_time_out must be in HH:MM:SS format",
		})
	}

	if errIn == nil && errOut == nil && !timeOut.After(timeIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "required_time_out",
			Message: ErrInvalidRequiredRange.Error(),
		})
	}

	if r.BreakDurationMinutes < 0 || r.BreakDurationMinutes > 24*60 {
		errs = append(errs, validator.ValidationError{
			Field:   "break_duration_minutes",
			Message: "break_duration_minutes must be between 0 and 1440",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToEntity converts a validated request.
func (r CreateSettingsRequest) ToEntity() AttendanceSettings {
	return AttendanceSettings{
		RequiredTimeIn:       clock.MustParse(r.RequiredTimeIn),
		RequiredTimeOut:      clock.MustParse(r.RequiredTimeOut),
		BreakDurationMinutes: r.BreakDurationMinutes,
		BreakIsCounted:       r.BreakIsCounted,
	}
}

type SettingsResponse struct {
	ID                   *string `json:"id,omitempty"`
	RequiredTimeIn       string  `json:"required_time_in"`
	RequiredTimeOut      string  `json:"required_time_out"`
	BreakDurationMinutes int     `json:"break_duration_minutes"`
	BreakIsCounted       bool    `json:"break_is_counted"`
	IsDefault            bool    `json:"is_default"`
	CreatedAt            *string `json:"created_at,omitempty"`
}

type CreateSettingsResponse struct {
	Settings          SettingsResponse `json:"settings"`
	RecomputedRecords int              `json:"recomputed_records"`
}

func NewSettingsResponse(s AttendanceSettings) SettingsResponse {
	resp := SettingsResponse{
		RequiredTimeIn:       s.RequiredTimeIn.String(),
		RequiredTimeOut:      s.RequiredTimeOut.String(),
		BreakDurationMinutes: s.BreakDurationMinutes,
		BreakIsCounted:       s.BreakIsCounted,
		IsDefault:            s.IsDefault(),
	}
	if !s.IsDefault() {
		id := s.ID
		createdAt := s.CreatedAt.Format("2006-01-02 15:04:05")
		resp.ID = &id
		resp.CreatedAt = &createdAt
	}
	return resp
}
