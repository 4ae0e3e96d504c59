package settings

import "errors"

var (
	ErrSettingsNotFound     = errors.New("attendance settings not found")
	ErrInvalidRequiredRange = errors.New("required_time_out must be after required_time_in")
)
