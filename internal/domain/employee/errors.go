package employee

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrInvalidEmployeeCode = errors.New("invalid employee code format")
)
