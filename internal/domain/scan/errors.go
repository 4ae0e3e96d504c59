package scan

import "errors"

var (
	ErrScanNotFound     = errors.New("scan event not found")
	ErrInvalidTimestamp = errors.New("invalid scan timestamp")
)
