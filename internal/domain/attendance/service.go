package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
)

// AttendanceService defines the attendance reconciliation operations.
type AttendanceService interface {
	// RecordScan stores a scan and reconciles the employee-day it belongs to.
	RecordScan(ctx context.Context, req scan.RecordScanRequest) (ScanResultResponse, error)

	// DeleteScan removes a scan and repairs the record if the scan was the value in effect.
	DeleteScan(ctx context.Context, id string) (ScanResultResponse, error)

	GetScan(ctx context.Context, id string) (scan.ScanResponse, error)
	ListScans(ctx context.Context, filter scan.ScanFilter) (scan.ListScanResponse, error)

	// SyncAll rebuilds attendance from every stored scan and removes orphaned records.
	SyncAll(ctx context.Context) (SyncReport, error)

	// RecomputeAll re-derives the summary of every non-override record from current settings.
	RecomputeAll(ctx context.Context) (int, error)

	// CreateAttendance creates a manual record for a day without one.
	CreateAttendance(ctx context.Context, req CreateAttendanceRequest) (AttendanceResponse, error)

	// UpdateAttendance edits times manually (fixing a forgotten clock-out, etc).
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)

	SetStatusOverride(ctx context.Context, req StatusOverrideRequest) (AttendanceResponse, error)

	// ClearStatusOverride drops an override and rebuilds the day from its scans.
	ClearStatusOverride(ctx context.Context, id string) (AttendanceResponse, error)

	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
	DeleteAttendance(ctx context.Context, id string) error
}
