package http

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/stretchr/testify/mock"
)

type mockAttendanceService struct {
	mock.Mock
}

var _ attendance.AttendanceService = (*mockAttendanceService)(nil)

func (m *mockAttendanceService) RecordScan(ctx context.Context, req scan.RecordScanRequest) (attendance.ScanResultResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(attendance.ScanResultResponse), args.Error(1)
}

func (m *mockAttendanceService) DeleteScan(ctx context.Context, id string) (attendance.ScanResultResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(attendance.ScanResultResponse), args.Error(1)
}

func (m *mockAttendanceService) GetScan(ctx context.Context, id string) (scan.ScanResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(scan.ScanResponse), args.Error(1)
}

func (m *mockAttendanceService) ListScans(ctx context.Context, filter scan.ScanFilter) (scan.ListScanResponse, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(scan.ListScanResponse), args.Error(1)
}

func (m *mockAttendanceService) SyncAll(ctx context.Context) (attendance.SyncReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(attendance.SyncReport), args.Error(1)
}

func (m *mockAttendanceService) RecomputeAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAttendanceService) CreateAttendance(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(attendance.AttendanceResponse), args.Error(1)
}

func (m *mockAttendanceService) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(attendance.AttendanceResponse), args.Error(1)
}

func (m *mockAttendanceService) SetStatusOverride(ctx context.Context, req attendance.StatusOverrideRequest) (attendance.AttendanceResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(attendance.AttendanceResponse), args.Error(1)
}

func (m *mockAttendanceService) ClearStatusOverride(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(attendance.AttendanceResponse), args.Error(1)
}

func (m *mockAttendanceService) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(attendance.AttendanceResponse), args.Error(1)
}

func (m *mockAttendanceService) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(attendance.ListAttendanceResponse), args.Error(1)
}

func (m *mockAttendanceService) DeleteAttendance(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockSettingsService struct {
	mock.Mock
}

var _ settings.SettingsService = (*mockSettingsService)(nil)

func (m *mockSettingsService) Current(ctx context.Context) (settings.AttendanceSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(settings.AttendanceSettings), args.Error(1)
}

func (m *mockSettingsService) Locked(ctx context.Context) (settings.AttendanceSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(settings.AttendanceSettings), args.Error(1)
}

func (m *mockSettingsService) GetSettings(ctx context.Context) (settings.SettingsResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(settings.SettingsResponse), args.Error(1)
}

func (m *mockSettingsService) CreateSettings(ctx context.Context, req settings.CreateSettingsRequest) (settings.CreateSettingsResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(settings.CreateSettingsResponse), args.Error(1)
}
