package settings

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/stretchr/testify/mock"
)

type mockSettingsRepository struct {
	mock.Mock
}

func (m *mockSettingsRepository) GetLatest(ctx context.Context) (settings.AttendanceSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(settings.AttendanceSettings), args.Error(1)
}

func (m *mockSettingsRepository) Create(ctx context.Context, s settings.AttendanceSettings) (settings.AttendanceSettings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(settings.AttendanceSettings), args.Error(1)
}

func (m *mockSettingsRepository) LockShared(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSettingsRepository) LockExclusive(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockRecomputer struct {
	mock.Mock
}

func (m *mockRecomputer) RecomputeWith(ctx context.Context, cfg settings.AttendanceSettings) (int, error) {
	args := m.Called(ctx, cfg)
	return args.Int(0), args.Error(1)
}

type txMarker struct{}

// fakeTx marks the ctx handed to fn so tests can assert work ran inside it.
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(context.WithValue(ctx, txMarker{}, true))
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txMarker{}).(bool)
	return v
}
