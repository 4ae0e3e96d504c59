package settings

import "context"

type SettingsRepository interface {
	// GetLatest returns the most recently created settings or ErrSettingsNotFound.
	GetLatest(ctx context.Context) (AttendanceSettings, error)
	Create(ctx context.Context, s AttendanceSettings) (AttendanceSettings, error)

	// LockShared and LockExclusive take the settings lock until the surrounding transaction
	// ends. Writers that derive summaries hold it shared; a settings change holds it exclusive.
	LockShared(ctx context.Context) error
	LockExclusive(ctx context.Context) error
}
