package settings

import "context"

// Provider returns the settings currently in effect, falling back to Default.
type Provider interface {
	// Current may be served from a cache. Use it for reads only.
	Current(ctx context.Context) (AttendanceSettings, error)

	// Locked takes the shared settings lock in the transaction carried by ctx and reads the
	// latest settings from the store. No settings change can commit until that transaction ends.
	Locked(ctx context.Context) (AttendanceSettings, error)
}

type SettingsService interface {
	Provider

	// GetSettings returns the effective settings for display.
	GetSettings(ctx context.Context) (SettingsResponse, error)

	// CreateSettings stores a new settings row and reconciles every attendance record against it.
	CreateSettings(ctx context.Context, req CreateSettingsRequest) (CreateSettingsResponse, error)
}
