package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

// Recomputer re-derives attendance summaries against the given settings, inside the
// transaction carried by ctx.
type Recomputer interface {
	RecomputeWith(ctx context.Context, cfg settings.AttendanceSettings) (int, error)
}

type SettingsServiceImpl struct {
	tx         database.Transactor
	repo       settings.SettingsRepository
	provider   *CachedProvider
	recomputer Recomputer
}

func NewSettingsService(tx database.Transactor, repo settings.SettingsRepository, provider *CachedProvider, recomputer Recomputer) settings.SettingsService {
	return &SettingsServiceImpl{
		tx:         tx,
		repo:       repo,
		provider:   provider,
		recomputer: recomputer,
	}
}

// Current implements settings.Provider.
func (s *SettingsServiceImpl) Current(ctx context.Context) (settings.AttendanceSettings, error) {
	return s.provider.Current(ctx)
}

// Locked implements settings.Provider.
func (s *SettingsServiceImpl) Locked(ctx context.Context) (settings.AttendanceSettings, error) {
	return s.provider.Locked(ctx)
}

// GetSettings implements settings.SettingsService.
func (s *SettingsServiceImpl) GetSettings(ctx context.Context) (settings.SettingsResponse, error) {
	cfg, err := s.provider.Current(ctx)
	if err != nil {
		return settings.SettingsResponse{}, err
	}
	return settings.NewSettingsResponse(cfg), nil
}

// CreateSettings implements settings.SettingsService.
// The new row and the recomputation commit together under the exclusive settings lock, so no
// record is ever left summarised against superseded settings.
func (s *SettingsServiceImpl) CreateSettings(ctx context.Context, req settings.CreateSettingsRequest) (settings.CreateSettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return settings.CreateSettingsResponse{}, err
	}

	var (
		created    settings.AttendanceSettings
		recomputed int
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockExclusive(txCtx); err != nil {
			return err
		}

		var err error
		created, err = s.repo.Create(txCtx, req.ToEntity())
		if err != nil {
			return fmt.Errorf("failed to create attendance settings: %w", err)
		}

		recomputed, err = s.recomputer.RecomputeWith(txCtx, created)
		if err != nil {
			return fmt.Errorf("failed to recompute attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return settings.CreateSettingsResponse{}, err
	}

	s.provider.Set(created)
	slog.Info("attendance settings updated",
		"settings_id", created.ID,
		"required_time_in", created.RequiredTimeIn.String(),
		"required_time_out", created.RequiredTimeOut.String(),
		"break_duration_minutes", created.BreakDurationMinutes,
		"break_is_counted", created.BreakIsCounted,
		"recomputed_records", recomputed,
	)

	return settings.CreateSettingsResponse{
		Settings:          settings.NewSettingsResponse(created),
		RecomputedRecords: recomputed,
	}, nil
}
