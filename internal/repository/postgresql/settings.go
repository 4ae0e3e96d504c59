package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// The settings lock lives in the two-key advisory space, apart from the day locks.
const (
	settingsLockClass int32 = 0x5345
	settingsLockID    int32 = 1
)

type settingsRepository struct {
	db *database.DB
}

// GetLatest implements settings.SettingsRepository.
func (r *settingsRepository) GetLatest(ctx context.Context) (settings.AttendanceSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, required_time_in, required_time_out, break_duration_minutes, break_is_counted, created_at
		FROM attendance_settings
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var (
		s               settings.AttendanceSettings
		timeIn, timeOut pgtype.Time
	)
	err := q.QueryRow(ctx, query).Scan(&s.ID, &timeIn, &timeOut, &s.BreakDurationMinutes, &s.BreakIsCounted, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.AttendanceSettings{}, settings.ErrSettingsNotFound
		}
		return settings.AttendanceSettings{}, fmt.Errorf("failed to get attendance settings: %w", translateError(err))
	}
	s.RequiredTimeIn = *fromPgTime(timeIn)
	s.RequiredTimeOut = *fromPgTime(timeOut)
	return s, nil
}

// Create implements settings.SettingsRepository.
func (r *settingsRepository) Create(ctx context.Context, s settings.AttendanceSettings) (settings.AttendanceSettings, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID()
	if err != nil {
		return settings.AttendanceSettings{}, err
	}

	query := `
		INSERT INTO attendance_settings (id, required_time_in, required_time_out, break_duration_minutes, break_is_counted)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = q.QueryRow(ctx, query,
		id, toPgTime(&s.RequiredTimeIn), toPgTime(&s.RequiredTimeOut), s.BreakDurationMinutes, s.BreakIsCounted,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return settings.AttendanceSettings{}, fmt.Errorf("failed to create attendance settings: %w", translateError(err))
	}
	return s, nil
}

// LockShared implements settings.SettingsRepository.
func (r *settingsRepository) LockShared(ctx context.Context) error {
	q := GetQuerier(ctx, r.db)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock_shared($1, $2)`, settingsLockClass, settingsLockID); err != nil {
		return fmt.Errorf("failed to lock attendance settings: %w", translateError(err))
	}
	return nil
}

// LockExclusive implements settings.SettingsRepository.
func (r *settingsRepository) LockExclusive(ctx context.Context) error {
	q := GetQuerier(ctx, r.db)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, settingsLockClass, settingsLockID); err != nil {
		return fmt.Errorf("failed to lock attendance settings: %w", translateError(err))
	}
	return nil
}

func NewSettingsRepository(db *database.DB) settings.SettingsRepository {
	return &settingsRepository{db: db}
}
