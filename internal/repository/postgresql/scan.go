package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type scanRepository struct {
	db *database.DB
}

const scanColumns = `id, employee_code, employee_id, scanned_at, created_at`

func scanEvent(row rowScanner) (scan.Event, error) {
	var ev scan.Event
	if err := row.Scan(&ev.ID, &ev.EmployeeCode, &ev.EmployeeID, &ev.Timestamp, &ev.CreatedAt); err != nil {
		return scan.Event{}, err
	}
	// TIMESTAMP columns come back as UTC wall clock already; normalise anyway.
	ev.Timestamp = ev.Timestamp.UTC()
	return ev, nil
}

func collectEvents(rows pgx.Rows) ([]scan.Event, error) {
	defer rows.Close()
	events := []scan.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", translateError(err))
	}
	return events, nil
}

// Create implements scan.ScanRepository.
func (r *scanRepository) Create(ctx context.Context, event scan.Event) (scan.Event, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID()
	if err != nil {
		return scan.Event{}, err
	}

	query := `
		INSERT INTO attendance_scans (id, employee_code, employee_id, scanned_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := q.QueryRow(ctx, query, id, event.EmployeeCode, event.EmployeeID, event.Timestamp).
		Scan(&event.ID, &event.CreatedAt); err != nil {
		return scan.Event{}, fmt.Errorf("failed to create scan: %w", translateError(err))
	}
	return event, nil
}

// GetByID implements scan.ScanRepository.
func (r *scanRepository) GetByID(ctx context.Context, id string) (scan.Event, error) {
	if !isUUID(id) {
		return scan.Event{}, scan.ErrScanNotFound
	}
	q := GetQuerier(ctx, r.db)

	ev, err := scanEvent(q.QueryRow(ctx, `SELECT `+scanColumns+` FROM attendance_scans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scan.Event{}, scan.ErrScanNotFound
		}
		return scan.Event{}, fmt.Errorf("failed to get scan: %w", translateError(err))
	}
	return ev, nil
}

// Delete implements scan.ScanRepository.
func (r *scanRepository) Delete(ctx context.Context, id string) (scan.Event, error) {
	if !isUUID(id) {
		return scan.Event{}, scan.ErrScanNotFound
	}
	q := GetQuerier(ctx, r.db)

	ev, err := scanEvent(q.QueryRow(ctx, `DELETE FROM attendance_scans WHERE id = $1 RETURNING `+scanColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scan.Event{}, scan.ErrScanNotFound
		}
		return scan.Event{}, fmt.Errorf("failed to delete scan: %w", translateError(err))
	}
	return ev, nil
}

// ListByEmployeeAndDate implements scan.ScanRepository.
func (r *scanRepository) ListByEmployeeAndDate(ctx context.Context, employeeCode string, date time.Time) ([]scan.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + scanColumns + `
		FROM attendance_scans
		WHERE employee_code = $1 AND scanned_at >= $2 AND scanned_at < $3
		ORDER BY scanned_at, id
	`
	rows, err := q.Query(ctx, query, employeeCode, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", translateError(err))
	}
	return collectEvents(rows)
}

// ListAll implements scan.ScanRepository.
func (r *scanRepository) ListAll(ctx context.Context) ([]scan.Event, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+scanColumns+` FROM attendance_scans ORDER BY scanned_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", translateError(err))
	}
	return collectEvents(rows)
}

// List implements scan.ScanRepository.
func (r *scanRepository) List(ctx context.Context, filter scan.ScanFilter) ([]scan.Event, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeCode != nil && *filter.EmployeeCode != "" {
		baseWhere += fmt.Sprintf(" AND employee_code = $%d", argIdx)
		args = append(args, *filter.EmployeeCode)
		argIdx++
	}
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND scanned_at::date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND scanned_at::date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND scanned_at::date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.DanglingOnly {
		baseWhere += " AND employee_id IS NULL"
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_scans WHERE `+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count scans: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendance_scans
		WHERE %s
		ORDER BY scanned_at DESC, id
		LIMIT $%d OFFSET $%d
	`, scanColumns, baseWhere, argIdx, argIdx+1)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query scans: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// AssignEmployee implements scan.ScanRepository.
func (r *scanRepository) AssignEmployee(ctx context.Context, employeeCode string, employeeID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE attendance_scans SET employee_id = $2 WHERE employee_code = $1 AND employee_id IS NULL`,
		employeeCode, employeeID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to link scans: %w", translateError(err))
	}
	return tag.RowsAffected(), nil
}

func NewScanRepository(db *database.DB) scan.ScanRepository {
	return &scanRepository{db: db}
}
