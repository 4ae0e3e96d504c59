package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type attendanceRepository struct {
	db *database.DB
}

const attendanceColumns = `
	a.id, a.employee_id, a.date, a.time_in, a.time_out,
	a.status, a.remarks, a.total_hours, a.created_at, a.updated_at,
	e.employee_code, e.full_name`

const attendanceFrom = `
	FROM attendances a
	LEFT JOIN employees e ON e.id = a.employee_id AND e.deleted_at IS NULL`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (attendance.Attendance, error) {
	var (
		att             attendance.Attendance
		timeIn, timeOut pgtype.Time
		status          string
	)
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.Date, &timeIn, &timeOut,
		&status, &att.Remarks, &att.TotalHours, &att.CreatedAt, &att.UpdatedAt,
		&att.EmployeeCode, &att.EmployeeName,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}
	att.TimeIn = fromPgTime(timeIn)
	att.TimeOut = fromPgTime(timeOut)
	att.Status = attendance.Status(status)
	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	id, err := newID()
	if err != nil {
		return attendance.Attendance{}, err
	}

	query := `
		INSERT INTO attendances (id, employee_id, date, time_in, time_out, status, remarks, total_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = q.QueryRow(ctx, query,
		id, newAttendance.EmployeeID, newAttendance.Date,
		toPgTime(newAttendance.TimeIn), toPgTime(newAttendance.TimeOut),
		string(newAttendance.Status), newAttendance.Remarks, newAttendance.TotalHours,
	).Scan(&newAttendance.ID, &newAttendance.CreatedAt, &newAttendance.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAttendanceAlreadyExists
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", translateError(err))
	}

	return newAttendance, nil
}

// CreateIfAbsent implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateIfAbsent(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, bool, error) {
	q := GetQuerier(ctx, a.db)

	id, err := newID()
	if err != nil {
		return attendance.Attendance{}, false, err
	}

	query := `
		INSERT INTO attendances (id, employee_id, date, time_in, time_out, status, remarks, total_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (employee_id, date) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	err = q.QueryRow(ctx, query,
		id, newAttendance.EmployeeID, newAttendance.Date,
		toPgTime(newAttendance.TimeIn), toPgTime(newAttendance.TimeOut),
		string(newAttendance.Status), newAttendance.Remarks, newAttendance.TotalHours,
	).Scan(&newAttendance.ID, &newAttendance.CreatedAt, &newAttendance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, false, nil
		}
		return attendance.Attendance{}, false, fmt.Errorf("failed to create attendance: %w", translateError(err))
	}

	return newAttendance, true, nil
}

// LockDay implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockDay(ctx context.Context, employeeID string, date time.Time) error {
	q := GetQuerier(ctx, a.db)

	key := employeeID + "|" + date.Format("2006-01-02")
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock attendance day: %w", translateError(err))
	}
	return nil
}

func (a *attendanceRepository) getByID(ctx context.Context, id string, lock bool) (attendance.Attendance, error) {
	if !isUUID(id) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + ` WHERE a.id = $1`
	if lock {
		query += ` FOR UPDATE OF a`
	}

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", translateError(err))
	}
	return att, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	return a.getByID(ctx, id, false)
}

// GetByIDForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string) (attendance.Attendance, error) {
	return a.getByID(ctx, id, true)
}

func (a *attendanceRepository) getByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, lock bool) (*attendance.Attendance, error) {
	if !isUUID(employeeID) {
		return nil, nil
	}
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + ` WHERE a.employee_id = $1 AND a.date = $2`
	if lock {
		query += ` FOR UPDATE OF a`
	}

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", translateError(err))
	}
	return &att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	return a.getByEmployeeAndDate(ctx, employeeID, date, false)
}

// GetByEmployeeAndDateForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	return a.getByEmployeeAndDate(ctx, employeeID, date, true)
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	updatedAt := att.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query := `
		UPDATE attendances
		SET time_in = $2, time_out = $3, status = $4, remarks = $5, total_hours = $6, updated_at = $7
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		att.ID, toPgTime(att.TimeIn), toPgTime(att.TimeOut),
		string(att.Status), att.Remarks, att.TotalHours, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		if !isUUID(*filter.EmployeeID) {
			return []attendance.Attendance{}, 0, nil
		}
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.EmployeeCode != nil && *filter.EmployeeCode != "" {
		baseWhere += fmt.Sprintf(" AND e.employee_code = $%d", argIdx)
		args = append(args, *filter.EmployeeCode)
		argIdx++
	}

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND a.date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := `SELECT COUNT(*)` + attendanceFrom + ` WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build ORDER BY
	orderByField := "a.date"
	switch filter.SortBy {
	case "employee_code":
		orderByField = "e.employee_code"
	case "time_in":
		orderByField = "a.time_in"
	case "time_out":
		orderByField = "a.time_out"
	case "status":
		orderByField = "a.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		WHERE %s
		ORDER BY %s %s NULLS LAST, a.id
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, attendanceFrom, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	attendances := []attendance.Attendance{}
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return attendances, total, nil
}

// ListRecomputableForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListRecomputableForUpdate(ctx context.Context) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.status NOT IN ($1, $2, $3)
		ORDER BY a.id
		FOR UPDATE OF a`

	rows, err := q.Query(ctx, query,
		string(attendance.StatusAbsent), string(attendance.StatusLeave), string(attendance.StatusHoliday),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", translateError(err))
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", translateError(err))
	}
	return attendances, nil
}

// DeleteOrphans implements attendance.AttendanceRepository.
func (a *attendanceRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		DELETE FROM attendances a
		WHERE NOT EXISTS (
			SELECT 1 FROM employees e
			WHERE e.id = a.employee_id AND e.deleted_at IS NULL
		)
	`
	tag, err := q.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned attendances: %w", translateError(err))
	}
	return tag.RowsAffected(), nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return attendance.ErrAttendanceNotFound
	}
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
