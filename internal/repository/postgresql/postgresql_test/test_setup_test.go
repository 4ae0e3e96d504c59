package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup wraps the database the repository integration tests run against.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL, applies the schema and empties every table.
// The test is skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping PostgreSQL integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 8, MinConns: 1})
	require.NoError(t, err)
	require.NoError(t, postgresql.Migrate(ctx, db))

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(ctx))
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes all rows from the attendance tables.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"attendances",
		"attendance_scans",
		"attendance_settings",
		"leave_requests",
		"employees",
	}

	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// InsertEmployee stores an active employee and returns its id.
func (s *TestDatabaseSetup) InsertEmployee(t *testing.T, code, name string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := s.DB.Exec(context.Background(),
		`INSERT INTO employees (id, employee_code, full_name) VALUES ($1, $2, $3)`, id, code, name)
	require.NoError(t, err)
	return id
}

func (s *TestDatabaseSetup) SoftDeleteEmployee(t *testing.T, id string) {
	t.Helper()
	_, err := s.DB.Exec(context.Background(), `UPDATE employees SET deleted_at = NOW() WHERE id = $1`, id)
	require.NoError(t, err)
}

func (s *TestDatabaseSetup) InsertLeave(t *testing.T, employeeID string, start, end time.Time, status string) {
	t.Helper()
	_, err := s.DB.Exec(context.Background(),
		`INSERT INTO leave_requests (id, employee_id, start_date, end_date, status) VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), employeeID, start, end, status)
	require.NoError(t, err)
}

// Close closes the pool.
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}
