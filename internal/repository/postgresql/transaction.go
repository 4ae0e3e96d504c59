package postgresql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

// WithTransaction executes fn inside a database transaction
func WithTransaction(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("rollback error during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	// Execute function
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetQuerier returns either transaction or pool
// Used in repositories to support both transactional and non-transactional operations
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

// Transactor implements database.Transactor on a pgx pool. A call made with a ctx that
// already carries a transaction joins it instead of opening a new one.
type Transactor struct {
	db          *database.DB
	lockTimeout time.Duration
}

const defaultLockTimeout = 5 * time.Second

func NewTransactor(db *database.DB) *Transactor {
	return NewTransactorWithLockTimeout(db, defaultLockTimeout)
}

// NewTransactorWithLockTimeout bounds how long a statement waits for a row lock.
func NewTransactorWithLockTimeout(db *database.DB, lockTimeout time.Duration) *Transactor {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Transactor{db: db, lockTimeout: lockTimeout}
}

var _ database.Transactor = (*Transactor)(nil)

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	err := WithTransaction(ctx, t.db, func(tx pgx.Tx) error {
		// Row locks on a busy employee-day fail fast with 55P03 instead of queueing forever.
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", t.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return translateError(err)
}

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateInvalidText          = "22P02"
)

// translateError turns transient lock and serialization failures into
// attendance.ErrConcurrencyConflict so callers can retry them.
func translateError(err error) error {
	if err == nil || errors.Is(err, attendance.ErrConcurrencyConflict) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return fmt.Errorf("%w: %s", attendance.ErrConcurrencyConflict, pgErr.Message)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

// isUUID guards id lookups; a malformed id would otherwise surface as a 22P02 error
// instead of "not found".
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}
