package postgresql

import (
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/jackc/pgx/v5/pgtype"
)

// toPgTime maps an optional time of day onto a nullable TIME parameter.
func toPgTime(t *clock.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: t.Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) *clock.TimeOfDay {
	if !t.Valid {
		return nil
	}
	v := clock.FromMicroseconds(t.Microseconds)
	return &v
}
