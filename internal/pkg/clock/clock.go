package clock

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock reading with second precision, counted in seconds from midnight.
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// New builds a TimeOfDay from its components. Out-of-range values wrap around midnight.
func New(hour, minute, second int) TimeOfDay {
	total := (hour*3600 + minute*60 + second) % secondsPerDay
	if total < 0 {
		total += secondsPerDay
	}
	return TimeOfDay(total)
}

// Of returns the time-of-day component of t in t's own location.
func Of(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return New(h, m, s)
}

// Parse accepts "HH:MM:SS" or "HH:MM".
func Parse(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Of(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q: expected HH:MM:SS", s)
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FromMicroseconds converts a PostgreSQL TIME value (microseconds since midnight).
func FromMicroseconds(us int64) TimeOfDay {
	return TimeOfDay((us / int64(time.Second/time.Microsecond)) % secondsPerDay)
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// Microseconds returns the value in the unit PostgreSQL TIME columns use.
func (t TimeOfDay) Microseconds() int64 {
	return int64(t) * int64(time.Second/time.Microsecond)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) Before(u TimeOfDay) bool { return t < u }
func (t TimeOfDay) After(u TimeOfDay) bool  { return t > u }

// Sub returns the duration t-u. It is negative when t is before u.
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration {
	return time.Duration(int(t)-int(u)) * time.Second
}

// On places t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, date.Location())
}

// Ptr returns a pointer to a copy of t.
func Ptr(t TimeOfDay) *TimeOfDay {
	return &t
}

// Equal reports whether two optional times hold the same value (both nil counts as equal).
func Equal(a, b *TimeOfDay) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Format renders an optional time, nil as nil.
func Format(t *TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

// Date truncates t to midnight of its calendar day, keeping the location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar day, each read in its own location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WallClock strips the zone from t: the result carries t's wall-clock reading, truncated to the
// second, in UTC. Scan timestamps are stored and compared in this form.
func WallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m, d, h, mi, s, 0, time.UTC)
}
