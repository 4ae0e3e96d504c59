package attendance

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"

// SelectTimeIn keeps existing when it is already at or before the earliest candidate,
// otherwise adopts the earliest candidate. With no candidates existing is returned as is.
func SelectTimeIn(existing *clock.TimeOfDay, candidates []clock.TimeOfDay) *clock.TimeOfDay {
	earliest := Earliest(candidates)
	if earliest == nil || (existing != nil && !existing.After(*earliest)) {
		return existing
	}
	return earliest
}

// SelectTimeOut is the mirror of SelectTimeIn: a later-or-equal existing value wins.
func SelectTimeOut(existing *clock.TimeOfDay, candidates []clock.TimeOfDay) *clock.TimeOfDay {
	latest := Latest(candidates)
	if latest == nil || (existing != nil && !existing.Before(*latest)) {
		return existing
	}
	return latest
}

func Earliest(times []clock.TimeOfDay) *clock.TimeOfDay {
	if len(times) == 0 {
		return nil
	}
	best := times[0]
	for _, t := range times[1:] {
		if t.Before(best) {
			best = t
		}
	}
	return &best
}

func Latest(times []clock.TimeOfDay) *clock.TimeOfDay {
	if len(times) == 0 {
		return nil
	}
	best := times[0]
	for _, t := range times[1:] {
		if t.After(best) {
			best = t
		}
	}
	return &best
}
