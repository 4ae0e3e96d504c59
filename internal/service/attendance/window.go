package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

// WindowBounds are closed intervals on the time of day.
type WindowBounds struct {
	TimeInStart  clock.TimeOfDay
	TimeInEnd    clock.TimeOfDay
	TimeOutStart clock.TimeOfDay
	TimeOutEnd   clock.TimeOfDay
}

// DefaultWindowBounds: time-in 06:00-12:00, time-out 12:01-19:00.
func DefaultWindowBounds() WindowBounds {
	return WindowBounds{
		TimeInStart:  clock.New(6, 0, 0),
		TimeInEnd:    clock.New(12, 0, 0),
		TimeOutStart: clock.New(12, 1, 0),
		TimeOutEnd:   clock.New(19, 0, 0),
	}
}

func (b WindowBounds) Validate() error {
	if b.TimeInEnd.Before(b.TimeInStart) {
		return fmt.Errorf("time-in window ends (%s) before it starts (%s)", b.TimeInEnd, b.TimeInStart)
	}
	if b.TimeOutEnd.Before(b.TimeOutStart) {
		return fmt.Errorf("time-out window ends (%s) before it starts (%s)", b.TimeOutEnd, b.TimeOutStart)
	}
	if !b.TimeOutStart.After(b.TimeInEnd) {
		return fmt.Errorf("time-out window (%s) must start after the time-in window ends (%s)", b.TimeOutStart, b.TimeInEnd)
	}
	return nil
}

// WindowClassifier maps a scan to the window it falls into. Only the time of day matters.
type WindowClassifier struct {
	bounds WindowBounds
}

func NewWindowClassifier(bounds WindowBounds) (WindowClassifier, error) {
	if err := bounds.Validate(); err != nil {
		return WindowClassifier{}, err
	}
	return WindowClassifier{bounds: bounds}, nil
}

func (c WindowClassifier) Bounds() WindowBounds {
	return c.bounds
}

func (c WindowClassifier) Classify(ts time.Time) attendance.Window {
	return c.ClassifyTime(clock.Of(ts))
}

func (c WindowClassifier) ClassifyTime(t clock.TimeOfDay) attendance.Window {
	switch {
	case !t.Before(c.bounds.TimeInStart) && !t.After(c.bounds.TimeInEnd):
		return attendance.WindowTimeIn
	case !t.Before(c.bounds.TimeOutStart) && !t.After(c.bounds.TimeOutEnd):
		return attendance.WindowTimeOut
	}
	return attendance.WindowUnclassified
}

// Split returns the times of day of the time-in and time-out scans among events.
// Unclassified scans are dropped.
func (c WindowClassifier) Split(events []scan.Event) (timeIns, timeOuts []clock.TimeOfDay) {
	for _, ev := range events {
		t := ev.TimeOfDay()
		switch c.ClassifyTime(t) {
		case attendance.WindowTimeIn:
			timeIns = append(timeIns, t)
		case attendance.WindowTimeOut:
			timeOuts = append(timeOuts, t)
		}
	}
	return timeIns, timeOuts
}
