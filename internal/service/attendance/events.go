package attendance

import (
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
)

// FeedTopic is the topic committed attendance changes are published on.
const FeedTopic = "attendance"

const (
	EventScanRecorded       = "scan.recorded"
	EventScanDeleted        = "scan.deleted"
	EventAttendanceUpdated  = "attendance.updated"
	EventAttendanceDeleted  = "attendance.deleted"
	EventSyncCompleted      = "sync.completed"
	EventSettingsRecomputed = "settings.recomputed"
)

// Publisher receives changes after their transaction has committed.
type Publisher interface {
	Publish(topic string, event sse.Event)
}

func (a *AttendanceServiceImpl) publish(name string, data interface{}) {
	if a.events == nil {
		return
	}
	a.events.Publish(FeedTopic, sse.Event{Name: name, Data: data})
}
