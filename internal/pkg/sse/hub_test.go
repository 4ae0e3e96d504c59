package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribersOnly(t *testing.T) {
	hub := NewHub(4)
	a, cleanupA := hub.Subscribe("attendance")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("other")
	defer cleanupB()

	hub.Publish("attendance", Event{Name: "scan.recorded", Data: 1})

	select {
	case ev := <-a:
		assert.Equal(t, "scan.recorded", ev.Name)
		assert.Equal(t, 1, ev.Data)
	default:
		t.Fatal("expected event on attendance topic")
	}
	assert.Empty(t, b)
}

func TestHub_FullSubscriberMissesEvents(t *testing.T) {
	hub := NewHub(1)
	ch, cleanup := hub.Subscribe("attendance")
	defer cleanup()

	hub.Publish("attendance", Event{Name: "first"})
	hub.Publish("attendance", Event{Name: "second"})

	require.Len(t, ch, 1)
	assert.Equal(t, "first", (<-ch).Name)
}

func TestHub_CleanupUnsubscribes(t *testing.T) {
	hub := NewHub(1)
	ch, cleanup := hub.Subscribe("attendance")
	_, cleanup2 := hub.Subscribe("attendance")
	assert.Equal(t, 2, hub.SubscriberCount("attendance"))
	assert.Equal(t, 2, hub.TotalSubscribers())

	cleanup()
	cleanup()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 1, hub.SubscriberCount("attendance"))

	cleanup2()
	assert.Equal(t, 0, hub.TotalSubscribers())

	hub.Publish("attendance", Event{Name: "nobody"})
}
