package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
)

type FeedHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type feedHandlerImpl struct {
	hub       *sse.Hub
	keepalive time.Duration
}

func NewFeedHandler(hub *sse.Hub, keepalive time.Duration) FeedHandler {
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	return &feedHandlerImpl{
		hub:       hub,
		keepalive: keepalive,
	}
}

// Stream handles the SSE connection carrying live attendance changes.
func (h *feedHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(attendanceService.FeedTopic)
	defer cleanup()

	subject := middleware.Subject(r)
	slog.Debug("feed subscriber connected", "subject", subject, "subscribers", h.hub.SubscriberCount(attendanceService.FeedTopic))

	hello, _ := json.Marshal(map[string]string{"status": "connected", "subject": subject})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", hello)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("failed to encode feed event", "event", event.Name, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
