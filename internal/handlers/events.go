package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
)

// keepaliveInterval is how often an idle SSE stream gets a comment line.
var keepaliveInterval = 30 * time.Second

func writeEvent(w http.ResponseWriter, event pubsub.Event) {
	data, _ := json.Marshal(event)
	fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Timestamp, data)
}

// EventsSSE provides Server-Sent Events for realtime updates. With ?since=<ms>
// and a replay buffer configured, missed events are sent first.
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Subscribe before replaying so nothing falls between the two.
	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")

	var lastSent int64
	if since, err := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64); err == nil && h.history != nil {
		for _, event := range h.history.Since(since) {
			writeEvent(w, event)
			lastSent = event.Timestamp
		}
	}
	flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if lastSent != 0 && event.Timestamp <= lastSent {
				continue
			}
			writeEvent(w, event)
			flush()
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush()
		}
	}
}

// Health reports every configured dependency
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]any, len(h.checks)+1)

	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks[name] = map[string]string{"status": "unhealthy", "error": err.Error()}
			continue
		}
		checks[name] = map[string]string{"status": "healthy"}
	}
	checks["ingestion"] = map[string]bool{"enabled": h.svc.IngestionEnabled()}
	checks["sse"] = map[string]int{"subscribers": h.pubsub.SubscriberCount()}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Liveness handles Kubernetes liveness probes
// Returns 200 if the application is running (doesn't check dependencies)
func (h *APIHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness handles Kubernetes readiness probes; only the store is critical.
func (h *APIHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    "database_unavailable",
			"timestamp": time.Now().Unix(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
