package broadcast

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var ssePingInterval = 15 * time.Second

// ServeSSE streams the events of ?room_id= as server-sent events. A
// Last-Event-ID header (or ?after=) replays buffered events first.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	roomID, b, ok := h.watchBuffer(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)
	metricSSEConnectionsTotal.Add(1)
	metricSSEConnectionsActive.Add(1)
	defer metricSSEConnectionsActive.Add(-1)

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	after := r.Header.Get("Last-Event-ID")
	if after == "" {
		after = r.URL.Query().Get("after")
	}
	last := ""
	for _, ev := range b.ReplayAfter(after) {
		if err := writeSSE(w, ev); err != nil {
			return
		}
		last = ev.EventID
	}
	flusher.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if last != "" && !newer(ev.EventID, last) {
				continue
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			now := time.Now().UnixMilli()
			if err := writeSSE(w, Event{Event: "ping", RoomID: roomID, ServerTS: now}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

func writeSSE(w http.ResponseWriter, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.EventID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, data)
	return err
}
