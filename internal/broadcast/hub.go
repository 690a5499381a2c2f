// Package broadcast delivers room events to websocket and SSE watchers.
package broadcast

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"arcade-seats/internal/store"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrHubClosed = errors.New("hub_closed")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// RoomFinder looks rooms up by id. Watch requests for a room it does not know
// are refused before the hub allocates anything for them.
type RoomFinder interface {
	GetRoom(ctx context.Context, id string) (*store.Room, error)
}

// Hub owns one EventBuffer per room.
type Hub struct {
	mu         sync.Mutex
	buffers    map[string]*EventBuffer
	bufferSize int
	closed     bool
	rooms      RoomFinder
	upgrader   websocket.Upgrader
}

// NewHub returns a hub keeping bufferSize events per room. A nil rooms lets
// any room id be watched.
func NewHub(bufferSize int, rooms RoomFinder) *Hub {
	return &Hub{
		buffers:    map[string]*EventBuffer{},
		bufferSize: bufferSize,
		rooms:      rooms,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (h *Hub) buffer(roomID string) (*EventBuffer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	b, ok := h.buffers[roomID]
	if !ok {
		b = NewEventBuffer(roomID, h.bufferSize)
		h.buffers[roomID] = b
	}
	return b, true
}

// Publish appends an event to the room's buffer and never blocks on watchers.
func (h *Hub) Publish(roomID, event string, data any) error {
	b, ok := h.buffer(roomID)
	if !ok {
		return ErrHubClosed
	}
	if _, ok := b.Append(event, data); !ok {
		return ErrHubClosed
	}
	metricEventsPublished.Add(1)
	return nil
}

// watchBuffer resolves ?room_id= of a watch request to its buffer. It writes
// the error response itself and returns false when the room cannot be watched.
func (h *Hub) watchBuffer(w http.ResponseWriter, r *http.Request) (string, *EventBuffer, bool) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		http.Error(w, `{"error":"room_id_required"}`, http.StatusBadRequest)
		return "", nil, false
	}
	if h.rooms != nil {
		if _, err := h.rooms.GetRoom(r.Context(), roomID); err != nil {
			metricWatchRejected.Add(1)
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, `{"error":"room_not_found"}`, http.StatusNotFound)
				return "", nil, false
			}
			log.Warn().Err(err).Str("room_id", roomID).Msg("watch_room_lookup_failed")
			http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
			return "", nil, false
		}
	}
	b, ok := h.buffer(roomID)
	if !ok {
		http.Error(w, `{"error":"hub_closed"}`, http.StatusServiceUnavailable)
		return "", nil, false
	}
	return roomID, b, true
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, b := range h.buffers {
		b.Close()
	}
}

// ServeWS streams events of ?room_id= as JSON text frames. ?after= replays
// buffered events newer than that id first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID, b, ok := h.watchBuffer(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	metricWSConnectionsTotal.Add(1)
	metricWSConnectionsActive.Add(1)
	defer metricWSConnectionsActive.Add(-1)

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	backlog := b.ReplayAfter(r.URL.Query().Get("after"))

	done := make(chan struct{})
	go readLoop(conn, done)
	defer conn.Close()

	for _, ev := range backlog {
		if err := writeEvent(conn, ev); err != nil {
			return
		}
	}
	last := ""
	if len(backlog) > 0 {
		last = backlog[len(backlog)-1].EventID
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			if last != "" && !newer(ev.EventID, last) {
				continue
			}
			if err := writeEvent(conn, ev); err != nil {
				log.Debug().Err(err).Str("room_id", roomID).Msg("ws_write_failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so control frames are processed and closes
// done when the peer goes away.
func readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
