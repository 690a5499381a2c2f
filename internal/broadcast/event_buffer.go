package broadcast

import (
	"strconv"
	"sync"
	"time"
)

type Event struct {
	EventID  string `json:"event_id"`
	Event    string `json:"event"`
	RoomID   string `json:"room_id"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

// EventBuffer keeps the last max events of one room and fans new ones out to
// subscribers. A subscriber that is not keeping up misses events.
type EventBuffer struct {
	mu       sync.Mutex
	roomID   string
	nextID   int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	closed   bool
}

func NewEventBuffer(roomID string, max int) *EventBuffer {
	if max <= 0 {
		max = 256
	}
	return &EventBuffer{
		roomID:   roomID,
		max:      max,
		watchers: map[chan Event]struct{}{},
	}
}

func (b *EventBuffer) Append(event string, data any) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Event{}, false
	}
	b.nextID++
	ev := Event{
		EventID:  strconv.FormatInt(b.nextID, 10),
		Event:    event,
		RoomID:   b.roomID,
		ServerTS: time.Now().UnixMilli(),
		Data:     data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
			metricEventsDropped.Add(1)
		}
	}
	return ev, true
}

// ReplayAfter returns buffered events newer than lastEventID. An empty or
// unparsable id replays the whole buffer.
func (b *EventBuffer) ReplayAfter(lastEventID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		last = 0
	}
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *EventBuffer) Subscribe() chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *EventBuffer) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *EventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}

func newer(id, than string) bool {
	a, errA := strconv.ParseInt(id, 10, 64)
	b, errB := strconv.ParseInt(than, 10, 64)
	if errA != nil || errB != nil {
		return true
	}
	return a > b
}
