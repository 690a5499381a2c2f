package reservation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"arcade-seats/internal/store"
	"arcade-seats/internal/store/memstore"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordedEvent struct {
	room string
	name string
	data any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(roomID, event string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{room: roomID, name: event, data: data})
	return nil
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.name == name {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	coord  *Coordinator
	ms     *memstore.Store
	events *recorder
	clock  *fakeClock
	roomID string
	tables []string
}

func newFixture(t *testing.T, capacity, tables int) *fixture {
	t.Helper()
	ms := memstore.New()
	clock := newFakeClock()
	ms.Now = clock.Now
	events := &recorder{}
	roomID, tableIDs := ms.AddRoom("tetris", capacity, tables)
	coord := NewCoordinator(Deps{
		Rooms:    ms,
		Tables:   ms,
		Sessions: ms,
		Log:      ms,
		Events:   events,
		Now:      clock.Now,
	})
	return &fixture{coord: coord, ms: ms, events: events, clock: clock, roomID: roomID, tables: tableIDs}
}

func (f *fixture) table(t *testing.T, id string) store.Table {
	t.Helper()
	for _, tbl := range f.ms.Tables() {
		if tbl.ID == id {
			return tbl
		}
	}
	t.Fatalf("table %s not found", id)
	return store.Table{}
}

func (f *fixture) session(t *testing.T, userID int64) *store.Session {
	t.Helper()
	for _, sess := range f.ms.Sessions() {
		if sess.UserID == userID {
			s := sess
			return &s
		}
	}
	return nil
}

func (f *fixture) onlineCount(t *testing.T, roomID string) int {
	t.Helper()
	for _, r := range mustRooms(t, f) {
		if r.ID == roomID {
			return r.OnlineCount
		}
	}
	t.Fatalf("room %s not found", roomID)
	return 0
}

func mustRooms(t *testing.T, f *fixture) []store.Room {
	t.Helper()
	rooms, err := f.coord.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	return rooms
}

// checkInvariants asserts the seat and session invariants over the whole store.
func checkInvariants(t *testing.T, ms *memstore.Store) {
	t.Helper()
	seatOf := map[int64]string{}
	for _, tbl := range ms.Tables() {
		if tbl.CurrentPlayers != tbl.Occupied() {
			t.Fatalf("table %s: current_players %d, occupied %d", tbl.ID, tbl.CurrentPlayers, tbl.Occupied())
		}
		if tbl.CurrentPlayers == 0 && tbl.Status != store.TableEmpty {
			t.Fatalf("table %s: empty table with status %s", tbl.ID, tbl.Status)
		}
		for i, userID := range tbl.Seats {
			if userID == 0 {
				continue
			}
			where := fmt.Sprintf("%s/%d", tbl.ID, i+1)
			if prev, ok := seatOf[userID]; ok {
				t.Fatalf("user %d seated twice: %s and %s", userID, prev, where)
			}
			seatOf[userID] = where
		}
	}
	for _, sess := range ms.Sessions() {
		if (sess.TableID == "") != (sess.SeatNumber == 0) {
			t.Fatalf("user %d: half-set seat fields %+v", sess.UserID, sess)
		}
		if sess.TableID == "" {
			continue
		}
		if want := fmt.Sprintf("%s/%d", sess.TableID, sess.SeatNumber); seatOf[sess.UserID] != want {
			t.Fatalf("user %d: session names %s, tables say %q", sess.UserID, want, seatOf[sess.UserID])
		}
	}
}
