// Package memstore keeps rooms, tables, sessions and transitions in process
// memory. Every method takes one mutex for its whole body, which gives each
// call the same all-or-nothing shape as the conditional updates in
// internal/store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"arcade-seats/internal/store"
)

type Store struct {
	mu          sync.Mutex
	rooms       map[string]*store.Room
	tables      map[string]*store.Table
	sessions    map[int64]*store.Session
	transitions []store.Transition
	faults      map[string]error
	nextTable   map[string]int

	// Now is the clock used for updated_at columns. Tests may replace it.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		rooms:     map[string]*store.Room{},
		tables:    map[string]*store.Table{},
		sessions:  map[int64]*store.Session{},
		faults:    map[string]error{},
		nextTable: map[string]int{},
		Now:       time.Now,
	}
}

// FailOn makes every later call of method return err. A nil err clears it.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, method)
		return
	}
	s.faults[method] = err
}

// Ping reports the fault registered for "Ping", if any.
func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fault("Ping")
}

func (s *Store) fault(method string) error {
	return s.faults[method]
}

// AddRoom creates a room with n empty tables and returns their ids.
func (s *Store) AddRoom(game string, capacity, tables int) (string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	id := store.NewID()
	s.rooms[id] = &store.Room{
		ID:        id,
		Game:      game,
		Name:      fmt.Sprintf("%s-%d", game, len(s.rooms)+1),
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ids := make([]string, 0, tables)
	for i := 0; i < tables; i++ {
		ids = append(ids, s.addTableLocked(id))
	}
	return id, ids
}

func (s *Store) addTableLocked(roomID string) string {
	s.nextTable[roomID]++
	id := store.NewID()
	s.tables[id] = &store.Table{
		ID:        id,
		RoomID:    roomID,
		Position:  s.nextTable[roomID],
		Status:    store.TableEmpty,
		UpdatedAt: s.Now(),
	}
	return id
}

// ForceSeat writes userID into a seat without any checks, the way a crash
// between two writes could leave it.
func (s *Store) ForceSeat(tableID string, seat int, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tables[tableID]
	if t == nil || seat < 1 || seat > store.SeatsPerTable {
		return
	}
	t.Seats[seat-1] = userID
	t.CurrentPlayers = t.Occupied()
	t.Status = statusAfter(t.Status, t.CurrentPlayers)
}

// Transitions returns a copy of the audit log in append order.
func (s *Store) Transitions() []store.Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

// Sessions returns a copy of every session.
func (s *Store) Sessions() []store.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Tables returns a copy of every table.
func (s *Store) Tables() []store.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, *t)
	}
	sortTables(out)
	return out
}

func sortTables(ts []store.Table) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].RoomID != ts[j].RoomID {
			return ts[i].RoomID < ts[j].RoomID
		}
		return ts[i].Position < ts[j].Position
	})
}

func statusAfter(prev store.TableStatus, players int) store.TableStatus {
	switch {
	case players == 0:
		return store.TableEmpty
	case prev == store.TablePlaying:
		return store.TablePlaying
	default:
		return store.TableWaiting
	}
}

func validSeat(seat int) bool {
	return seat >= 1 && seat <= store.SeatsPerTable
}
