package reservation

import (
	"context"
	"time"

	"arcade-seats/internal/store"
)

// RoomDirectory owns room capacity and the online counter.
type RoomDirectory interface {
	GetRoom(ctx context.Context, id string) (*store.Room, error)
	ListRooms(ctx context.Context) ([]store.Room, error)
	IncrementOnline(ctx context.Context, id string) (*store.Room, error)
	DecrementOnline(ctx context.Context, id string) (*store.Room, error)
}

// TableSeatMap owns the four seats of every table. Each mutating method is a
// single conditional write.
type TableSeatMap interface {
	GetTable(ctx context.Context, id string) (*store.Table, error)
	ListTables(ctx context.Context, roomID string) ([]store.Table, error)
	FindTablesContaining(ctx context.Context, userID int64) ([]store.Table, error)
	FindSeatOfUser(ctx context.Context, tableID string, userID int64) (int, error)
	OccupySeat(ctx context.Context, tableID string, seat int, userID int64) (*store.Table, error)
	VacateSeat(ctx context.Context, tableID string, seat int, userID int64) (*store.Table, error)
	MoveSeat(ctx context.Context, tableID string, from, to int, userID int64) (*store.Table, error)
	MarkTablePlaying(ctx context.Context, tableID string) (*store.Table, error)
	ResetTable(ctx context.Context, tableID string) ([store.SeatsPerTable]int64, *store.Table, error)
}

// SessionRegistry holds exactly one location record per user.
type SessionRegistry interface {
	GetSession(ctx context.Context, userID int64) (*store.Session, error)
	SaveSession(ctx context.Context, sess store.Session) (*store.Session, error)
	ClearSessionSeat(ctx context.Context, userID int64, tableID string, seat int, now time.Time) (bool, error)
	ResetSession(ctx context.Context, userID int64, roomID string, now time.Time) (bool, error)
	MoveSessionRoom(ctx context.Context, userID int64, fromRoom, toRoom string, now time.Time) (bool, error)
	TouchSession(ctx context.Context, userID int64, now time.Time) error
	SetSessionStateAtTable(ctx context.Context, tableID string, state store.SessionState, now time.Time) (int64, error)
	ListStaleSessions(ctx context.Context, cutoff time.Time, states []store.SessionState, limit int) ([]store.Session, error)
	PurgeIdleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// TransitionLog receives one row per completed seat or room transition.
type TransitionLog interface {
	AppendTransition(ctx context.Context, tr store.Transition) error
}

// Broadcaster pushes an event to everyone watching a room. Delivery is best
// effort.
type Broadcaster interface {
	Publish(roomID, event string, data any) error
}

// SwitchKind says what JoinSeat did with a seat the user already held.
type SwitchKind string

const (
	SwitchNone  SwitchKind = "none"
	SwitchSeat  SwitchKind = "seat"
	SwitchTable SwitchKind = "table"
)

type SeatRef struct {
	RoomID  string `json:"room_id,omitempty"`
	TableID string `json:"table_id"`
	Seat    int    `json:"seat"`
}

type EnterRoomResult struct {
	Room         store.Room `json:"room"`
	PreviousSeat *SeatRef   `json:"previous_seat,omitempty"`
}

type JoinSeatResult struct {
	Table        TableView  `json:"table"`
	SwitchKind   SwitchKind `json:"switch_kind"`
	PreviousSeat *SeatRef   `json:"previous_seat,omitempty"`
}

type ReconcileResult struct {
	Kept    *SeatRef  `json:"kept,omitempty"`
	Removed []SeatRef `json:"removed"`
}

// Location is the caller-facing view of a session.
type Location struct {
	UserID       int64              `json:"user_id"`
	RoomID       string             `json:"room_id,omitempty"`
	TableID      string             `json:"table_id,omitempty"`
	SeatNumber   int                `json:"seat_number,omitempty"`
	State        store.SessionState `json:"state"`
	LastActivity time.Time          `json:"last_activity"`
}

type TableView struct {
	TableID        string                      `json:"table_id"`
	RoomID         string                      `json:"room_id"`
	Position       int                         `json:"position"`
	Status         store.TableStatus           `json:"status"`
	CurrentPlayers int                         `json:"current_players"`
	Seats          [store.SeatsPerTable]*int64 `json:"seats"`
}

func viewOf(t *store.Table) TableView {
	v := TableView{
		TableID:        t.ID,
		RoomID:         t.RoomID,
		Position:       t.Position,
		Status:         t.Status,
		CurrentPlayers: t.CurrentPlayers,
	}
	for i, occ := range t.Seats {
		if occ != 0 {
			id := occ
			v.Seats[i] = &id
		}
	}
	return v
}

func locationOf(sess *store.Session) *Location {
	return &Location{
		UserID:       sess.UserID,
		RoomID:       sess.RoomID,
		TableID:      sess.TableID,
		SeatNumber:   sess.SeatNumber,
		State:        sess.State,
		LastActivity: sess.LastActivity,
	}
}
