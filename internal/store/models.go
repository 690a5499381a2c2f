package store

import "time"

const SeatsPerTable = 4

type TableStatus string

const (
	TableEmpty   TableStatus = "empty"
	TableWaiting TableStatus = "waiting"
	TablePlaying TableStatus = "playing"
)

type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionWaiting    SessionState = "waiting"
	SessionPlaying    SessionState = "playing"
	SessionSpectating SessionState = "spectating"
)

type Room struct {
	ID          string    `json:"id"`
	Game        string    `json:"game"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	OnlineCount int       `json:"online_count"`
	Full        bool      `json:"full"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Table is one 4-seat unit. A zero entry in Seats is an empty seat; user ids
// are always positive.
type Table struct {
	ID             string
	RoomID         string
	Position       int
	Seats          [SeatsPerTable]int64
	CurrentPlayers int
	Status         TableStatus
	UpdatedAt      time.Time
}

// Occupant returns the user in seat (1-based), or 0.
func (t *Table) Occupant(seat int) int64 {
	if seat < 1 || seat > SeatsPerTable {
		return 0
	}
	return t.Seats[seat-1]
}

// SeatsOf lists every seat (1-based) that holds userID.
func (t *Table) SeatsOf(userID int64) []int {
	var out []int
	for i, occ := range t.Seats {
		if occ == userID && userID != 0 {
			out = append(out, i+1)
		}
	}
	return out
}

// SeatOf returns the first seat holding userID, or 0.
func (t *Table) SeatOf(userID int64) int {
	if seats := t.SeatsOf(userID); len(seats) > 0 {
		return seats[0]
	}
	return 0
}

func (t *Table) Occupied() int {
	n := 0
	for _, occ := range t.Seats {
		if occ != 0 {
			n++
		}
	}
	return n
}

type Session struct {
	UserID       int64
	RoomID       string
	TableID      string
	SeatNumber   int
	State        SessionState
	LastActivity time.Time
	CreatedAt    time.Time
}

func (s *Session) HasSeat() bool {
	return s != nil && s.TableID != "" && s.SeatNumber != 0
}

// Transition is one row of the seat audit trail.
type Transition struct {
	ID          string
	UserID      int64
	Kind        string
	Reason      string
	RoomID      string
	TableID     string
	Seat        int
	FromTableID string
	FromSeat    int
	CreatedAt   time.Time
}
