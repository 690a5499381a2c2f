package reservation

const (
	EventSeatChanged  = "seat_changed"
	EventRoomChanged  = "room_changed"
	EventTableChanged = "table_changed"
)

// SeatChanged describes one seat transition. FromSeat is zero for a fresh
// claim and ToSeat is zero for a release.
type SeatChanged struct {
	RoomID         string     `json:"room_id"`
	TableID        string     `json:"table_id"`
	UserID         int64      `json:"user_id"`
	Kind           string     `json:"kind"`
	FromTableID    string     `json:"from_table_id,omitempty"`
	FromSeat       int        `json:"from_seat,omitempty"`
	ToSeat         int        `json:"to_seat,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	CurrentPlayers int        `json:"current_players"`
	Table          *TableView `json:"table,omitempty"`
}

type RoomChanged struct {
	RoomID      string `json:"room_id"`
	OnlineCount int    `json:"online_count"`
	Capacity    int    `json:"capacity"`
	Full        bool   `json:"full"`
}

type TableChanged struct {
	Table TableView `json:"table"`
}
