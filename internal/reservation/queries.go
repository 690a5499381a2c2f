package reservation

import (
	"context"

	"arcade-seats/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

func (c *Coordinator) GetCurrentLocation(ctx context.Context, userID int64) (*Location, error) {
	sess, err := c.sessions.GetSession(ctx, userID)
	if err != nil {
		return nil, mapStoreErr("get session", err, ErrSessionNotFound)
	}
	return locationOf(sess), nil
}

func (c *Coordinator) ListRooms(ctx context.Context) ([]store.Room, error) {
	rooms, err := c.rooms.ListRooms(ctx)
	if err != nil {
		return nil, internalError("list rooms", err)
	}
	return rooms, nil
}

// ListRoomTables returns every table of roomID ordered by position.
func (c *Coordinator) ListRoomTables(ctx context.Context, roomID string) ([]TableView, error) {
	if _, err := c.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, mapStoreErr("get room", err, ErrRoomNotFound)
	}
	tables, err := c.tables.ListTables(ctx, roomID)
	if err != nil {
		return nil, internalError("list tables", err)
	}
	out := make([]TableView, 0, len(tables))
	for i := range tables {
		out = append(out, viewOf(&tables[i]))
	}
	return out, nil
}

// Touch refreshes the user's last activity so the reaper leaves them alone.
func (c *Coordinator) Touch(ctx context.Context, userID int64) (err error) {
	ctx, span := c.startSpan(ctx, "Touch", userAttr(userID))
	defer func() { c.finish(span, "touch", err) }()
	if err := c.sessions.TouchSession(ctx, userID, c.now()); err != nil {
		return mapStoreErr("touch session", err, ErrSessionNotFound)
	}
	return nil
}

// StartGame marks an occupied table as playing. Seated users move to the
// playing state and new claims on the table fail with ErrTableBusy.
func (c *Coordinator) StartGame(ctx context.Context, tableID string) (view *TableView, err error) {
	ctx, span := c.startSpan(ctx, "StartGame", attribute.String("table.id", tableID))
	defer func() { c.finish(span, "start_game", err) }()

	t, err := c.tables.MarkTablePlaying(ctx, tableID)
	if err != nil {
		return nil, mapStoreErr("mark table playing", err, ErrTableNotFound)
	}
	if _, err := c.sessions.SetSessionStateAtTable(ctx, tableID, store.SessionPlaying, c.now()); err != nil {
		return nil, internalError("set session state", err)
	}
	v := viewOf(t)
	c.publish(t.RoomID, EventTableChanged, TableChanged{Table: v})
	return &v, nil
}

// EndGame clears every seat of tableID. Users who were seated stay in their
// room with no seat.
func (c *Coordinator) EndGame(ctx context.Context, tableID string) (view *TableView, err error) {
	ctx, span := c.startSpan(ctx, "EndGame", attribute.String("table.id", tableID))
	defer func() { c.finish(span, "end_game", err) }()

	prev, t, err := c.tables.ResetTable(ctx, tableID)
	if err != nil {
		return nil, mapStoreErr("reset table", err, ErrTableNotFound)
	}
	now := c.now()
	for i, userID := range prev {
		if userID == 0 {
			continue
		}
		seat := i + 1
		if _, err := c.sessions.ClearSessionSeat(ctx, userID, tableID, seat, now); err != nil {
			return nil, internalError("clear session seat", err)
		}
		c.record(ctx, store.Transition{UserID: userID, Kind: "leave_seat", Reason: "game_ended", RoomID: t.RoomID, TableID: tableID, Seat: seat})
		c.publishSeat(t, SeatChanged{UserID: userID, Kind: "leave", FromSeat: seat, Reason: "game_ended"})
	}
	v := viewOf(t)
	c.publish(t.RoomID, EventTableChanged, TableChanged{Table: v})
	return &v, nil
}
