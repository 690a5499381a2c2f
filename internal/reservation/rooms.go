package reservation

import (
	"context"

	"arcade-seats/internal/store"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// enterRoomAttempts bounds how often EnterRoom starts over after another
// transition changed the user's room between its read and its write.
const enterRoomAttempts = 3

// EnterRoom places userID in roomID with no seat. Any seat the user still
// holds, in any room, is released first. Moving from another room gives that
// room its slot back; entering the current room again is not counted twice.
func (c *Coordinator) EnterRoom(ctx context.Context, userID int64, roomID string) (res *EnterRoomResult, err error) {
	ctx, span := c.startSpan(ctx, "EnterRoom", userAttr(userID), attribute.String("room.id", roomID))
	defer func() { c.finish(span, "enter_room", err) }()

	var (
		room     *store.Room
		released []SeatRef
	)
	for attempt := 1; ; attempt++ {
		var (
			prevRoom string
			freed    []SeatRef
			moved    bool
		)
		room, prevRoom, freed, moved, err = c.enterRoomOnce(ctx, userID, roomID)
		released = append(released, freed...)
		if err != nil {
			return nil, err
		}
		if moved {
			c.finishRoomMove(ctx, userID, prevRoom, roomID, room)
			break
		}
		metricRoomRetriesTotal.Add(1)
		log.Debug().Int64("user_id", userID).Str("room_id", roomID).Int("attempt", attempt).Msg("enter_room_session_changed")
		if attempt == enterRoomAttempts {
			return nil, ErrSessionChanged
		}
	}

	res = &EnterRoomResult{Room: *room}
	if len(released) > 0 {
		prev := released[0]
		res.PreviousSeat = &prev
	}
	return res, nil
}

// enterRoomOnce reads the session's room, takes a slot in roomID unless the
// user is already counted there, and then moves the session only if its room
// is still the one it read. When moved is false the slot has been handed back
// and the caller starts over.
func (c *Coordinator) enterRoomOnce(ctx context.Context, userID int64, roomID string) (room *store.Room, prevRoom string, released []SeatRef, moved bool, err error) {
	sess, err := c.loadSession(ctx, userID)
	if err != nil {
		return nil, "", nil, false, err
	}
	if sess != nil {
		prevRoom = sess.RoomID
	}

	// The increment is the capacity check, so a full room fails before
	// anything else changes.
	if prevRoom == roomID {
		room, err = c.rooms.GetRoom(ctx, roomID)
	} else {
		room, err = c.rooms.IncrementOnline(ctx, roomID)
	}
	if err != nil {
		return nil, prevRoom, nil, false, mapStoreErr("enter room", err, ErrRoomNotFound)
	}

	released, err = c.releaseAllSeats(ctx, userID, "enter_room")
	if err != nil {
		c.undoIncrement(ctx, roomID, prevRoom)
		return nil, prevRoom, released, false, err
	}

	moved, err = c.sessions.MoveSessionRoom(ctx, userID, prevRoom, roomID, c.now())
	if err != nil {
		c.undoIncrement(ctx, roomID, prevRoom)
		return nil, prevRoom, released, false, internalError("move session room", err)
	}
	if !moved {
		c.undoIncrement(ctx, roomID, prevRoom)
	}
	return room, prevRoom, released, moved, nil
}

// finishRoomMove frees the slot in the room the user came from and reports
// the move. The session already names roomID.
func (c *Coordinator) finishRoomMove(ctx context.Context, userID int64, prevRoom, roomID string, room *store.Room) {
	if prevRoom != "" && prevRoom != roomID {
		if old, err := c.rooms.DecrementOnline(ctx, prevRoom); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Str("room_id", prevRoom).Msg("previous_room_decrement_failed")
		} else {
			c.record(ctx, store.Transition{UserID: userID, Kind: "leave_room", Reason: "room_move", RoomID: prevRoom})
			c.publishRoom(old)
		}
	}

	c.record(ctx, store.Transition{UserID: userID, Kind: "enter_room", RoomID: roomID})
	c.publishRoom(room)
	log.Info().Int64("user_id", userID).Str("room_id", roomID).Int("online", room.OnlineCount).Msg("room_entered")
}

func (c *Coordinator) undoIncrement(ctx context.Context, roomID, prevRoom string) {
	if prevRoom == roomID {
		return
	}
	if _, err := c.rooms.DecrementOnline(ctx, roomID); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("room_increment_rollback_failed")
	}
}

// LeaveRoom releases the user's seats, resets the session and frees one slot
// in roomID.
func (c *Coordinator) LeaveRoom(ctx context.Context, userID int64, roomID string) (err error) {
	ctx, span := c.startSpan(ctx, "LeaveRoom", userAttr(userID), attribute.String("room.id", roomID))
	defer func() { c.finish(span, "leave_room", err) }()
	return c.leaveRoom(ctx, userID, roomID, "user")
}

func (c *Coordinator) leaveRoom(ctx context.Context, userID int64, roomID, reason string) error {
	sess, err := c.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if sess.RoomID == "" || sess.RoomID != roomID {
		return ErrNotInRoom
	}

	if _, err := c.releaseAllSeats(ctx, userID, reason); err != nil {
		return err
	}
	// Only the call that actually takes the session out of roomID frees the
	// slot; a concurrent leave for the same user loses here.
	left, err := c.sessions.ResetSession(ctx, userID, roomID, c.now())
	if err != nil {
		return internalError("reset session", err)
	}
	if !left {
		return ErrNotInRoom
	}
	room, err := c.rooms.DecrementOnline(ctx, roomID)
	if err != nil {
		return mapStoreErr("decrement online", err, ErrRoomNotFound)
	}

	c.record(ctx, store.Transition{UserID: userID, Kind: "leave_room", Reason: reason, RoomID: roomID})
	c.publishRoom(room)
	log.Info().Int64("user_id", userID).Str("room_id", roomID).Str("reason", reason).Msg("room_left")
	return nil
}
