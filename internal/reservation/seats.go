package reservation

import (
	"context"
	"errors"

	"arcade-seats/internal/store"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

func validSeat(seat int) bool {
	return seat >= 1 && seat <= store.SeatsPerTable
}

// JoinSeat claims seat on tableID for userID. A seat the user already holds is
// given up in the same call: on the same table the seat moves in one write,
// on another table the new seat is claimed before the old one is vacated. The
// room online counter is never touched here.
func (c *Coordinator) JoinSeat(ctx context.Context, userID int64, tableID string, seat int) (res *JoinSeatResult, err error) {
	ctx, span := c.startSpan(ctx, "JoinSeat", userAttr(userID), attribute.String("table.id", tableID), attribute.Int("seat", seat))
	defer func() { c.finish(span, "join_seat", err) }()

	if !validSeat(seat) {
		return nil, ErrInvalidSeat
	}
	table, err := c.tables.GetTable(ctx, tableID)
	if err != nil {
		return nil, mapStoreErr("get table", err, ErrTableNotFound)
	}
	if table.Status == store.TablePlaying {
		return nil, ErrTableBusy
	}
	switch occ := table.Occupant(seat); {
	case occ == userID:
		return nil, ErrAlreadySeated
	case occ != 0:
		return nil, ErrSeatOccupied
	}

	sess, err := c.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	roomID := ""
	var prev *SeatRef
	if sess != nil {
		roomID = sess.RoomID
		if sess.HasSeat() {
			prev = &SeatRef{RoomID: sess.RoomID, TableID: sess.TableID, Seat: sess.SeatNumber}
		}
	}
	if roomID != "" && roomID != table.RoomID {
		return nil, ErrNotInRoom
	}
	// A session naming a seat on this table that the table no longer gives to
	// the user is stale; treat it as no prior seat.
	if prev != nil && prev.TableID == tableID && table.Occupant(prev.Seat) != userID {
		prev = nil
	}

	kind := SwitchNone
	var updated *store.Table
	switch {
	case prev == nil:
		updated, err = c.tables.OccupySeat(ctx, tableID, seat, userID)
		if err != nil {
			return nil, mapStoreErr("occupy seat", err, ErrTableNotFound)
		}
	case prev.TableID == tableID:
		kind = SwitchSeat
		updated, err = c.tables.MoveSeat(ctx, tableID, prev.Seat, seat, userID)
		if err != nil {
			return nil, mapStoreErr("move seat", err, ErrTableNotFound)
		}
	default:
		kind = SwitchTable
		updated, err = c.tables.OccupySeat(ctx, tableID, seat, userID)
		if err != nil {
			return nil, mapStoreErr("occupy seat", err, ErrTableNotFound)
		}
		old, err := c.tables.VacateSeat(ctx, prev.TableID, prev.Seat, userID)
		switch {
		case err == nil:
			prev.RoomID = old.RoomID
			c.publishSeat(old, SeatChanged{UserID: userID, Kind: "leave", FromSeat: prev.Seat, Reason: "table_switch"})
		case errors.Is(err, store.ErrSeatMismatch), errors.Is(err, store.ErrNotFound):
			// Old seat was already released elsewhere.
			prev, kind = nil, SwitchNone
		default:
			return nil, internalError("vacate previous seat", err)
		}
	}

	if _, err := c.sessions.SaveSession(ctx, store.Session{
		UserID:       userID,
		RoomID:       roomID,
		TableID:      tableID,
		SeatNumber:   seat,
		State:        store.SessionWaiting,
		LastActivity: c.now(),
	}); err != nil {
		return nil, internalError("save session", err)
	}

	tr := store.Transition{UserID: userID, Kind: "join_seat", RoomID: updated.RoomID, TableID: tableID, Seat: seat}
	ev := SeatChanged{UserID: userID, Kind: "join", ToSeat: seat}
	if prev != nil {
		tr.FromTableID, tr.FromSeat = prev.TableID, prev.Seat
		ev.FromTableID, ev.FromSeat = prev.TableID, prev.Seat
		ev.Kind = "switch_" + string(kind)
	}
	c.record(ctx, tr)
	c.publishSeat(updated, ev)
	log.Info().Int64("user_id", userID).Str("table_id", tableID).Int("seat", seat).Str("switch", string(kind)).Msg("seat_joined")

	if dup, err := c.reconcileIfDuplicated(ctx, userID); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("post_join_reconcile_failed")
	} else if dup {
		if t, err := c.tables.GetTable(ctx, tableID); err == nil {
			updated = t
		}
	}

	return &JoinSeatResult{Table: viewOf(updated), SwitchKind: kind, PreviousSeat: prev}, nil
}

// LeaveSeat releases seat on tableID. The seat must hold userID.
func (c *Coordinator) LeaveSeat(ctx context.Context, userID int64, tableID string, seat int) (err error) {
	ctx, span := c.startSpan(ctx, "LeaveSeat", userAttr(userID), attribute.String("table.id", tableID), attribute.Int("seat", seat))
	defer func() { c.finish(span, "leave_seat", err) }()
	return c.leaveSeat(ctx, userID, tableID, seat, "user")
}

func (c *Coordinator) leaveSeat(ctx context.Context, userID int64, tableID string, seat int, reason string) error {
	if !validSeat(seat) {
		return ErrInvalidSeat
	}
	t, err := c.tables.VacateSeat(ctx, tableID, seat, userID)
	if err != nil {
		return mapStoreErr("vacate seat", err, ErrTableNotFound)
	}
	if _, err := c.sessions.ClearSessionSeat(ctx, userID, tableID, seat, c.now()); err != nil {
		return internalError("clear session seat", err)
	}

	c.record(ctx, store.Transition{UserID: userID, Kind: "leave_seat", Reason: reason, RoomID: t.RoomID, TableID: tableID, Seat: seat})
	c.publishSeat(t, SeatChanged{UserID: userID, Kind: "leave", FromSeat: seat, Reason: reason})
	log.Info().Int64("user_id", userID).Str("table_id", tableID).Int("seat", seat).Str("reason", reason).Msg("seat_left")
	return nil
}
