package reservation

import (
	"context"
	"errors"

	"arcade-seats/internal/store"

	"github.com/rs/zerolog/log"
)

// Reconcile repairs a user who is seated in more than one place. The seat
// named by the session wins when a table confirms it, otherwise the first
// seat found does. Every other seat is vacated and the session is pointed at
// the kept seat.
func (c *Coordinator) Reconcile(ctx context.Context, userID int64) (res *ReconcileResult, err error) {
	ctx, span := c.startSpan(ctx, "Reconcile", userAttr(userID))
	defer func() { c.finish(span, "reconcile", err) }()

	tables, err := c.tables.FindTablesContaining(ctx, userID)
	if err != nil {
		return nil, internalError("find tables containing", err)
	}
	return c.reconcile(ctx, userID, tables)
}

// reconcileIfDuplicated runs reconcile only when the user holds more than one
// seat and reports whether it did.
func (c *Coordinator) reconcileIfDuplicated(ctx context.Context, userID int64) (bool, error) {
	tables, err := c.tables.FindTablesContaining(ctx, userID)
	if err != nil {
		return false, internalError("find tables containing", err)
	}
	if len(seatRefs(tables, userID)) <= 1 {
		return false, nil
	}
	_, err = c.reconcile(ctx, userID, tables)
	return true, err
}

func seatRefs(tables []store.Table, userID int64) []SeatRef {
	var refs []SeatRef
	for i := range tables {
		for _, seat := range tables[i].SeatsOf(userID) {
			refs = append(refs, SeatRef{RoomID: tables[i].RoomID, TableID: tables[i].ID, Seat: seat})
		}
	}
	return refs
}

func (c *Coordinator) reconcile(ctx context.Context, userID int64, tables []store.Table) (*ReconcileResult, error) {
	refs := seatRefs(tables, userID)
	sess, err := c.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &ReconcileResult{Removed: []SeatRef{}}
	if len(refs) > 0 {
		keep := refs[0]
		if sess.HasSeat() {
			for _, r := range refs {
				if r.TableID == sess.TableID && r.Seat == sess.SeatNumber {
					keep = r
					break
				}
			}
		}
		res.Kept = &keep
	}

	for _, r := range refs {
		if res.Kept != nil && r == *res.Kept {
			continue
		}
		t, err := c.tables.VacateSeat(ctx, r.TableID, r.Seat, userID)
		if errors.Is(err, store.ErrSeatMismatch) || errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return res, internalError("vacate duplicate seat", err)
		}
		res.Removed = append(res.Removed, r)
		c.record(ctx, store.Transition{UserID: userID, Kind: "leave_seat", Reason: "reconcile", RoomID: t.RoomID, TableID: r.TableID, Seat: r.Seat})
		c.publishSeat(t, SeatChanged{UserID: userID, Kind: "leave", FromSeat: r.Seat, Reason: "reconcile"})
	}

	if err := c.alignSession(ctx, userID, sess, res.Kept, keptState(tables, res.Kept)); err != nil {
		return res, err
	}
	if len(res.Removed) > 0 {
		metricReconcileTotal.Add(1)
		metricReconcileSeatsFreed.Add(int64(len(res.Removed)))
		log.Warn().Int64("user_id", userID).Int("removed", len(res.Removed)).Msg("duplicate_seats_reconciled")
	}
	return res, nil
}

// keptState is the session state that matches the table holding kept.
func keptState(tables []store.Table, kept *SeatRef) store.SessionState {
	if kept == nil {
		return store.SessionIdle
	}
	for i := range tables {
		if tables[i].ID == kept.TableID && tables[i].Status == store.TablePlaying {
			return store.SessionPlaying
		}
	}
	return store.SessionWaiting
}

// alignSession points the session at kept in state, or clears its seat when
// nothing was kept.
func (c *Coordinator) alignSession(ctx context.Context, userID int64, sess *store.Session, kept *SeatRef, state store.SessionState) error {
	now := c.now()
	switch {
	case kept == nil && sess.HasSeat():
		if _, err := c.sessions.ClearSessionSeat(ctx, userID, sess.TableID, sess.SeatNumber, now); err != nil {
			return internalError("clear session seat", err)
		}
	case kept != nil && (sess == nil || sess.TableID != kept.TableID || sess.SeatNumber != kept.Seat || sess.State != state):
		next := store.Session{UserID: userID, TableID: kept.TableID, SeatNumber: kept.Seat, State: state, LastActivity: now}
		if sess != nil {
			next.RoomID = sess.RoomID
		}
		if _, err := c.sessions.SaveSession(ctx, next); err != nil {
			return internalError("save session", err)
		}
	}
	return nil
}
