package reservation

import (
	"context"
	"errors"
	"testing"

	"arcade-seats/internal/store"
)

func TestReconcileKeepsSessionSeat(t *testing.T) {
	f := newFixture(t, 10, 2)
	ctx := context.Background()
	if _, err := f.coord.JoinSeat(ctx, 1, f.tables[0], 1); err != nil {
		t.Fatalf("join: %v", err)
	}
	f.ms.ForceSeat(f.tables[1], 3, 1)

	res, err := f.coord.Reconcile(ctx, 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Kept == nil || res.Kept.TableID != f.tables[0] || res.Kept.Seat != 1 {
		t.Fatalf("kept = %+v", res.Kept)
	}
	if len(res.Removed) != 1 || res.Removed[0].TableID != f.tables[1] || res.Removed[0].Seat != 3 {
		t.Fatalf("removed = %+v", res.Removed)
	}
	if tbl := f.table(t, f.tables[1]); tbl.CurrentPlayers != 0 || tbl.Status != store.TableEmpty {
		t.Fatalf("duplicate seat not freed: %+v", tbl)
	}
	checkInvariants(t, f.ms)
}

func TestReconcileFallsBackToFirstSeatFound(t *testing.T) {
	f := newFixture(t, 10, 2)
	ctx := context.Background()
	f.ms.ForceSeat(f.tables[0], 2, 1)
	f.ms.ForceSeat(f.tables[1], 4, 1)

	res, err := f.coord.Reconcile(ctx, 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Kept == nil || res.Kept.TableID != f.tables[0] || res.Kept.Seat != 2 {
		t.Fatalf("kept = %+v", res.Kept)
	}
	sess := f.session(t, 1)
	if sess == nil || sess.TableID != f.tables[0] || sess.SeatNumber != 2 {
		t.Fatalf("session not aligned with kept seat: %+v", sess)
	}
	checkInvariants(t, f.ms)
}

func TestReconcileWithNothingToRepair(t *testing.T) {
	f := newFixture(t, 10, 1)
	res, err := f.coord.Reconcile(context.Background(), 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Kept != nil || len(res.Removed) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestJoinRepairsStraySeat(t *testing.T) {
	f := newFixture(t, 10, 2)
	ctx := context.Background()
	f.ms.ForceSeat(f.tables[0], 1, 1)

	if _, err := f.coord.JoinSeat(ctx, 1, f.tables[1], 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if tbl := f.table(t, f.tables[0]); tbl.Occupant(1) != 0 {
		t.Fatalf("stray seat survived join: %+v", tbl)
	}
	checkInvariants(t, f.ms)
}

// A crash between claiming the new seat and vacating the old one leaves the
// user on both tables with the session still naming the old seat. Reconcile
// must fall back to the old seat.
func TestTableSwitchInterruptedRollsBack(t *testing.T) {
	f := newFixture(t, 10, 2)
	ctx := context.Background()
	if _, err := f.coord.JoinSeat(ctx, 1, f.tables[0], 1); err != nil {
		t.Fatalf("join: %v", err)
	}

	boom := errors.New("connection reset")
	f.ms.FailOn("VacateSeat", boom)
	_, err := f.coord.JoinSeat(ctx, 1, f.tables[1], 2)
	if KindOf(err) != KindInternal || !errors.Is(err, boom) {
		t.Fatalf("expected internal error wrapping the store failure, got %v", err)
	}
	t0, t1 := f.table(t, f.tables[0]), f.table(t, f.tables[1])
	if t0.Occupant(1) != 1 || t1.Occupant(2) != 1 {
		t.Fatal("expected the user on both tables after the interrupted switch")
	}
	if sess := f.session(t, 1); sess.TableID != f.tables[0] || sess.SeatNumber != 1 {
		t.Fatalf("session moved before the switch finished: %+v", sess)
	}

	f.ms.FailOn("VacateSeat", nil)
	res, err := f.coord.Reconcile(ctx, 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Kept == nil || res.Kept.TableID != f.tables[0] || res.Kept.Seat != 1 {
		t.Fatalf("kept = %+v", res.Kept)
	}
	if tbl := f.table(t, f.tables[1]); tbl.CurrentPlayers != 0 {
		t.Fatalf("new seat not rolled back: %+v", tbl)
	}
	checkInvariants(t, f.ms)
}

func TestReconcileKeepsPlayingState(t *testing.T) {
	f := newFixture(t, 10, 2)
	ctx := context.Background()
	f.ms.ForceSeat(f.tables[0], 2, 1)
	f.ms.ForceSeat(f.tables[1], 4, 1)
	if _, err := f.ms.MarkTablePlaying(ctx, f.tables[0]); err != nil {
		t.Fatalf("mark playing: %v", err)
	}

	res, err := f.coord.Reconcile(ctx, 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Kept == nil || res.Kept.TableID != f.tables[0] {
		t.Fatalf("kept = %+v", res.Kept)
	}
	sess := f.session(t, 1)
	if sess == nil || sess.State != store.SessionPlaying {
		t.Fatalf("session state does not follow the playing table: %+v", sess)
	}
	checkInvariants(t, f.ms)
}
