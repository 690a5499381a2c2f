package store

import (
	"errors"
	"testing"
	"time"
)

func TestSessionStoreCRUD(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	roomID, tables := mustRoomWithTables(t, st, ctx, 10, 1)
	now := time.Now().UTC().Truncate(time.Millisecond)

	if _, err := st.GetSession(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	sess, err := st.SaveSession(ctx, Session{UserID: 7, RoomID: roomID, State: SessionIdle, LastActivity: now})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if sess.RoomID != roomID || sess.HasSeat() {
		t.Fatalf("unexpected session: %+v", sess)
	}

	sess, err = st.SaveSession(ctx, Session{UserID: 7, RoomID: roomID, TableID: tables[0], SeatNumber: 3, State: SessionWaiting, LastActivity: now})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if sess.TableID != tables[0] || sess.SeatNumber != 3 || sess.State != SessionWaiting {
		t.Fatalf("unexpected seated session: %+v", sess)
	}

	ok, err := st.ClearSessionSeat(ctx, 7, tables[0], 2, now)
	if err != nil || ok {
		t.Fatalf("clear with wrong seat = %v, %v; want no-op", ok, err)
	}
	ok, err = st.ClearSessionSeat(ctx, 7, tables[0], 3, now)
	if err != nil || !ok {
		t.Fatalf("clear seat = %v, %v", ok, err)
	}
	got, err := st.GetSession(ctx, 7)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.HasSeat() || got.State != SessionIdle || got.RoomID != roomID {
		t.Fatalf("unexpected cleared session: %+v", got)
	}

	ok, err = st.ResetSession(ctx, 7, "other-room", now)
	if err != nil || ok {
		t.Fatalf("reset from wrong room = %v, %v; want no-op", ok, err)
	}
	ok, err = st.ResetSession(ctx, 7, roomID, now)
	if err != nil || !ok {
		t.Fatalf("reset = %v, %v", ok, err)
	}
	ok, err = st.ResetSession(ctx, 7, roomID, now)
	if err != nil || ok {
		t.Fatalf("second reset = %v, %v; want no-op", ok, err)
	}
	got, err = st.GetSession(ctx, 7)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.RoomID != "" || got.State != SessionIdle {
		t.Fatalf("unexpected reset session: %+v", got)
	}
	if err := st.TouchSession(ctx, 99, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("touch missing: expected ErrNotFound, got %v", err)
	}
}

func TestListStaleAndPurgeSessions(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	roomID, tables := mustRoomWithTables(t, st, ctx, 10, 1)
	now := time.Now().UTC()
	old := now.Add(-10 * time.Minute)

	mustSave := func(sess Session) {
		t.Helper()
		if _, err := st.SaveSession(ctx, sess); err != nil {
			t.Fatalf("save session %d: %v", sess.UserID, err)
		}
	}
	mustSave(Session{UserID: 1, RoomID: roomID, TableID: tables[0], SeatNumber: 1, State: SessionWaiting, LastActivity: old})
	mustSave(Session{UserID: 2, RoomID: roomID, TableID: tables[0], SeatNumber: 2, State: SessionWaiting, LastActivity: now})
	mustSave(Session{UserID: 3, RoomID: roomID, State: SessionIdle, LastActivity: old})
	mustSave(Session{UserID: 4, State: SessionIdle, LastActivity: old})

	stale, err := st.ListStaleSessions(ctx, now.Add(-time.Minute), []SessionState{SessionWaiting, SessionPlaying}, 10)
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 1 || stale[0].UserID != 1 {
		t.Fatalf("unexpected stale sessions: %+v", stale)
	}

	n, err := st.PurgeIdleSessions(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged session, got %d", n)
	}
	if _, err := st.GetSession(ctx, 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected purged session gone, got %v", err)
	}
	if _, err := st.GetSession(ctx, 3); err != nil {
		t.Fatalf("session in a room must survive purge: %v", err)
	}
}

func TestTransitionLogAppendAndList(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	for _, kind := range []string{"enter_room", "join_seat", "leave_seat"} {
		if err := st.AppendTransition(ctx, Transition{UserID: 7, Kind: kind, RoomID: "r", TableID: "t", Seat: 2}); err != nil {
			t.Fatalf("append %s: %v", kind, err)
		}
	}
	got, err := st.ListTransitions(ctx, 7, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].Kind != "leave_seat" || got[2].Kind != "enter_room" {
		t.Fatalf("unexpected transitions: %+v", got)
	}
	if got[0].Seat != 2 || got[0].FromSeat != 0 {
		t.Fatalf("unexpected seat columns: %+v", got[0])
	}
}

func TestMoveSessionRoomComparesPreviousRoom(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	roomID, tables := mustRoomWithTables(t, st, ctx, 10, 1)
	now := time.Now().UTC()

	ok, err := st.MoveSessionRoom(ctx, 7, "", roomID, now)
	if err != nil || !ok {
		t.Fatalf("first move = %v, %v", ok, err)
	}
	ok, err = st.MoveSessionRoom(ctx, 7, "", roomID, now)
	if err != nil || ok {
		t.Fatalf("move from no room after entering = %v, %v; want no-op", ok, err)
	}
	if ok, err = st.MoveSessionRoom(ctx, 8, roomID, roomID, now); err != nil || ok {
		t.Fatalf("move of missing session = %v, %v; want no-op", ok, err)
	}

	if _, err := st.SaveSession(ctx, Session{UserID: 7, RoomID: roomID, TableID: tables[0], SeatNumber: 2, State: SessionWaiting, LastActivity: now}); err != nil {
		t.Fatalf("seat session: %v", err)
	}
	ok, err = st.MoveSessionRoom(ctx, 7, roomID, roomID, now)
	if err != nil || !ok {
		t.Fatalf("re-entry move = %v, %v", ok, err)
	}
	got, err := st.GetSession(ctx, 7)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.RoomID != roomID || got.HasSeat() || got.State != SessionIdle {
		t.Fatalf("unexpected moved session: %+v", got)
	}
}
