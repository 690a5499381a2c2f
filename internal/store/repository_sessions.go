package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `user_id, room_id, table_id, seat_number, state, last_activity, created_at`

func scanSession(row pgx.Row) (*Session, error) {
	var (
		sess    Session
		roomID  pgtype.Text
		tableID pgtype.Text
		seat    pgtype.Int4
		state   string
	)
	if err := row.Scan(&sess.UserID, &roomID, &tableID, &seat, &state, &sess.LastActivity, &sess.CreatedAt); err != nil {
		return nil, err
	}
	sess.RoomID = textVal(roomID)
	sess.TableID = textVal(tableID)
	sess.SeatNumber = seatVal(seat)
	sess.State = SessionState(state)
	return &sess, nil
}

func (s *Store) GetSession(ctx context.Context, userID int64) (*Session, error) {
	sess, err := scanSession(s.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1`, userID))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sess, nil
}

// SaveSession writes the full location of one user, creating the row on first use.
func (s *Store) SaveSession(ctx context.Context, sess Session) (*Session, error) {
	out, err := scanSession(s.Pool.QueryRow(ctx, `
		INSERT INTO sessions (user_id, room_id, table_id, seat_number, state, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET room_id = EXCLUDED.room_id,
		    table_id = EXCLUDED.table_id,
		    seat_number = EXCLUDED.seat_number,
		    state = EXCLUDED.state,
		    last_activity = EXCLUDED.last_activity
		RETURNING `+sessionColumns,
		sess.UserID, textParam(sess.RoomID), textParam(sess.TableID), seatParam(sess.SeatNumber),
		string(sess.State), timestamptzParam(sess.LastActivity)))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClearSessionSeat drops the seat from a session only while the session still
// points at tableID/seat. It reports whether a row changed.
func (s *Store) ClearSessionSeat(ctx context.Context, userID int64, tableID string, seat int, now time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions
		SET table_id = NULL, seat_number = NULL, state = 'idle', last_activity = $4
		WHERE user_id = $1 AND table_id = $2 AND seat_number = $3`,
		userID, tableID, seat, timestamptzParam(now))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ResetSession returns a session to the idle, unassigned shape only while it
// is still in roomID. It reports whether a row changed.
func (s *Store) ResetSession(ctx context.Context, userID int64, roomID string, now time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions
		SET room_id = NULL, table_id = NULL, seat_number = NULL, state = 'idle', last_activity = $3
		WHERE user_id = $1 AND room_id = $2`, userID, roomID, timestamptzParam(now))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MoveSessionRoom places the session in toRoom with no seat only while it is
// still in fromRoom. An empty fromRoom matches a session in no room and a
// user with no session yet. It reports whether a row changed.
func (s *Store) MoveSessionRoom(ctx context.Context, userID int64, fromRoom, toRoom string, now time.Time) (bool, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if fromRoom == "" {
		tag, err = s.Pool.Exec(ctx, `
			INSERT INTO sessions (user_id, room_id, state, last_activity)
			VALUES ($1, $2, 'idle', $3)
			ON CONFLICT (user_id) DO UPDATE
			SET room_id = EXCLUDED.room_id,
			    table_id = NULL,
			    seat_number = NULL,
			    state = 'idle',
			    last_activity = EXCLUDED.last_activity
			WHERE sessions.room_id IS NULL`, userID, toRoom, timestamptzParam(now))
	} else {
		tag, err = s.Pool.Exec(ctx, `
			UPDATE sessions
			SET room_id = $3, table_id = NULL, seat_number = NULL, state = 'idle', last_activity = $4
			WHERE user_id = $1 AND room_id = $2`, userID, fromRoom, toRoom, timestamptzParam(now))
	}
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) TouchSession(ctx context.Context, userID int64, now time.Time) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE sessions SET last_activity = $2 WHERE user_id = $1`, userID, timestamptzParam(now))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSessionStateAtTable moves every session seated at tableID to state.
func (s *Store) SetSessionStateAtTable(ctx context.Context, tableID string, state SessionState, now time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET state = $2, last_activity = $3
		WHERE table_id = $1`, tableID, string(state), timestamptzParam(now))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListStaleSessions returns up to limit sessions in one of states whose last
// activity is before cutoff, oldest first.
func (s *Store) ListStaleSessions(ctx context.Context, cutoff time.Time, states []SessionState, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	names := make([]string, 0, len(states))
	for _, st := range states {
		names = append(names, string(st))
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE last_activity < $1 AND state = ANY($2)
		ORDER BY last_activity ASC
		LIMIT $3`, timestamptzParam(cutoff), names, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// PurgeIdleSessions deletes sessions idle with no room since before cutoff.
func (s *Store) PurgeIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `
		DELETE FROM sessions
		WHERE state = 'idle' AND room_id IS NULL AND table_id IS NULL AND last_activity < $1`,
		timestamptzParam(cutoff))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
