package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) AppendTransition(ctx context.Context, tr Transition) error {
	if tr.ID == "" {
		tr.ID = NewID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO seat_transitions (id, user_id, kind, reason, room_id, table_id, seat_number, from_table_id, from_seat, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tr.ID, tr.UserID, tr.Kind, tr.Reason, tr.RoomID, tr.TableID, seatParam(tr.Seat),
		tr.FromTableID, seatParam(tr.FromSeat), timestamptzParam(tr.CreatedAt))
	return err
}

// ListTransitions returns the newest transitions of one user first.
func (s *Store) ListTransitions(ctx context.Context, userID int64, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, user_id, kind, reason, room_id, table_id, seat_number, from_table_id, from_seat, created_at
		FROM seat_transitions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transition{}
	for rows.Next() {
		var (
			tr       Transition
			seat     pgtype.Int4
			fromSeat pgtype.Int4
		)
		if err := rows.Scan(&tr.ID, &tr.UserID, &tr.Kind, &tr.Reason, &tr.RoomID, &tr.TableID, &seat, &tr.FromTableID, &fromSeat, &tr.CreatedAt); err != nil {
			return nil, err
		}
		tr.Seat = seatVal(seat)
		tr.FromSeat = seatVal(fromSeat)
		out = append(out, tr)
	}
	return out, rows.Err()
}
