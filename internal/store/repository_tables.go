package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, room_id, position, seats, current_players, status, updated_at`

func scanTable(row pgx.Row) (*Table, error) {
	var (
		t      Table
		seats  []pgtype.Int8
		status string
	)
	if err := row.Scan(&t.ID, &t.RoomID, &t.Position, &seats, &t.CurrentPlayers, &status, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Seats = seatsVal(seats)
	t.Status = TableStatus(status)
	return &t, nil
}

func (s *Store) GetTable(ctx context.Context, id string) (*Table, error) {
	t, err := scanTable(s.Pool.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return t, nil
}

func (s *Store) ListTables(ctx context.Context, roomID string) ([]Table, error) {
	return s.queryTables(ctx, `SELECT `+tableColumns+` FROM tables WHERE room_id = $1 ORDER BY position ASC`, roomID)
}

// FindTablesContaining scans for every table with userID in any seat, ordered
// by room and position. Only the reconciliation paths rely on it.
func (s *Store) FindTablesContaining(ctx context.Context, userID int64) ([]Table, error) {
	return s.queryTables(ctx, `SELECT `+tableColumns+` FROM tables WHERE seats @> ARRAY[$1::bigint] ORDER BY room_id ASC, position ASC`, userID)
}

func (s *Store) FindSeatOfUser(ctx context.Context, tableID string, userID int64) (int, error) {
	t, err := s.GetTable(ctx, tableID)
	if err != nil {
		return 0, err
	}
	return t.SeatOf(userID), nil
}

func (s *Store) queryTables(ctx context.Context, sql string, args ...any) ([]Table, error) {
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// OccupySeat claims an empty seat in one conditional update. It never
// overwrites an occupant and never touches a playing table.
func (s *Store) OccupySeat(ctx context.Context, tableID string, seat int, userID int64) (*Table, error) {
	if !validSeat(seat) {
		return nil, ErrInvalidSeat
	}
	t, err := scanTable(s.Pool.QueryRow(ctx, `
		UPDATE tables
		SET seats[$2::int] = $3::bigint,
		    current_players = current_players + 1,
		    status = 'waiting',
		    updated_at = now()
		WHERE id = $1 AND seats[$2::int] IS NULL AND status <> 'playing'
		RETURNING `+tableColumns, tableID, seat, userID))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return nil, s.explainClaimMiss(ctx, tableID, seat, userID)
}

// VacateSeat clears seat only while it still holds userID.
func (s *Store) VacateSeat(ctx context.Context, tableID string, seat int, userID int64) (*Table, error) {
	if !validSeat(seat) {
		return nil, ErrInvalidSeat
	}
	t, err := scanTable(s.Pool.QueryRow(ctx, `
		UPDATE tables
		SET seats[$2::int] = NULL,
		    current_players = current_players - 1,
		    status = CASE
		        WHEN current_players - 1 = 0 THEN 'empty'
		        WHEN status = 'playing' THEN 'playing'
		        ELSE 'waiting'
		    END,
		    updated_at = now()
		WHERE id = $1 AND seats[$2::int] = $3::bigint
		RETURNING `+tableColumns, tableID, seat, userID))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.GetTable(ctx, tableID); err != nil {
		return nil, err
	}
	return nil, ErrSeatMismatch
}

// MoveSeat moves userID between two seats of one table in a single update,
// so the player count never changes.
func (s *Store) MoveSeat(ctx context.Context, tableID string, from, to int, userID int64) (*Table, error) {
	if !validSeat(from) || !validSeat(to) || from == to {
		return nil, ErrInvalidSeat
	}
	t, err := scanTable(s.Pool.QueryRow(ctx, `
		UPDATE tables
		SET seats = ARRAY(
		        SELECT CASE
		            WHEN i = $2::int THEN NULL
		            WHEN i = $3::int THEN $4::bigint
		            ELSE seats[i]
		        END
		        FROM generate_series(1, 4) AS i
		        ORDER BY i
		    ),
		    updated_at = now()
		WHERE id = $1 AND seats[$2::int] = $4::bigint AND seats[$3::int] IS NULL AND status <> 'playing'
		RETURNING `+tableColumns, tableID, from, to, userID))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return nil, s.explainMoveMiss(ctx, tableID, from, to, userID)
}

// MarkTablePlaying flips an occupied table to playing.
func (s *Store) MarkTablePlaying(ctx context.Context, tableID string) (*Table, error) {
	t, err := scanTable(s.Pool.QueryRow(ctx, `
		UPDATE tables
		SET status = 'playing', updated_at = now()
		WHERE id = $1 AND current_players > 0
		RETURNING `+tableColumns, tableID))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.GetTable(ctx, tableID); err != nil {
		return nil, err
	}
	return nil, ErrTableEmpty
}

// ResetTable clears every seat and returns the occupants it removed.
func (s *Store) ResetTable(ctx context.Context, tableID string) ([SeatsPerTable]int64, *Table, error) {
	var (
		prev  []pgtype.Int8
		empty [SeatsPerTable]int64
	)
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return empty, nil, err
	}
	defer tx.Rollback(ctx)
	if err := tx.QueryRow(ctx, `SELECT seats FROM tables WHERE id = $1 FOR UPDATE`, tableID).Scan(&prev); err != nil {
		return empty, nil, mapNotFound(err)
	}
	t, err := scanTable(tx.QueryRow(ctx, `
		UPDATE tables
		SET seats = ARRAY[NULL, NULL, NULL, NULL]::bigint[],
		    current_players = 0,
		    status = 'empty',
		    updated_at = now()
		WHERE id = $1
		RETURNING `+tableColumns, tableID))
	if err != nil {
		return empty, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return empty, nil, err
	}
	return seatsVal(prev), t, nil
}

// explainClaimMiss re-reads the table after a conditional claim matched no
// row and reports why.
func (s *Store) explainClaimMiss(ctx context.Context, tableID string, seat int, userID int64) error {
	t, err := s.GetTable(ctx, tableID)
	if err != nil {
		return err
	}
	return ClaimMissReason(t, seat, userID)
}

// ClaimMissReason reports why claiming seat for userID cannot succeed on t.
func ClaimMissReason(t *Table, seat int, userID int64) error {
	switch occ := t.Occupant(seat); {
	case t.Status == TablePlaying:
		return ErrTableBusy
	case occ == userID:
		return ErrAlreadySeated
	default:
		return ErrSeatTaken
	}
}

func (s *Store) explainMoveMiss(ctx context.Context, tableID string, from, to int, userID int64) error {
	t, err := s.GetTable(ctx, tableID)
	if err != nil {
		return err
	}
	return MoveMissReason(t, from, to, userID)
}

// MoveMissReason reports why moving userID from one seat to another cannot
// succeed on t.
func MoveMissReason(t *Table, from, to int, userID int64) error {
	switch occ := t.Occupant(to); {
	case t.Status == TablePlaying:
		return ErrTableBusy
	case occ == userID:
		return ErrAlreadySeated
	case occ != 0:
		return ErrSeatTaken
	case t.Occupant(from) != userID:
		return ErrSeatMismatch
	default:
		return ErrSeatTaken
	}
}
