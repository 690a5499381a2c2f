package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const roomColumns = `id, game, name, capacity, online_count, is_full, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	if err := row.Scan(&r.ID, &r.Game, &r.Name, &r.Capacity, &r.OnlineCount, &r.Full, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (*Room, error) {
	r, err := scanRoom(s.Pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY game ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// IncrementOnline adds one occupant if the room still has capacity. The
// capacity check and the increment are a single statement; a lost race comes
// back as ErrRoomFull.
func (s *Store) IncrementOnline(ctx context.Context, id string) (*Room, error) {
	r, err := scanRoom(s.Pool.QueryRow(ctx, `
		UPDATE rooms
		SET online_count = online_count + 1,
		    is_full = online_count + 1 >= capacity,
		    updated_at = now()
		WHERE id = $1 AND online_count < capacity
		RETURNING `+roomColumns, id))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.GetRoom(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrRoomFull
}

// DecrementOnline removes one occupant, clamping at zero.
func (s *Store) DecrementOnline(ctx context.Context, id string) (*Room, error) {
	r, err := scanRoom(s.Pool.QueryRow(ctx, `
		UPDATE rooms
		SET online_count = GREATEST(online_count - 1, 0),
		    is_full = GREATEST(online_count - 1, 0) >= capacity,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return r, nil
}

func (s *Store) CreateRoom(ctx context.Context, game, name string, capacity int) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx, `INSERT INTO rooms (id, game, name, capacity) VALUES ($1, $2, $3, $4)`, id, game, name, capacity)
	return id, err
}

func (s *Store) CreateTable(ctx context.Context, roomID string, position int) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx, `INSERT INTO tables (id, room_id, position) VALUES ($1, $2, $3)`, id, roomID, position)
	return id, err
}

func (s *Store) CountRooms(ctx context.Context) (int, error) {
	var c int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM rooms`).Scan(&c)
	return c, err
}

// EnsureDefaultRooms creates one room per game, each with a pool of empty
// tables, when no rooms exist yet.
func (s *Store) EnsureDefaultRooms(ctx context.Context, games []string, capacity, tablesPerRoom int) error {
	c, err := s.CountRooms(ctx)
	if err != nil {
		return err
	}
	if c > 0 {
		return nil
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, game := range games {
		game = strings.TrimSpace(game)
		if game == "" {
			continue
		}
		roomID := NewID()
		if _, err := tx.Exec(ctx, `INSERT INTO rooms (id, game, name, capacity) VALUES ($1, $2, $3, $4)`,
			roomID, game, fmt.Sprintf("%s-1", game), capacity); err != nil {
			return err
		}
		for i := 1; i <= tablesPerRoom; i++ {
			if _, err := tx.Exec(ctx, `INSERT INTO tables (id, room_id, position) VALUES ($1, $2, $3)`, NewID(), roomID, i); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}
