package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidSeat   = errors.New("invalid seat")
	ErrRoomFull      = errors.New("room full")
	ErrSeatTaken     = errors.New("seat taken")
	ErrAlreadySeated = errors.New("seat already held by user")
	ErrSeatMismatch  = errors.New("seat not held by user")
	ErrTableBusy     = errors.New("table playing")
	ErrTableEmpty    = errors.New("table empty")
)

// Store wraps DB access. It serves as the room directory, the table seat map,
// the session registry and the transition log at once.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func validSeat(seat int) bool {
	return seat >= 1 && seat <= SeatsPerTable
}
