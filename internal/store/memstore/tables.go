package memstore

import (
	"context"

	"arcade-seats/internal/store"
)

func (s *Store) GetTable(ctx context.Context, id string) (*store.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetTable"); err != nil {
		return nil, err
	}
	t, ok := s.tables[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListTables(ctx context.Context, roomID string) ([]store.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListTables"); err != nil {
		return nil, err
	}
	out := []store.Table{}
	for _, t := range s.tables {
		if t.RoomID == roomID {
			out = append(out, *t)
		}
	}
	sortTables(out)
	return out, nil
}

func (s *Store) FindTablesContaining(ctx context.Context, userID int64) ([]store.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("FindTablesContaining"); err != nil {
		return nil, err
	}
	out := []store.Table{}
	for _, t := range s.tables {
		if t.SeatOf(userID) != 0 {
			out = append(out, *t)
		}
	}
	sortTables(out)
	return out, nil
}

func (s *Store) FindSeatOfUser(ctx context.Context, tableID string, userID int64) (int, error) {
	t, err := s.GetTable(ctx, tableID)
	if err != nil {
		return 0, err
	}
	return t.SeatOf(userID), nil
}

func (s *Store) OccupySeat(ctx context.Context, tableID string, seat int, userID int64) (*store.Table, error) {
	if !validSeat(seat) {
		return nil, store.ErrInvalidSeat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("OccupySeat"); err != nil {
		return nil, err
	}
	t, ok := s.tables[tableID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if t.Occupant(seat) != 0 || t.Status == store.TablePlaying {
		return nil, store.ClaimMissReason(t, seat, userID)
	}
	t.Seats[seat-1] = userID
	t.CurrentPlayers++
	t.Status = store.TableWaiting
	t.UpdatedAt = s.Now()
	cp := *t
	return &cp, nil
}

func (s *Store) VacateSeat(ctx context.Context, tableID string, seat int, userID int64) (*store.Table, error) {
	if !validSeat(seat) {
		return nil, store.ErrInvalidSeat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("VacateSeat"); err != nil {
		return nil, err
	}
	t, ok := s.tables[tableID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if t.Occupant(seat) != userID {
		return nil, store.ErrSeatMismatch
	}
	t.Seats[seat-1] = 0
	t.CurrentPlayers--
	t.Status = statusAfter(t.Status, t.CurrentPlayers)
	t.UpdatedAt = s.Now()
	cp := *t
	return &cp, nil
}

func (s *Store) MoveSeat(ctx context.Context, tableID string, from, to int, userID int64) (*store.Table, error) {
	if !validSeat(from) || !validSeat(to) || from == to {
		return nil, store.ErrInvalidSeat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("MoveSeat"); err != nil {
		return nil, err
	}
	t, ok := s.tables[tableID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if t.Occupant(from) != userID || t.Occupant(to) != 0 || t.Status == store.TablePlaying {
		return nil, store.MoveMissReason(t, from, to, userID)
	}
	t.Seats[from-1] = 0
	t.Seats[to-1] = userID
	t.UpdatedAt = s.Now()
	cp := *t
	return &cp, nil
}

func (s *Store) MarkTablePlaying(ctx context.Context, tableID string) (*store.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("MarkTablePlaying"); err != nil {
		return nil, err
	}
	t, ok := s.tables[tableID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if t.CurrentPlayers == 0 {
		return nil, store.ErrTableEmpty
	}
	t.Status = store.TablePlaying
	t.UpdatedAt = s.Now()
	cp := *t
	return &cp, nil
}

func (s *Store) ResetTable(ctx context.Context, tableID string) ([store.SeatsPerTable]int64, *store.Table, error) {
	var prev [store.SeatsPerTable]int64
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ResetTable"); err != nil {
		return prev, nil, err
	}
	t, ok := s.tables[tableID]
	if !ok {
		return prev, nil, store.ErrNotFound
	}
	prev = t.Seats
	t.Seats = [store.SeatsPerTable]int64{}
	t.CurrentPlayers = 0
	t.Status = store.TableEmpty
	t.UpdatedAt = s.Now()
	cp := *t
	return prev, &cp, nil
}
