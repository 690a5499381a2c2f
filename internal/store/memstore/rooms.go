package memstore

import (
	"context"
	"sort"

	"arcade-seats/internal/store"
)

func (s *Store) GetRoom(ctx context.Context, id string) (*store.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetRoom"); err != nil {
		return nil, err
	}
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]store.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListRooms"); err != nil {
		return nil, err
	}
	out := make([]store.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Game != out[j].Game {
			return out[i].Game < out[j].Game
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) IncrementOnline(ctx context.Context, id string) (*store.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("IncrementOnline"); err != nil {
		return nil, err
	}
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if r.OnlineCount >= r.Capacity {
		return nil, store.ErrRoomFull
	}
	r.OnlineCount++
	r.Full = r.OnlineCount >= r.Capacity
	r.UpdatedAt = s.Now()
	cp := *r
	return &cp, nil
}

func (s *Store) DecrementOnline(ctx context.Context, id string) (*store.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("DecrementOnline"); err != nil {
		return nil, err
	}
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if r.OnlineCount > 0 {
		r.OnlineCount--
	}
	r.Full = r.OnlineCount >= r.Capacity
	r.UpdatedAt = s.Now()
	cp := *r
	return &cp, nil
}
