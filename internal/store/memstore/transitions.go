package memstore

import (
	"context"

	"arcade-seats/internal/store"
)

func (s *Store) AppendTransition(ctx context.Context, tr store.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("AppendTransition"); err != nil {
		return err
	}
	if tr.ID == "" {
		tr.ID = store.NewID()
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = s.Now()
	}
	s.transitions = append(s.transitions, tr)
	return nil
}

func (s *Store) ListTransitions(ctx context.Context, userID int64, limit int) ([]store.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListTransitions"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	out := []store.Transition{}
	for i := len(s.transitions) - 1; i >= 0 && len(out) < limit; i-- {
		if s.transitions[i].UserID == userID {
			out = append(out, s.transitions[i])
		}
	}
	return out, nil
}
