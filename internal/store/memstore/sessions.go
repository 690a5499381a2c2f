package memstore

import (
	"context"
	"sort"
	"time"

	"arcade-seats/internal/store"
)

func (s *Store) GetSession(ctx context.Context, userID int64) (*store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetSession"); err != nil {
		return nil, err
	}
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) SaveSession(ctx context.Context, sess store.Session) (*store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("SaveSession"); err != nil {
		return nil, err
	}
	if sess.LastActivity.IsZero() {
		sess.LastActivity = s.Now()
	}
	if prev, ok := s.sessions[sess.UserID]; ok {
		sess.CreatedAt = prev.CreatedAt
	} else {
		sess.CreatedAt = s.Now()
	}
	stored := sess
	s.sessions[sess.UserID] = &stored
	cp := stored
	return &cp, nil
}

func (s *Store) ClearSessionSeat(ctx context.Context, userID int64, tableID string, seat int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ClearSessionSeat"); err != nil {
		return false, err
	}
	sess, ok := s.sessions[userID]
	if !ok || sess.TableID != tableID || sess.SeatNumber != seat {
		return false, nil
	}
	sess.TableID = ""
	sess.SeatNumber = 0
	sess.State = store.SessionIdle
	sess.LastActivity = now
	return true, nil
}

func (s *Store) ResetSession(ctx context.Context, userID int64, roomID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ResetSession"); err != nil {
		return false, err
	}
	sess, ok := s.sessions[userID]
	if !ok || roomID == "" || sess.RoomID != roomID {
		return false, nil
	}
	sess.RoomID = ""
	sess.TableID = ""
	sess.SeatNumber = 0
	sess.State = store.SessionIdle
	sess.LastActivity = now
	return true, nil
}

func (s *Store) MoveSessionRoom(ctx context.Context, userID int64, fromRoom, toRoom string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("MoveSessionRoom"); err != nil {
		return false, err
	}
	sess, ok := s.sessions[userID]
	if !ok {
		if fromRoom != "" {
			return false, nil
		}
		sess = &store.Session{UserID: userID, CreatedAt: s.Now()}
		s.sessions[userID] = sess
	} else if sess.RoomID != fromRoom {
		return false, nil
	}
	sess.RoomID = toRoom
	sess.TableID = ""
	sess.SeatNumber = 0
	sess.State = store.SessionIdle
	sess.LastActivity = now
	return true, nil
}

func (s *Store) TouchSession(ctx context.Context, userID int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("TouchSession"); err != nil {
		return err
	}
	sess, ok := s.sessions[userID]
	if !ok {
		return store.ErrNotFound
	}
	sess.LastActivity = now
	return nil
}

func (s *Store) SetSessionStateAtTable(ctx context.Context, tableID string, state store.SessionState, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("SetSessionStateAtTable"); err != nil {
		return 0, err
	}
	var n int64
	for _, sess := range s.sessions {
		if sess.TableID == tableID {
			sess.State = state
			sess.LastActivity = now
			n++
		}
	}
	return n, nil
}

func (s *Store) ListStaleSessions(ctx context.Context, cutoff time.Time, states []store.SessionState, limit int) ([]store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListStaleSessions"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	out := []store.Session{}
	for _, sess := range s.sessions {
		if !sess.LastActivity.Before(cutoff) || !stateIn(sess.State, states) {
			continue
		}
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.Before(out[j].LastActivity) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) PurgeIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("PurgeIdleSessions"); err != nil {
		return 0, err
	}
	var n int64
	for id, sess := range s.sessions {
		if sess.State == store.SessionIdle && sess.RoomID == "" && sess.TableID == "" && sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func stateIn(st store.SessionState, states []store.SessionState) bool {
	for _, s := range states {
		if s == st {
			return true
		}
	}
	return false
}
