package reservation

import (
	"context"
	"errors"
	"time"

	"arcade-seats/internal/config"
	"arcade-seats/internal/store"

	"github.com/rs/zerolog/log"
)

const reaperBatchSize = 200

var staleStates = []store.SessionState{store.SessionWaiting, store.SessionPlaying}

// Reaper evicts sessions that stopped sending activity and purges long idle
// ones. All evictions go through the coordinator.
type Reaper struct {
	coord     *Coordinator
	sessions  SessionRegistry
	idle      time.Duration
	retention time.Duration
	batch     int
}

type SweepResult struct {
	Evicted int
	Failed  int
}

func NewReaper(coord *Coordinator, cfg config.ReaperConfig) *Reaper {
	return &Reaper{
		coord:     coord,
		sessions:  coord.sessions,
		idle:      cfg.IdleThreshold,
		retention: cfg.SessionRetention,
		batch:     reaperBatchSize,
	}
}

// Sweep evicts every waiting or playing session whose last activity is older
// than the idle threshold at now. A failure on one user is counted and the
// sweep moves on.
func (r *Reaper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	cutoff := now.Add(-r.idle)
	stale, err := r.sessions.ListStaleSessions(ctx, cutoff, staleStates, r.batch)
	if err != nil {
		return res, err
	}
	metricReaperSweepsTotal.Add(1)
	for i := range stale {
		evicted, err := r.evict(ctx, stale[i].UserID, cutoff)
		switch {
		case err != nil:
			res.Failed++
			log.Warn().Err(err).Int64("user_id", stale[i].UserID).Msg("reaper_evict_failed")
		case evicted:
			res.Evicted++
		}
	}
	metricReaperEvictedTotal.Add(int64(res.Evicted))
	metricReaperFailedTotal.Add(int64(res.Failed))
	if res.Evicted > 0 || res.Failed > 0 {
		log.Info().Int("evicted", res.Evicted).Int("failed", res.Failed).Msg("reaper_sweep")
	}
	return res, nil
}

// evict re-reads the session so a user who came back since the listing is
// left alone.
func (r *Reaper) evict(ctx context.Context, userID int64, cutoff time.Time) (bool, error) {
	sess, err := r.coord.loadSession(ctx, userID)
	if err != nil || sess == nil {
		return false, err
	}
	if !sess.LastActivity.Before(cutoff) || (sess.State != store.SessionWaiting && sess.State != store.SessionPlaying) {
		return false, nil
	}

	if sess.HasSeat() {
		err := r.coord.leaveSeat(ctx, userID, sess.TableID, sess.SeatNumber, "idle_timeout")
		switch {
		case errors.Is(err, ErrNotSeated), errors.Is(err, ErrTableNotFound):
			if _, err := r.sessions.ClearSessionSeat(ctx, userID, sess.TableID, sess.SeatNumber, r.coord.now()); err != nil {
				return false, err
			}
		case err != nil:
			return false, err
		}
	}
	if sess.RoomID != "" {
		if err := r.coord.leaveRoom(ctx, userID, sess.RoomID, "idle_timeout"); err != nil && !errors.Is(err, ErrNotInRoom) {
			return false, err
		}
	}
	return true, nil
}

// Purge deletes sessions that have sat idle outside any room for longer than
// the retention window. Rooms and tables are not touched.
func (r *Reaper) Purge(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.sessions.PurgeIdleSessions(ctx, now.Add(-r.retention))
	if err != nil {
		return 0, err
	}
	metricReaperPurgedTotal.Add(n)
	if n > 0 {
		log.Info().Int64("purged", n).Msg("reaper_purge")
	}
	return n, nil
}

// Start runs Sweep every interval and Purge every purgeInterval until ctx is
// done.
func (r *Reaper) Start(ctx context.Context, interval, purgeInterval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if purgeInterval <= 0 {
		purgeInterval = time.Hour
	}
	sweepTicker := time.NewTicker(interval)
	purgeTicker := time.NewTicker(purgeInterval)
	go func() {
		defer sweepTicker.Stop()
		defer purgeTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-sweepTicker.C:
				if _, err := r.Sweep(ctx, now); err != nil {
					log.Error().Err(err).Msg("reaper_sweep_failed")
				}
			case now := <-purgeTicker.C:
				if _, err := r.Purge(ctx, now); err != nil {
					log.Error().Err(err).Msg("reaper_purge_failed")
				}
			}
		}
	}()
}
