package reservation

import (
	"context"
	"errors"
	"time"

	"arcade-seats/internal/store"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("arcade-seats/internal/reservation")

// Deps wires the coordinator to its stores. Log and Events may be nil.
type Deps struct {
	Rooms    RoomDirectory
	Tables   TableSeatMap
	Sessions SessionRegistry
	Log      TransitionLog
	Events   Broadcaster
	Now      func() time.Time
}

// Coordinator performs every transition that touches more than one of rooms,
// tables and sessions. It holds no lock across store calls; each store write
// is atomic on its own.
type Coordinator struct {
	rooms    RoomDirectory
	tables   TableSeatMap
	sessions SessionRegistry
	audit    TransitionLog
	events   Broadcaster
	now      func() time.Time
}

func NewCoordinator(d Deps) *Coordinator {
	c := &Coordinator{
		rooms:    d.Rooms,
		tables:   d.Tables,
		sessions: d.Sessions,
		audit:    d.Log,
		events:   d.Events,
		now:      d.Now,
	}
	if c.audit == nil {
		c.audit = noopLog{}
	}
	if c.events == nil {
		c.events = noopBroadcaster{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

type noopLog struct{}

func (noopLog) AppendTransition(context.Context, store.Transition) error { return nil }

type noopBroadcaster struct{}

func (noopBroadcaster) Publish(string, string, any) error { return nil }

func (c *Coordinator) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "reservation."+op, trace.WithAttributes(attrs...))
}

// finish closes span and accounts err against op.
func (c *Coordinator) finish(span trace.Span, op string, err error) {
	defer span.End()
	metricOperationsTotal.Add(op, 1)
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, CodeOf(err))
	switch KindOf(err) {
	case KindInternal:
		metricInternalErrors.Add(1)
		log.Error().Err(err).Str("op", op).Msg("reservation_internal_error")
	case KindConflict:
		metricConflictsTotal.Add(CodeOf(err), 1)
	}
}

func (c *Coordinator) record(ctx context.Context, tr store.Transition) {
	tr.CreatedAt = c.now()
	if err := c.audit.AppendTransition(ctx, tr); err != nil {
		metricTransitionLogErrors.Add(1)
		log.Warn().Err(err).Int64("user_id", tr.UserID).Str("kind", tr.Kind).Msg("transition_log_append_failed")
	}
}

func (c *Coordinator) publish(roomID, event string, data any) {
	if roomID == "" {
		return
	}
	if err := c.events.Publish(roomID, event, data); err != nil {
		metricPublishErrors.Add(1)
		log.Debug().Err(err).Str("room_id", roomID).Str("event", event).Msg("broadcast_publish_failed")
	}
}

func (c *Coordinator) publishRoom(r *store.Room) {
	c.publish(r.ID, EventRoomChanged, RoomChanged{
		RoomID:      r.ID,
		OnlineCount: r.OnlineCount,
		Capacity:    r.Capacity,
		Full:        r.Full,
	})
}

func (c *Coordinator) publishSeat(t *store.Table, ev SeatChanged) {
	view := viewOf(t)
	ev.RoomID = t.RoomID
	ev.TableID = t.ID
	ev.CurrentPlayers = t.CurrentPlayers
	ev.Table = &view
	c.publish(t.RoomID, EventSeatChanged, ev)
}

// loadSession returns nil without error when the user has no session yet.
func (c *Coordinator) loadSession(ctx context.Context, userID int64) (*store.Session, error) {
	sess, err := c.sessions.GetSession(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internalError("get session", err)
	}
	return sess, nil
}

// releaseAllSeats vacates every seat userID holds on any table and logs a
// synthetic leave for each. The session is left for the caller to rewrite.
func (c *Coordinator) releaseAllSeats(ctx context.Context, userID int64, reason string) ([]SeatRef, error) {
	tables, err := c.tables.FindTablesContaining(ctx, userID)
	if err != nil {
		return nil, internalError("find tables containing", err)
	}
	var released []SeatRef
	for i := range tables {
		for _, seat := range tables[i].SeatsOf(userID) {
			t, err := c.tables.VacateSeat(ctx, tables[i].ID, seat, userID)
			if errors.Is(err, store.ErrSeatMismatch) || errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return released, internalError("vacate seat", err)
			}
			ref := SeatRef{RoomID: t.RoomID, TableID: t.ID, Seat: seat}
			released = append(released, ref)
			c.record(ctx, store.Transition{
				UserID:  userID,
				Kind:    "leave_seat",
				Reason:  reason,
				RoomID:  t.RoomID,
				TableID: t.ID,
				Seat:    seat,
			})
			c.publishSeat(t, SeatChanged{UserID: userID, Kind: "leave", FromSeat: seat, Reason: reason})
		}
	}
	return released, nil
}

func userAttr(userID int64) attribute.KeyValue {
	return attribute.Int64("user.id", userID)
}
