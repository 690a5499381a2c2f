package httptransport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"arcade-seats/internal/reservation"
	"arcade-seats/internal/store"

	"github.com/go-chi/chi/v5"
)

// Backend is the slice of the row store the admin routes read directly.
type Backend interface {
	Ping(ctx context.Context) error
	ListTransitions(ctx context.Context, userID int64, limit int) ([]store.Transition, error)
}

type AdminHandlers struct {
	coord   *reservation.Coordinator
	backend Backend
}

func NewAdminHandlers(coord *reservation.Coordinator, backend Backend) *AdminHandlers {
	return &AdminHandlers{coord: coord, backend: backend}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.backend.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) StartGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := h.coord.StartGame(r.Context(), chi.URLParam(r, "table_id"))
		if err != nil {
			writeReservationError(w, "start_game", err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *AdminHandlers) EndGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := h.coord.EndGame(r.Context(), chi.URLParam(r, "table_id"))
		if err != nil {
			writeReservationError(w, "end_game", err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *AdminHandlers) Reconcile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}
		res, err := h.coord.Reconcile(r.Context(), userID)
		if err != nil {
			writeReservationError(w, "reconcile", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type transitionView struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Kind        string    `json:"kind"`
	Reason      string    `json:"reason,omitempty"`
	RoomID      string    `json:"room_id,omitempty"`
	TableID     string    `json:"table_id,omitempty"`
	Seat        int       `json:"seat,omitempty"`
	FromTableID string    `json:"from_table_id,omitempty"`
	FromSeat    int       `json:"from_seat,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Transitions lists the audit trail of one user, newest first.
func (h *AdminHandlers) Transitions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}
		limit := ParseLimit(r)
		items, err := h.backend.ListTransitions(r.Context(), userID, limit)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		out := make([]transitionView, 0, len(items))
		for _, tr := range items {
			out = append(out, transitionView(tr))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": out, "limit": limit})
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		WriteHTTPError(w, http.StatusBadRequest, "invalid_user_id")
		return 0, false
	}
	return userID, true
}
