package httptransport

import (
	"net/http"
	"strconv"

	"arcade-seats/internal/reservation"

	"github.com/go-chi/chi/v5"
)

// SeatHandlers expose the caller-facing coordinator operations. Every route
// except the room listings runs behind UserAuthMiddleware.
type SeatHandlers struct {
	coord *reservation.Coordinator
}

func NewSeatHandlers(coord *reservation.Coordinator) *SeatHandlers {
	return &SeatHandlers{coord: coord}
}

func (h *SeatHandlers) Rooms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := h.coord.ListRooms(r.Context())
		if err != nil {
			writeReservationError(w, "list_rooms", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rooms})
	}
}

func (h *SeatHandlers) RoomTables() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "room_id")
		tables, err := h.coord.ListRoomTables(r.Context(), roomID)
		if err != nil {
			writeReservationError(w, "list_room_tables", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"room_id": roomID, "items": tables})
	}
}

func (h *SeatHandlers) EnterRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		res, err := h.coord.EnterRoom(r.Context(), userID, chi.URLParam(r, "room_id"))
		if err != nil {
			writeReservationError(w, "enter_room", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *SeatHandlers) LeaveRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		if err := h.coord.LeaveRoom(r.Context(), userID, chi.URLParam(r, "room_id")); err != nil {
			writeReservationError(w, "leave_room", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *SeatHandlers) JoinSeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		seat, ok := seatParam(w, r)
		if !ok {
			return
		}
		res, err := h.coord.JoinSeat(r.Context(), userID, chi.URLParam(r, "table_id"), seat)
		if err != nil {
			writeReservationError(w, "join_seat", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *SeatHandlers) LeaveSeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		seat, ok := seatParam(w, r)
		if !ok {
			return
		}
		if err := h.coord.LeaveSeat(r.Context(), userID, chi.URLParam(r, "table_id"), seat); err != nil {
			writeReservationError(w, "leave_seat", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *SeatHandlers) Location() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		loc, err := h.coord.GetCurrentLocation(r.Context(), userID)
		if err != nil {
			writeReservationError(w, "get_location", err)
			return
		}
		writeJSON(w, http.StatusOK, loc)
	}
}

func (h *SeatHandlers) Heartbeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		if err := h.coord.Touch(r.Context(), userID); err != nil {
			writeReservationError(w, "heartbeat", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// seatParam parses {seat}. Range checks are left to the coordinator.
func seatParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	seat, err := strconv.Atoi(chi.URLParam(r, "seat"))
	if err != nil {
		WriteHTTPError(w, http.StatusBadRequest, reservation.ErrInvalidSeat.Code)
		return 0, false
	}
	return seat, true
}
