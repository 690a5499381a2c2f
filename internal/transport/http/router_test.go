package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"arcade-seats/internal/broadcast"
	"arcade-seats/internal/config"
	"arcade-seats/internal/reservation"
	"arcade-seats/internal/store/memstore"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "router-test-secret"

type routerEnv struct {
	srv    *httptest.Server
	mem    *memstore.Store
	roomID string
	tables []string
}

func newRouterEnv(t *testing.T, adminKey string) *routerEnv {
	t.Helper()
	mem := memstore.New()
	roomID, tables := mem.AddRoom("snake", 2, 2)
	hub := broadcast.NewHub(64, mem)
	t.Cleanup(hub.Close)
	coord := reservation.NewCoordinator(reservation.Deps{Rooms: mem, Tables: mem, Sessions: mem, Log: mem, Events: hub})
	r := NewRouter(coord, hub, mem, config.ServerConfig{JWTSecret: testSecret, AdminAPIKey: adminKey})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &routerEnv{srv: srv, mem: mem, roomID: roomID, tables: tables}
}

func bearer(t *testing.T, userID int64, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func (e *routerEnv) do(t *testing.T, method, path, authz string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	if len(raw) > 0 && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return resp.StatusCode, body
}

func TestSeatFlowOverHTTP(t *testing.T) {
	env := newRouterEnv(t, "")
	alice := bearer(t, 11, time.Now().Add(time.Hour))
	bob := bearer(t, 12, time.Now().Add(time.Hour))

	status, body := env.do(t, http.MethodGet, "/api/rooms", "")
	if status != http.StatusOK {
		t.Fatalf("list rooms status=%d body=%v", status, body)
	}
	if items, _ := body["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one room, got %v", body)
	}

	if status, body = env.do(t, http.MethodPost, "/api/rooms/"+env.roomID+"/enter", alice); status != http.StatusOK {
		t.Fatalf("enter status=%d body=%v", status, body)
	}
	seatPath := "/api/tables/" + env.tables[0] + "/seats/3"
	if status, body = env.do(t, http.MethodPost, seatPath, alice); status != http.StatusOK {
		t.Fatalf("join status=%d body=%v", status, body)
	}
	if body["switch_kind"] != "none" {
		t.Fatalf("switch_kind = %v", body["switch_kind"])
	}

	if status, body = env.do(t, http.MethodPost, "/api/rooms/"+env.roomID+"/enter", bob); status != http.StatusOK {
		t.Fatalf("bob enter status=%d body=%v", status, body)
	}
	status, body = env.do(t, http.MethodPost, seatPath, bob)
	if status != http.StatusConflict || body["error"] != "seat_occupied" {
		t.Fatalf("expected 409 seat_occupied, got %d %v", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/me/location", alice)
	if status != http.StatusOK || body["table_id"] != env.tables[0] || body["seat_number"] != float64(3) {
		t.Fatalf("unexpected location %d %v", status, body)
	}

	if status, body = env.do(t, http.MethodPost, "/api/me/heartbeat", alice); status != http.StatusOK {
		t.Fatalf("heartbeat status=%d body=%v", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/rooms/"+env.roomID+"/tables", "")
	if status != http.StatusOK {
		t.Fatalf("room tables status=%d body=%v", status, body)
	}
	tables, _ := body["items"].([]any)
	first, _ := tables[0].(map[string]any)
	if first["current_players"] != float64(1) || first["status"] != "waiting" {
		t.Fatalf("unexpected first table %v", first)
	}

	if status, body = env.do(t, http.MethodDelete, seatPath, alice); status != http.StatusOK {
		t.Fatalf("leave seat status=%d body=%v", status, body)
	}
	if status, body = env.do(t, http.MethodPost, "/api/rooms/"+env.roomID+"/leave", alice); status != http.StatusOK {
		t.Fatalf("leave room status=%d body=%v", status, body)
	}

	rooms, _ := env.mem.ListRooms(t.Context())
	if rooms[0].OnlineCount != 1 {
		t.Fatalf("online count = %d, want 1", rooms[0].OnlineCount)
	}
}

func TestHTTPErrorMapping(t *testing.T) {
	env := newRouterEnv(t, "")
	alice := bearer(t, 21, time.Now().Add(time.Hour))

	cases := []struct {
		name   string
		method string
		path   string
		authz  string
		status int
		code   string
	}{
		{"no token", http.MethodGet, "/api/me/location", "", http.StatusUnauthorized, "unauthorized"},
		{"expired token", http.MethodGet, "/api/me/location", bearer(t, 21, time.Now().Add(-time.Minute)), http.StatusUnauthorized, "token_expired"},
		{"no session", http.MethodGet, "/api/me/location", alice, http.StatusNotFound, "session_not_found"},
		{"unknown room", http.MethodPost, "/api/rooms/nope/enter", alice, http.StatusNotFound, "room_not_found"},
		{"unknown room tables", http.MethodGet, "/api/rooms/nope/tables", "", http.StatusNotFound, "room_not_found"},
		{"seat not a number", http.MethodPost, "/api/tables/" + env.tables[0] + "/seats/x", alice, http.StatusBadRequest, "invalid_seat"},
		{"seat out of range", http.MethodPost, "/api/tables/" + env.tables[0] + "/seats/5", alice, http.StatusBadRequest, "invalid_seat"},
		{"unknown table", http.MethodPost, "/api/tables/nope/seats/1", alice, http.StatusNotFound, "table_not_found"},
		{"leave unheld seat", http.MethodDelete, "/api/tables/" + env.tables[0] + "/seats/1", alice, http.StatusConflict, "not_seated"},
		{"start empty table", http.MethodPost, "/api/tables/" + env.tables[1] + "/start", "", http.StatusConflict, "table_empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.do(t, tc.method, tc.path, tc.authz)
			if status != tc.status || body["error"] != tc.code {
				t.Fatalf("got %d %v, want %d %s", status, body, tc.status, tc.code)
			}
		})
	}
}

func TestRoomFullOverHTTP(t *testing.T) {
	env := newRouterEnv(t, "")
	for _, id := range []int64{1, 2} {
		if status, body := env.do(t, http.MethodPost, "/api/rooms/"+env.roomID+"/enter", bearer(t, id, time.Now().Add(time.Hour))); status != http.StatusOK {
			t.Fatalf("enter %d status=%d body=%v", id, status, body)
		}
	}
	status, body := env.do(t, http.MethodPost, "/api/rooms/"+env.roomID+"/enter", bearer(t, 3, time.Now().Add(time.Hour)))
	if status != http.StatusConflict || body["error"] != "room_full" {
		t.Fatalf("expected 409 room_full, got %d %v", status, body)
	}
}

func TestAdminRoutes(t *testing.T) {
	env := newRouterEnv(t, "admin-key")
	alice := bearer(t, 31, time.Now().Add(time.Hour))
	admin := "Bearer admin-key"

	if status, _ := env.do(t, http.MethodPost, "/api/tables/"+env.tables[0]+"/start", ""); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin key, got %d", status)
	}
	if status, body := env.do(t, http.MethodPost, "/api/tables/"+env.tables[0]+"/seats/1", alice); status != http.StatusOK {
		t.Fatalf("join status=%d body=%v", status, body)
	}

	status, body := env.do(t, http.MethodPost, "/api/tables/"+env.tables[0]+"/start", admin)
	if status != http.StatusOK || body["status"] != "playing" {
		t.Fatalf("start status=%d body=%v", status, body)
	}
	status, body = env.do(t, http.MethodPost, "/api/tables/"+env.tables[0]+"/seats/2", bearer(t, 32, time.Now().Add(time.Hour)))
	if status != http.StatusConflict || body["error"] != "table_busy" {
		t.Fatalf("expected table_busy, got %d %v", status, body)
	}

	status, body = env.do(t, http.MethodPost, "/api/tables/"+env.tables[0]+"/end", admin)
	if status != http.StatusOK || body["status"] != "empty" || body["current_players"] != float64(0) {
		t.Fatalf("end status=%d body=%v", status, body)
	}

	env.mem.ForceSeat(env.tables[1], 4, 31)
	env.mem.ForceSeat(env.tables[0], 2, 31)
	status, body = env.do(t, http.MethodPost, "/api/admin/reconcile/31", admin)
	if status != http.StatusOK {
		t.Fatalf("reconcile status=%d body=%v", status, body)
	}
	if removed, _ := body["removed"].([]any); len(removed) != 1 {
		t.Fatalf("expected one removed seat, got %v", body)
	}

	status, body = env.do(t, http.MethodGet, "/api/admin/users/31/transitions?limit=2", admin)
	if status != http.StatusOK {
		t.Fatalf("transitions status=%d body=%v", status, body)
	}
	if items, _ := body["items"].([]any); len(items) != 2 {
		t.Fatalf("expected two transitions, got %v", body)
	}
	if status, _ = env.do(t, http.MethodGet, "/api/admin/users/abc/transitions", admin); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad user id, got %d", status)
	}

	if status, _ = env.do(t, http.MethodGet, "/api/debug/vars", admin); status != http.StatusOK {
		t.Fatalf("debug vars status=%d", status)
	}
}

func TestHealthz(t *testing.T) {
	env := newRouterEnv(t, "")
	status, body := env.do(t, http.MethodGet, "/healthz", "")
	if status != http.StatusOK || body["db"] != "up" {
		t.Fatalf("healthz = %d %v", status, body)
	}
	env.mem.FailOn("Ping", errors.New("down"))
	status, body = env.do(t, http.MethodGet, "/healthz", "")
	if status != http.StatusServiceUnavailable || body["db"] != "down" {
		t.Fatalf("healthz = %d %v", status, body)
	}
}

func TestStreamRoutesRequireRoom(t *testing.T) {
	env := newRouterEnv(t, "")
	if status, _ := env.do(t, http.MethodGet, "/ws", ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 without room_id, got %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/api/events", ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 from sse stream without room_id, got %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/ws?room_id=no-such-room", ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown room, got %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/api/events?room_id=no-such-room", ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 from sse stream for unknown room, got %d", status)
	}
}

func TestMapReservationError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{reservation.ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
		{reservation.ErrInvalidSeat, http.StatusBadRequest, "invalid_seat"},
		{reservation.ErrNotInRoom, http.StatusConflict, "not_in_room"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := MapReservationError(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("MapReservationError(%v) = %d %s, want %d %s", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestParseLimit(t *testing.T) {
	cases := map[string]int{"": 50, "?limit=10": 10, "?limit=0": 1, "?limit=9999": 500, "?limit=x": 50}
	for q, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/x"+q, nil)
		if got := ParseLimit(r); got != want {
			t.Fatalf("ParseLimit(%q) = %d, want %d", q, got, want)
		}
	}
}
