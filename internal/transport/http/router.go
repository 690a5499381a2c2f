package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"arcade-seats/internal/auth"
	"arcade-seats/internal/broadcast"
	"arcade-seats/internal/config"
	"arcade-seats/internal/mcpserver"
	"arcade-seats/internal/reservation"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(coord *reservation.Coordinator, hub *broadcast.Hub, backend Backend, cfg config.ServerConfig) *chi.Mux {
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	mcpSrv := mcpserver.New(coord, verifier)

	seatHandlers := NewSeatHandlers(coord)
	adminHandlers := NewAdminHandlers(coord, backend)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())

	// The websocket upgrade needs the raw ResponseWriter, so /ws skips the
	// request logger.
	r.Get("/ws", hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/rooms", seatHandlers.Rooms())
		r.Get("/rooms/{room_id}/tables", seatHandlers.RoomTables())
		r.Get("/events", hub.ServeSSE)

		r.Group(func(r chi.Router) {
			r.Use(UserAuthMiddleware(verifier))
			r.Post("/rooms/{room_id}/enter", seatHandlers.EnterRoom())
			r.Post("/rooms/{room_id}/leave", seatHandlers.LeaveRoom())
			r.Post("/tables/{table_id}/seats/{seat}", seatHandlers.JoinSeat())
			r.Delete("/tables/{table_id}/seats/{seat}", seatHandlers.LeaveSeat())
			r.Get("/me/location", seatHandlers.Location())
			r.Post("/me/heartbeat", seatHandlers.Heartbeat())
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Post("/tables/{table_id}/start", adminHandlers.StartGame())
			r.Post("/tables/{table_id}/end", adminHandlers.EndGame())
			r.Route("/admin", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Post("/reconcile/{user_id}", adminHandlers.Reconcile())
				r.Get("/users/{user_id}/transitions", adminHandlers.Transitions())
			})
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
