package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"arcade-seats/internal/auth"
	"arcade-seats/internal/reservation"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	coord    *reservation.Coordinator
	verifier *auth.Verifier

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(coord *reservation.Coordinator, verifier *auth.Verifier) *Server {
	mcpSrv := server.NewMCPServer(
		"arcade-seats",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		coord:      coord,
		verifier:   verifier,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerRoomTools()
	s.registerSeatTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"room://{room_id}/tables",
			"room_tables",
			mcp.WithTemplateDescription("Seat map of every table in a room"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, "room://") || !strings.HasSuffix(raw, "/tables") {
				return nil, nil
			}
			roomID := strings.TrimSuffix(strings.TrimPrefix(raw, "room://"), "/tables")
			if roomID == "" {
				return nil, nil
			}
			tables, err := s.coord.ListRoomTables(ctx, roomID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(map[string]any{
				"room_id": roomID,
				"tables":  tables,
			})
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

// authUser resolves the caller from the token argument.
func (s *Server) authUser(request mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	token := strings.TrimSpace(request.GetString("token", ""))
	if token == "" {
		return 0, toolError("invalid_request", "token is required")
	}
	userID, err := s.verifier.UserID(token)
	if err != nil {
		return 0, toolError("unauthorized", err.Error())
	}
	return userID, nil
}
