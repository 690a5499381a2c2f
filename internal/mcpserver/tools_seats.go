package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSeatTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_seat",
			mcp.WithDescription("Claim a seat, switching seat or table when already seated"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Bearer token")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("Table id")),
			mcp.WithNumber("seat", mcp.Required(), mcp.Description("Seat number 1-4")),
		),
		s.handleJoinSeat,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"leave_seat",
			mcp.WithDescription("Give up a held seat"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Bearer token")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("Table id")),
			mcp.WithNumber("seat", mcp.Required(), mcp.Description("Seat number 1-4")),
		),
		s.handleLeaveSeat,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_location",
			mcp.WithDescription("Current room, table and seat of the caller"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Bearer token")),
		),
		s.handleGetLocation,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"heartbeat",
			mcp.WithDescription("Refresh the caller's activity so idle eviction skips them"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Bearer token")),
		),
		s.handleHeartbeat,
	)
}

func seatArgs(request mcp.CallToolRequest) (string, int, *mcp.CallToolResult) {
	tableID, err := request.RequireString("table_id")
	if err != nil {
		return "", 0, toolError("invalid_request", err.Error())
	}
	seat, err := request.RequireInt("seat")
	if err != nil {
		return "", 0, toolError("invalid_request", err.Error())
	}
	return tableID, seat, nil
}

func (s *Server) handleJoinSeat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResp := s.authUser(request)
	if errResp != nil {
		return errResp, nil
	}
	tableID, seat, errResp := seatArgs(request)
	if errResp != nil {
		return errResp, nil
	}
	res, err := s.coord.JoinSeat(ctx, userID, tableID, seat)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handleLeaveSeat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResp := s.authUser(request)
	if errResp != nil {
		return errResp, nil
	}
	tableID, seat, errResp := seatArgs(request)
	if errResp != nil {
		return errResp, nil
	}
	if err := s.coord.LeaveSeat(ctx, userID, tableID, seat); err != nil {
		return domainError(err), nil
	}
	return toolResult(map[string]any{"ok": true}), nil
}

func (s *Server) handleGetLocation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResp := s.authUser(request)
	if errResp != nil {
		return errResp, nil
	}
	loc, err := s.coord.GetCurrentLocation(ctx, userID)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(loc), nil
}

func (s *Server) handleHeartbeat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResp := s.authUser(request)
	if errResp != nil {
		return errResp, nil
	}
	if err := s.coord.Touch(ctx, userID); err != nil {
		return domainError(err), nil
	}
	return toolResult(map[string]any{"ok": true}), nil
}
