package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerRoomTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_rooms",
			mcp.WithDescription("List rooms with capacity and online count"),
		),
		s.handleListRooms,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_room_tables",
			mcp.WithDescription("List the tables of a room with their seat maps"),
			mcp.WithString("room_id", mcp.Required(), mcp.Description("Room id")),
		),
		s.handleListRoomTables,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"enter_room",
			mcp.WithDescription("Enter a room, releasing any seat held elsewhere"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Bearer token")),
			mcp.WithString("room_id", mcp.Required(), mcp.Description("Room id")),
		),
		s.handleEnterRoom,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"leave_room",
			mcp.WithDescription("Leave the room the caller is in"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Bearer token")),
			mcp.WithString("room_id", mcp.Required(), mcp.Description("Room id")),
		),
		s.handleLeaveRoom,
	)
}

func (s *Server) handleListRooms(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rooms, err := s.coord.ListRooms(ctx)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(map[string]any{"items": rooms}), nil
}

func (s *Server) handleListRoomTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, err := request.RequireString("room_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	tables, err := s.coord.ListRoomTables(ctx, roomID)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(map[string]any{"room_id": roomID, "items": tables}), nil
}

func (s *Server) handleEnterRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResp := s.authUser(request)
	if errResp != nil {
		return errResp, nil
	}
	roomID, err := request.RequireString("room_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	res, err := s.coord.EnterRoom(ctx, userID, roomID)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handleLeaveRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResp := s.authUser(request)
	if errResp != nil {
		return errResp, nil
	}
	roomID, err := request.RequireString("room_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.coord.LeaveRoom(ctx, userID, roomID); err != nil {
		return domainError(err), nil
	}
	return toolResult(map[string]any{"ok": true}), nil
}
