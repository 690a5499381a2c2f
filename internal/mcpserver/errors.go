package mcpserver

import (
	"fmt"

	"arcade-seats/internal/reservation"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

// domainError turns a coordinator error into a tool error. Internal details
// stay in the server log.
func domainError(err error) *mcp.CallToolResult {
	code := reservation.CodeOf(err)
	if reservation.KindOf(err) == reservation.KindInternal {
		return toolError(code, "internal error, re-read your location before retrying")
	}
	return toolError(code, code)
}
