package tools

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// jsonResult marshals a response into a text tool result.
func jsonResult(response any) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(response)
	return mcp.NewToolResultText(string(jsonBytes))
}

// getOptionalArray extracts an optional array argument from the request.
func getOptionalArray(req mcp.CallToolRequest, key string) []any {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	values, _ := args[key].([]any)
	return values
}
