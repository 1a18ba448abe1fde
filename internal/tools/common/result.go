package common

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// errorRecord is the body of a failed tool result.
type errorRecord struct {
	Error string    `json:"error"`
	Kind  ErrorKind `json:"kind"`
}

// ErrorResult returns an error result for err with the given kind.
func ErrorResult(err error, kind ErrorKind) *mcp.CallToolResult {
	data, _ := json.Marshal(errorRecord{Error: err.Error(), Kind: kind})
	result := mcp.NewToolResultText(string(data))
	result.IsError = true
	return result
}

// JSONResult encodes v as the text content of a successful result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
