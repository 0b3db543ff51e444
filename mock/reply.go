package mock

import (
	"context"
	"encoding/json"

	"github.com/viant/jsonrpc"
)

// Call is a decoded tool invocation
type Call struct {
	Name      string
	Arguments map[string]interface{}
	Bearer    string
	// Identity is the subject of a verified bearer token; empty for public tools
	Identity string
}

// String returns a string argument or empty string
func (c *Call) String(name string) string {
	value, _ := c.Arguments[name].(string)
	return value
}

// Reply is a tool handler answer. Status takes precedence, then Body, then Result/Error.
type Reply struct {
	Status int
	Body   string
	Result interface{}
	Error  *jsonrpc.Error
}

// ToolHandler answers a tool call
type ToolHandler func(ctx context.Context, call *Call) *Reply

// Structured replies with structured content mirrored as text content
func Structured(value interface{}) *Reply {
	data, _ := json.Marshal(value)
	return &Reply{Result: map[string]interface{}{
		"structuredContent": value,
		"content":           []map[string]interface{}{{"type": "text", "text": string(data)}},
	}}
}

// Text replies with text content only
func Text(text string) *Reply {
	return &Reply{Result: map[string]interface{}{
		"content": []map[string]interface{}{{"type": "text", "text": text}},
	}}
}

// ToolError replies with an isError tool result
func ToolError(text string) *Reply {
	return &Reply{Result: map[string]interface{}{
		"isError": true,
		"content": []map[string]interface{}{{"type": "text", "text": text}},
	}}
}

// Raw replies with result as-is
func Raw(result interface{}) *Reply {
	return &Reply{Result: result}
}

// Status replies with a bare HTTP status
func Status(code int) *Reply {
	return &Reply{Status: code}
}

// RPCError replies with an embedded JSON-RPC error
func RPCError(code int, message string) *Reply {
	return &Reply{Error: jsonrpc.NewError(code, message, nil)}
}
