package transport

import (
	"context"
	"encoding/json"
	"net/http"
)

// Result is the outcome of a tool call. Success=false always carries Err;
// HTTPStatus is set for HTTP-level failures so callers can tell
// "needs refresh" (401) from a hard failure.
type Result struct {
	Success    bool
	Data       json.RawMessage
	Err        error
	HTTPStatus int
}

// Message returns the failure message or empty string on success.
func (r *Result) Message() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Unauthenticated reports whether the call failed because the presented credential was rejected.
func (r *Result) Unauthenticated() bool {
	return r != nil && !r.Success && r.HTTPStatus == http.StatusUnauthorized
}

func success(data json.RawMessage) *Result {
	return &Result{Success: true, Data: data}
}

func failure(err error) *Result {
	ret := &Result{Err: err}
	if typed, ok := err.(*Error); ok {
		ret.HTTPStatus = typed.Status
	}
	return ret
}

// CallResult is a Result with Data decoded into T.
type CallResult[T any] struct {
	Success    bool
	Data       *T
	Err        error
	HTTPStatus int
}

// Decode converts a raw result into a typed one; a decode failure is reported as a protocol error.
func Decode[T any](result *Result) *CallResult[T] {
	ret := &CallResult[T]{Success: result.Success, Err: result.Err, HTTPStatus: result.HTTPStatus}
	if !result.Success {
		return ret
	}
	var data T
	if len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, &data); err != nil {
			ret.Success = false
			ret.Err = NewProtocolError("failed to decode tool result", err)
			return ret
		}
	}
	ret.Data = &data
	return ret
}

// Caller issues tool calls
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) *Result
}

// CallAs calls a tool and decodes its data into T
func CallAs[T any](ctx context.Context, caller Caller, name string, args map[string]interface{}) *CallResult[T] {
	return Decode[T](caller.CallTool(ctx, name, args))
}
