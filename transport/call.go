package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/viant/mcp-protocol/schema"
)

// CallToolRaw invokes a tool on the backend. It auto-connects, retries once on an
// expired session and never panics: every failure is returned in the Result.
// It never triggers a credential refresh; see Client.CallTool for that.
func (s *Session) CallToolRaw(ctx context.Context, name string, args map[string]interface{}) *Result {
	return s.callToolRaw(ctx, name, args, false)
}

func (s *Session) callToolRaw(ctx context.Context, name string, args map[string]interface{}, sessionRetried bool) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failure(NewProtocolError(fmt.Sprintf("tool %v failed: %v", name, r), nil))
		}
	}()
	sessionID, err := s.ensureConnected(ctx)
	if err != nil {
		return failure(asError(err))
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	request, err := s.newRequest(schema.MethodToolsCall, &schema.CallToolRequestParams{Name: name, Arguments: args})
	if err != nil {
		return failure(asError(err))
	}
	response, err := s.exchange(ctx, sessionID, request)
	if err != nil {
		typed := asError(err)
		if isSessionExpired(typed.Status) && !sessionRetried {
			s.logger.Debug("session expired, reconnecting", "tool", name)
			s.resetIfCurrent(sessionID)
			return s.callToolRaw(ctx, name, args, true)
		}
		return failure(typed)
	}
	if response.Error != nil {
		return failure(NewProtocolError(response.Error.Message, nil))
	}
	data, err := unwrapToolResult(response.Result)
	if err != nil {
		return failure(err)
	}
	return success(data)
}

// isSessionExpired reports the transient class: the backend no longer knows the session.
func isSessionExpired(status int) bool {
	return status == http.StatusNotFound
}
