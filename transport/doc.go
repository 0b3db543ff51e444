// Package transport speaks the tool-calling wire protocol to the admin backend.
//
// A Session owns the backend session (handshake, session header, framing of
// "data:<json>" replies) and Session.CallToolRaw is the low-level primitive that
// never panics and retries once when the backend forgets the session.
// Client.CallTool adds the credential lifecycle: on a 401 it asks an injected
// Refresher for a new credential and retries exactly once.
//
// Example:
//
//	session := transport.NewSession("https://admin.example.com/mcp", transport.WithTokenSource(tokens))
//	client := transport.NewClient(session, transport.WithRefresher(coordinator))
//	result := client.CallTool(ctx, "list_agents", nil)
//	if !result.Success {
//		return result.Err
//	}
package transport
