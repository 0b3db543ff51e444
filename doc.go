// Package mcpadmin is the client side of the admin shell for a remote tool-calling backend.
//
// It composes three pieces:
//  1. transport – the session handshake, "data:" framed JSON-RPC tool calls and bounded retries,
//  2. auth – admin login, single-flight credential refresh and revocation,
//  3. auth/store – the generation stamped credential record (memory or file backed).
//
// Command handlers depend only on CallTool and branch on Result.Success; session ids,
// retries and refresh mechanics stay behind it.
//
// Example:
//
//	cli, _ := mcpadmin.NewClient(&mcpadmin.ClientOptions{URL: "https://admin.example.com/mcp"})
//	if err := cli.Login(ctx, "admin", secret); err != nil {
//		return err
//	}
//	result := cli.CallTool(ctx, "list_agents", nil)
package mcpadmin
