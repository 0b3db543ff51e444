// Package mock provides an in-process admin backend that speaks the tool-calling
// wire protocol, for tests and local development.
//
// The backend issues session ids on the handshake GET, answers JSON-RPC posts
// with a single "data:" frame, mints HS256 access tokens and opaque rotating
// refresh tokens, and exposes counters and switches so tests can simulate
// expired sessions, rejected credentials and slow refreshes without a network.
package mock
