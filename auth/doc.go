// Package auth coordinates the admin credential lifecycle over the tool transport.
//
// Coordinator.RefreshAuthToken is single-flight: any number of concurrent
// callers share one network refresh. Every store mutation bumps a generation
// counter, and a refresh that completes after the credential changed (logout,
// new login) is discarded instead of overwriting the newer state.
package auth
