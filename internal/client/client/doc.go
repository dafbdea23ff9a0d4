// Package client talks to the gophauth HTTP API.
//
// HTTPClient wraps every /api/auth endpoint in a method, keeps the session
// token returned by a successful 2FA verification and sends it as a bearer
// token on authenticated calls.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Error answers from the server are
// returned as *APIError carrying the server's message; a 401 also matches
// ErrUnauthorized with errors.Is. Calls that need a session fail with
// ErrNotLoggedIn before any request is made when no token is held.
//
// An HTTPClient is not safe for concurrent use; the CLI drives it from a
// single goroutine.
package client
