// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration, the HTTP API client and a small REPL. The session
// token lives only in memory and is gone when the program exits.
//
// Commands:
//   - signup, login   (both continue with the 2FA code prompt)
//   - verify          (enter a 2FA code for the pending email)
//   - forgot, reset   (password reset by emailed token)
//   - me, logout
//   - help, exit | quit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
