// Package cli provides the interactive task-board command-line client.
//
// It wires configuration, the local state database, the session services
// and an interactive REPL. On start it restores a session kept by an
// earlier run, then reads commands until the user exits.
//
// Key features:
//   - Login / Logout
//   - Register (short wizard) and Setup (wizard with full profile)
//   - WhoAmI, Settings and Avatar for the signed-in user
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
