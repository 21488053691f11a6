// Package cli implements the interactive command-line interface of the
// Cartana accounts client: a small REPL dispatching to the session provider
// for login, signup, password reset, and profile display.
package cli
