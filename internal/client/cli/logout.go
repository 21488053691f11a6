package cli

import "context"

// Logout clears the local session. Safe to call when not logged in.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "logout cleanup failed", "error", err)
	}
	printlnFn("Logged out.")
	return nil
}
