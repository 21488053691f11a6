package cli

import (
	"context"
	"errors"
	"os"

	"github.com/cartana/accounts/internal/common"
)

// ForgotPassword asks the backend to dispatch a reset link. The confirmation
// message is the same whether or not the address is registered; only a
// delivery failure (network down) is reported differently.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.RequestPasswordReset(ctx, email); err != nil {
		if errors.Is(err, common.ErrNetwork) {
			printlnFn("Could not reach the server. Please try again.")
			return nil
		}
		a.logger.Error(ctx, "reset request failed", "error", err)
		printlnFn(genericFailureMessage)
		return nil
	}

	printlnFn("If the address exists, a reset link has been sent.")
	return nil
}
