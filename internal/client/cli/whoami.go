package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/cartana/accounts/internal/common"
)

// WhoAmI prints the authenticated user's profile, serving the provider's
// cache when it is fresh.
func (a *App) WhoAmI(ctx context.Context) error {
	profile, err := a.session.GetUser(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			printlnFn("Not logged in.")
			return nil
		}
		a.logger.Error(ctx, "profile fetch failed", "error", err)
		printlnFn(genericFailureMessage)
		return nil
	}

	printlnFn(fmt.Sprintf("%s <%s>", profile.FullName, profile.Email))
	printlnFn(fmt.Sprintf("uid: %s, account: %d", profile.UID, profile.AccountID))
	if profile.Disabled {
		printlnFn("This account is disabled.")
	}
	return nil
}
