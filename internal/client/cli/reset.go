package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/cartana/accounts/internal/client/models"
	"github.com/cartana/accounts/internal/client/resettoken"
	"github.com/cartana/accounts/internal/common"
)

// ResetPassword completes the reset handshake: the user pastes the emailed
// link (or the bare token), the embedded expiry is checked locally to avoid
// a doomed round trip, and the new password is submitted under the reset
// token. The backend's verdict is authoritative either way.
func (a *App) ResetPassword(ctx context.Context) error {
	link, err := getSimpleText(a.reader, "Paste the reset link (or token)", os.Stdout)
	if err != nil {
		return err
	}
	token := resettoken.FromLink(link)

	if resettoken.Classify(token, time.Now()) == resettoken.Expired {
		printlnFn("This reset link looks expired. Use 'forgot' to request a new one.")
		answer, err := getSimpleText(a.reader, "Try it anyway? (y/N)", os.Stdout)
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") {
			return nil
		}
	}

	password, err := getPassword(os.Stdout, "Enter new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if !models.PasswordMeetsPolicy(string(password)) {
		printlnFn("Password must be at least 8 characters and contain a lowercase letter, an uppercase letter, and a number.")
		return nil
	}

	res, err := a.session.ConfirmPasswordReset(ctx, token, string(password))
	if err != nil {
		a.logger.Error(ctx, "reset confirmation failed", "error", err)
		printlnFn(genericFailureMessage)
		return nil
	}

	printlnFn(res.Message)
	return nil
}
