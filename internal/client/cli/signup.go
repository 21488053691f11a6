package cli

import (
	"context"
	"os"

	"github.com/cartana/accounts/internal/client/models"
	"github.com/cartana/accounts/internal/common"
)

// Signup prompts for the details of a new account and submits them.
// The password policy (length ≥ 8, lowercase, uppercase, digit) is enforced
// here, before the adapter is ever invoked.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	creds := models.SignupCredentials{Email: email, Password: string(password), FullName: fullName}
	if err := creds.Validate(); err != nil {
		printlnFn("Password must be at least 8 characters and contain a lowercase letter, an uppercase letter, and a number.")
		return nil
	}

	res, err := a.session.Signup(ctx, creds)
	if err != nil {
		a.logger.Error(ctx, "signup failed", "error", err)
		printlnFn(genericFailureMessage)
		return nil
	}

	printlnFn(res.Message)
	return nil
}
