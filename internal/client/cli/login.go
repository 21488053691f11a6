package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cartana/accounts/internal/client/models"
	"github.com/cartana/accounts/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// genericFailureMessage is shown for network and unexpected backend
// failures. The underlying detail goes to the log, not the user.
const genericFailureMessage = "Something went wrong. Please try again."

// Login prompts the user for credentials and attempts to authenticate.
//
// Expected rejections (wrong password, unknown account) are reported with
// the backend's message; unexpected failures print a generic message while
// the detail is logged. The password byte slice is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	creds := models.LoginCredentials{Email: email, Password: string(password)}
	if err := creds.Validate(); err != nil {
		printlnFn("Please enter a valid email address and password.")
		return nil
	}

	res, err := a.session.Login(ctx, creds)
	if err != nil {
		a.logger.Error(ctx, "login failed", "error", err)
		printlnFn(genericFailureMessage)
		return nil
	}

	printlnFn(res.Message)
	if res.OK() {
		printlnFn(fmt.Sprintf("Logged in as %s", email))
	}
	return nil
}
