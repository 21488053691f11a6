package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/cartana/accounts/internal/client/api"
	"github.com/cartana/accounts/internal/client/models"
	"github.com/cartana/accounts/internal/common"
	"github.com/cartana/accounts/internal/logging"
)

// Backend endpoints, relative to the API base URL.
const (
	signupPath       = "/accounts/signup"
	loginPath        = "/accounts/login"
	logoutPath       = "/accounts/logout"
	profilePath      = "/accounts/profile/me"
	resetPath        = "/accounts/reset-password"
	confirmResetPath = "/accounts/confirm-reset-password"
)

// tokenEnvelope is the backend's response to every credential operation.
type tokenEnvelope struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

// RESTAdapter talks to the accounts backend over form-encoded HTTP.
// The signup endpoint takes the address in an "email" field while login
// takes it in "username"; both quirks are absorbed here.
type RESTAdapter struct {
	api    *api.Client
	logger logging.Logger
}

var _ Adapter = (*RESTAdapter)(nil)

func NewRESTAdapter(client *api.Client, logger logging.Logger) *RESTAdapter {
	return &RESTAdapter{api: client, logger: logger.With("component", "rest_adapter")}
}

// authRequest posts form to endpoint and normalizes the outcome. Expected
// backend rejections become a soft AuthResult; anything else is returned as
// an error wrapping a common sentinel.
func (a *RESTAdapter) authRequest(ctx context.Context, endpoint string, form url.Values, bearer string) (AuthResult, error) {
	data, err := a.api.PostForm(ctx, endpoint, form, bearer)
	if err != nil {
		if expectedRejection(err) {
			msg := api.ErrorMessage(err)
			if msg == "" {
				msg = "Authentication failed"
			}
			a.logger.Debug(ctx, "backend rejected credentials", "endpoint", endpoint, "reason", msg)
			return AuthResult{Message: msg}, nil
		}
		return AuthResult{}, fmt.Errorf("%s: %w", endpoint, err)
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return AuthResult{}, fmt.Errorf("%s: decoding response: %w", endpoint, err)
	}

	msg := envelope.Message
	if msg == "" {
		msg = "Success"
	}
	return AuthResult{Token: envelope.AccessToken, Message: msg}, nil
}

// expectedRejection reports whether err represents a backend verdict on the
// submitted credentials rather than a delivery failure.
func expectedRejection(err error) bool {
	return errors.Is(err, common.ErrUnauthorized) ||
		errors.Is(err, common.ErrValidation) ||
		errors.Is(err, common.ErrConflict) ||
		errors.Is(err, common.ErrTokenExpired)
}

func (a *RESTAdapter) Signup(ctx context.Context, creds models.SignupCredentials) (AuthResult, error) {
	form := url.Values{}
	form.Set("email", creds.Email)
	form.Set("password", creds.Password)
	if creds.FullName != "" {
		form.Set("full_name", creds.FullName)
	}
	return a.authRequest(ctx, signupPath, form, "")
}

func (a *RESTAdapter) Login(ctx context.Context, creds models.LoginCredentials) (AuthResult, error) {
	form := url.Values{}
	form.Set("username", creds.Email)
	form.Set("password", creds.Password)
	return a.authRequest(ctx, loginPath, form, "")
}

// Logout is a best-effort backend notification. Errors are logged and
// dropped: local logout must never be blocked by the backend.
func (a *RESTAdapter) Logout(ctx context.Context) {
	if _, err := a.api.PostForm(ctx, logoutPath, url.Values{}, ""); err != nil {
		a.logger.Debug(ctx, "backend logout failed", "error", err)
	}
}

func (a *RESTAdapter) RequestPasswordReset(ctx context.Context, email string) error {
	form := url.Values{}
	form.Set("email", email)

	_, err := a.api.PostForm(ctx, resetPath, form, "")
	if err == nil {
		return nil
	}
	// The backend answers 200 for unknown addresses, so a rejection here is
	// not an existence leak. Transport failures surface to the caller;
	// anything the backend said is reduced to the validation sentinel.
	if errors.Is(err, common.ErrNetwork) {
		return err
	}
	if expectedRejection(err) {
		return fmt.Errorf("%w: %s", common.ErrValidation, api.ErrorMessage(err))
	}
	return err
}

func (a *RESTAdapter) ConfirmPasswordReset(ctx context.Context, resetToken, password string) (AuthResult, error) {
	form := url.Values{}
	form.Set("password", password)
	return a.authRequest(ctx, confirmResetPath, form, resetToken)
}

func (a *RESTAdapter) GetUser(ctx context.Context) (*models.UserProfile, error) {
	data, err := a.api.Get(ctx, profilePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", profilePath, err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", profilePath, err)
	}
	return &profile, nil
}
