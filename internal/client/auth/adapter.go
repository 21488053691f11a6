// Package auth defines the adapter contract that decouples credential
// verification from the rest of the client. A concrete adapter normalizes
// one backend's request/response shapes into the canonical operations below;
// the session provider is the only caller.
package auth

import (
	"context"

	"github.com/cartana/accounts/internal/client/models"
)

// AuthResult is the canonical normalized response from every credential
// operation. Token is non-empty if and only if the operation succeeded;
// Message carries a human-readable success note or the failure reason.
type AuthResult struct {
	Token   string
	Message string
}

// OK reports whether the operation succeeded.
func (r AuthResult) OK() bool { return r.Token != "" }

// Adapter is implemented by each credential backend. Expected backend
// failures (invalid credentials, duplicate signup, server-side validation)
// are folded into an AuthResult with an empty Token and a display message,
// with a nil error. A non-nil error signals an unexpected failure (network,
// backend outage) and wraps a sentinel from internal/common.
type Adapter interface {
	// Signup creates an account and, on success, returns a fresh session
	// token exactly like Login. Credential policy is enforced by the caller
	// before invoking the adapter.
	Signup(ctx context.Context, creds models.SignupCredentials) (AuthResult, error)

	// Login exchanges credentials for a session token.
	Login(ctx context.Context, creds models.LoginCredentials) (AuthResult, error)

	// Logout notifies the backend, best-effort. It must not block local
	// logout; failures are swallowed.
	Logout(ctx context.Context)

	// RequestPasswordReset asks the backend to dispatch a reset link.
	// It succeeds even when the email is unregistered, so account existence
	// is never leaked. Transport failures are reported.
	RequestPasswordReset(ctx context.Context, email string) error

	// ConfirmPasswordReset submits a new password authenticated by the
	// reset token rather than the session token.
	ConfirmPasswordReset(ctx context.Context, resetToken, password string) (AuthResult, error)

	// GetUser fetches the authenticated user's profile. Fails with
	// common.ErrUnauthorized when no valid session is presented; the caller
	// must only invoke it while a session token is present.
	GetUser(ctx context.Context) (*models.UserProfile, error)
}

// TokenRefresher is an optional adapter capability. Adapters that cannot
// renew a session token simply do not implement it; callers type-assert
// instead of relying on a no-op.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) (string, error)
}
