package auth

import (
	"context"
	"time"

	"github.com/cartana/accounts/internal/client/models"
)

// DemoAdapter verifies credentials against a single configured pair without
// touching the network. It exists for demos and offline development of
// consumers that only need the session lifecycle.
//
// It deliberately does not implement TokenRefresher: demo sessions never
// expire, and omitting the capability is the documented way to signal that.
type DemoAdapter struct {
	email    string
	password string
}

var _ Adapter = (*DemoAdapter)(nil)

func NewDemoAdapter(email, password string) *DemoAdapter {
	return &DemoAdapter{email: email, password: password}
}

func (a *DemoAdapter) Login(ctx context.Context, creds models.LoginCredentials) (AuthResult, error) {
	if creds.Email == a.email && creds.Password == a.password {
		return AuthResult{Token: "dummytoken", Message: "Login successful"}, nil
	}
	return AuthResult{Message: "Invalid username or password"}, nil
}

func (a *DemoAdapter) Signup(ctx context.Context, creds models.SignupCredentials) (AuthResult, error) {
	return AuthResult{Message: "Signup is not available in demo mode"}, nil
}

func (a *DemoAdapter) Logout(ctx context.Context) {}

func (a *DemoAdapter) RequestPasswordReset(ctx context.Context, email string) error {
	// Pretend the link was sent; demo mode must not leak whether the
	// address matches the configured account.
	return nil
}

func (a *DemoAdapter) ConfirmPasswordReset(ctx context.Context, resetToken, password string) (AuthResult, error) {
	return AuthResult{Message: "Reset link is invalid or has expired"}, nil
}

func (a *DemoAdapter) GetUser(ctx context.Context) (*models.UserProfile, error) {
	now := time.Now().UTC()
	return &models.UserProfile{
		ID:        1,
		UID:       "demo",
		AccountID: 1,
		FullName:  "Demo User",
		Email:     a.email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
