package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cartana/accounts/internal/common"
	"github.com/cartana/accounts/internal/logging"
	"github.com/cartana/accounts/internal/server/auth"
	"github.com/cartana/accounts/internal/server/config"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service implements the account operations behind the HTTP handlers.
type Service struct {
	repo                         Repository
	logger                       logging.Logger
	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
}

func NewService(repo Repository, logger logging.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:                         repo,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
	}
}

// Signup registers a new account and opens a session for it. A duplicate
// email yields common.ErrConflict.
func (s *Service) Signup(ctx context.Context, email, password, fullName string) (string, *User, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		UID:          uuid.NewString(),
		AccountType:  "individual",
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return "", nil, common.ErrConflict
		}
		return "", nil, fmt.Errorf("error creating user: %w", err)
	}
	// the reference backend keeps one account per user
	user.AccountID = user.ID

	token, err := auth.GenerateSessionToken(user.UID, s.jwtSecret, s.sessionTokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrInternal
	}

	return token, user, nil
}

// Login verifies the credentials and returns a session token. A missing
// account and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", common.ErrInternal
	}

	if user.Disabled {
		return "", common.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return "", common.ErrInvalidCredentials
	}

	token, err := auth.GenerateSessionToken(user.UID, s.jwtSecret, s.sessionTokenValidityDuration)
	if err != nil {
		return "", common.ErrInternal
	}

	return token, nil
}

// Profile returns the account identified by uid.
func (s *Service) Profile(ctx context.Context, uid string) (*User, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}
	return user, nil
}

// RequestReset issues a reset token for the account and hands it to the
// delivery channel (here: the log). An unknown email is not an error, so
// the endpoint's answer never reveals whether the account exists.
func (s *Service) RequestReset(ctx context.Context, email string) error {

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info(ctx, "reset requested for unknown email")
			return nil
		}
		return common.ErrInternal
	}

	token, err := auth.GenerateResetToken(user.UID, s.jwtSecret, s.resetTokenValidityDuration)
	if err != nil {
		return common.ErrInternal
	}

	// Stand-in for the mail dispatcher.
	s.logger.Info(ctx, "password reset link issued", "email", email, "token", token)
	return nil
}

// ConfirmReset verifies the reset token, consumes its jti, stores the new
// password hash, and opens a fresh session. Reuse of a link fails with
// common.ErrTokenExpired.
func (s *Service) ConfirmReset(ctx context.Context, resetToken, newPassword string) (string, error) {

	claims, err := auth.ParseToken(resetToken, auth.PurposeReset, s.jwtSecret)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", common.ErrInternal
	}

	err = s.repo.ResetPassword(ctx, claims.UserID, claims.ID, hash, claims.ExpiresAt.Time)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrNotFound) {
			return "", err
		}
		return "", common.ErrInternal
	}

	token, err := auth.GenerateSessionToken(claims.UserID, s.jwtSecret, s.sessionTokenValidityDuration)
	if err != nil {
		return "", common.ErrInternal
	}

	return token, nil
}
