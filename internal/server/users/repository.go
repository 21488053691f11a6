package users

import (
	"context"
	"time"
)

// Repository persists account records.
//
// Create returns common.ErrConflict when the email is already registered.
// Lookups return common.ErrNotFound for missing accounts. ResetPassword
// consumes the reset token's jti and updates the password hash in one
// transaction; a jti seen before yields common.ErrTokenExpired, so a reset
// link works exactly once.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUID(ctx context.Context, uid string) (*User, error)
	ResetPassword(ctx context.Context, uid, jti string, passwordHash []byte, jtiExpires time.Time) error
}
