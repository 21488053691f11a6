// Package auth issues and verifies the server's JWTs. Two token kinds share
// one claims shape, distinguished by purpose: session tokens returned from
// login/signup, and short-lived reset tokens embedded in password-reset
// links.
package auth

import (
	"errors"
	"time"

	"github.com/cartana/accounts/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PurposeSession = "session"
	PurposeReset   = "reset"
)

// Claims carries the registered claims plus the user identity and the
// token's purpose. Reset tokens additionally get a jti so the server can
// enforce single use.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	Purpose string `json:"purpose"`
}

func generate(userID, purpose string, secretKey []byte, validityDuration time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:  userID,
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GenerateSessionToken issues an HS256 session token for userID.
func GenerateSessionToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return generate(userID, PurposeSession, secretKey, validityDuration)
}

// GenerateResetToken issues a short-lived password-reset token for userID.
func GenerateResetToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return generate(userID, PurposeReset, secretKey, validityDuration)
}

// ParseToken verifies signature, expiry, and purpose, and returns the
// claims. An expired token maps to common.ErrTokenExpired, anything else
// that fails verification to common.ErrInvalidToken.
func ParseToken(tokenString, purpose string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Purpose != purpose {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
