package models

import (
	"github.com/cartana/accounts/internal/common"
	"github.com/go-playground/validator/v10"
)

// LoginCredentials identify an existing account.
type LoginCredentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// SignupCredentials create a new account. FullName is optional.
type SignupCredentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,accountpassword"`
	FullName string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Password policy checked client-side before any adapter call; the
	// backend applies the same policy authoritatively.
	_ = v.RegisterValidation("accountpassword", func(fl validator.FieldLevel) bool {
		return common.PasswordMeetsPolicy(fl.Field().String())
	})
	return v
}

// PasswordMeetsPolicy reports whether pw satisfies the minimum-strength
// policy shared with the backend.
func PasswordMeetsPolicy(pw string) bool {
	return common.PasswordMeetsPolicy(pw)
}

// Validate checks the credentials against the client-side policy.
func (c LoginCredentials) Validate() error {
	return validate.Struct(c)
}

// Validate checks the credentials against the client-side policy, including
// the password-strength rule for new accounts.
func (c SignupCredentials) Validate() error {
	return validate.Struct(c)
}
