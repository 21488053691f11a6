package common

import "unicode"

// PasswordMeetsPolicy reports whether pw satisfies the minimum-strength
// policy: length >= 8 with at least one lowercase letter, one uppercase
// letter, and one digit. The client checks it before submitting; the server
// enforces it authoritatively.
func PasswordMeetsPolicy(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
