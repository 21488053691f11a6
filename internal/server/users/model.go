package users

import "time"

// User is the server-side account record. UID is the stable public
// identifier used as the JWT subject; ID is the database surrogate key.
type User struct {
	ID           int64
	UID          string
	AccountID    int64
	AccountType  string
	FullName     string
	Email        string
	PasswordHash []byte
	Avatar       string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
