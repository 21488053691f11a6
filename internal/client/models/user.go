// Package models defines client-side data types for the accounts API.
package models

import "time"

// UserProfile is the authenticated user's profile as returned by the
// profile endpoint. Field names follow the backend's JSON envelope.
type UserProfile struct {
	ID          int64     `json:"id"`
	UID         string    `json:"uid"`
	AccountID   int64     `json:"account_id"`
	AccountType string    `json:"account_type,omitempty"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar,omitempty"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
