// Package session owns the client's session state: a durable store for the
// session token and the provider that orchestrates authentication, profile
// retrieval, and the token↔profile invariant.
package session

import "context"

// Store is the single source of truth for the persisted session token.
// It is mutated exclusively by the Provider.
//
// Read returns "" (and no error) when no token is persisted. Write must
// persist atomically so the durable and in-memory views never disagree.
// Concurrent writes resolve last-write-wins; tokens are opaque and
// unrelated, so no merge semantics exist.
type Store interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
