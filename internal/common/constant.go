package common

// SessionTokenKey is the well-known key under which the session token is
// persisted in the client's durable store.
const SessionTokenKey = "session_token"

// AuthHeaderName and BearerScheme form the Authorization header carried on
// every authenticated HTTP request.
const (
	AuthHeaderName = "Authorization"
	BearerScheme   = "Bearer"
)
