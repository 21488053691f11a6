package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/cartana/accounts/internal/common"
	"github.com/cartana/accounts/internal/server/auth"
)

type contextKey string

const sessionUIDKey contextKey = "session_uid"

// bearerToken extracts the credential from the Authorization header.
// Returns "" when the header is missing or not a Bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get(common.AuthHeaderName)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// withSession requires a valid session token and stores the caller's uid in
// the request context.
func (h *Handler) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeDetail(w, r, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := auth.ParseToken(token, auth.PurposeSession, h.jwtSecret)
		if err != nil {
			writeDetail(w, r, http.StatusUnauthorized, "Not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), sessionUIDKey, claims.UserID)
		next(w, r.WithContext(ctx))
	})
}

// sessionUID returns the uid stored by withSession, or "".
func sessionUID(ctx context.Context) string {
	uid, _ := ctx.Value(sessionUIDKey).(string)
	return uid
}
