// Package middleware holds the HTTP middleware the router composes
// around handlers: bearer-token auth, CORS, and per-client rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vraj62023/MultimodalChatbot/pkg/utils"
)

type ctxKey string

const ctxKeyOwnerID ctxKey = "ownerID"

// TokenVerifier validates an access token and yields the owner id it was
// issued for.
type TokenVerifier interface {
	VerifyAccess(token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores
// the resolved owner id in the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				utils.RespondError(w, http.StatusUnauthorized, "not authorized, no token")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			// Frontends have been observed sending the literal strings
			// "undefined" and "null" after a failed login.
			if token == "" || token == "undefined" || token == "null" {
				utils.RespondError(w, http.StatusUnauthorized, "not authorized, token failed")
				return
			}

			ownerID, err := verifier.VerifyAccess(token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "not authorized, token failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), ownerID)))
		})
	}
}

// WithOwnerID stores the authenticated owner id in ctx.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ctxKeyOwnerID, ownerID)
}

// OwnerIDFromContext returns the authenticated owner id, if any.
func OwnerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyOwnerID).(string)
	return id, ok && id != ""
}
