package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/noah-isme/roller-shop/internal/common"
)

// AccessTokenParser validates an access token. *Service implements it.
type AccessTokenParser interface {
	ParseAccessToken(token string) (Claims, error)
}

type emailKey struct{}

// Middleware puts the authenticated user into the request context.
type Middleware struct {
	Service AccessTokenParser
}

// RequireAuth rejects requests without a valid bearer token. Failures carry
// a WWW-Authenticate challenge.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
			return
		}
		if m.Service == nil {
			common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Authentication unavailable")
			return
		}
		claims, err := m.Service.ParseAccessToken(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}
		ctx := common.WithUserID(r.Context(), claims.UserID)
		ctx = context.WithValue(ctx, emailKey{}, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// EmailFromContext returns the email claim of the authenticated user.
func EmailFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(emailKey{}).(string)
	return v, ok && v != ""
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
