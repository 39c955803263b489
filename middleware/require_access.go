package middleware

import (
	"context"
	"net/http"
	"strings"

	authflow "github.com/hailrides/authflow"
	"github.com/hailrides/authflow/jwt"
)

type accessClaimsContextKey struct{}

// AccessClaimsFromContext retrieves the claims injected by [RequireAccess].
func AccessClaimsFromContext(ctx context.Context) (*jwt.AccessClaims, bool) {
	claims, ok := ctx.Value(accessClaimsContextKey{}).(*jwt.AccessClaims)
	return claims, ok
}

// RequireAccess returns middleware that rejects requests without a valid
// access token. The token is read from the Authorization header first, then
// from the access_token cookie the example transport sets on login.
func RequireAccess(engine *authflow.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				if c, err := r.Cookie("access_token"); err == nil && c.Value != "" {
					token, ok = c.Value, true
				}
			}
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := engine.ValidateAccess(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accessClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
