package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pionia-project/pionia/internal/auth"
)

type identityContextKey struct{}

// TokenVerifier turns a bearer token into a caller identity.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// Identity extracts an optional Bearer token and attaches the verified
// identity to the request context. Requests without a token pass
// through anonymously; whether anonymity is acceptable is decided per
// service during dispatch, not here.
func Identity(verifier TokenVerifier, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.Verify(parts[1])
			if err != nil {
				// An invalid token is treated as anonymous rather than
				// rejected outright, so public actions keep working.
				logger.WarnContext(r.Context(), "token verification failed",
					"error", err.Error(),
					"path", r.URL.Path,
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity attaches an identity to the context.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the caller identity, nil when anonymous.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*auth.Identity)
	return identity
}
