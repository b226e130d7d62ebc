package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/pkg/auth"
	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"

	defaultSessionTimeout = 2 * time.Second
)

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Session attaches the identity carried by the request, if any.
// It never rejects: a missing, invalid or slow token leaves the request anonymous.
func Session(verifier TokenVerifier, timeout time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultSessionTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifyWithin(r.Context(), verifier, token, timeout)
			if err != nil {
				if logg != nil {
					logg.Debug(logg.WithField(r.Context(), "reason", err.Error()), "session.unverified")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			ctx = withAccessToken(ctx, token)
			if logg != nil {
				ctx = logg.WithUserID(ctx, identity.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity answers 401 for API routes reached without a session.
func RequireIdentity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func verifyWithin(ctx context.Context, verifier TokenVerifier, token string, timeout time.Duration) (*auth.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		claims *auth.Claims
		err    error
	}
	done := make(chan result, 1)
	go func() {
		claims, err := verifier.Verify(token)
		done <- result{claims: claims, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		identity := res.claims.Identity()
		if identity == nil {
			return nil, auth.ErrMissingSubject
		}
		return identity, nil
	}
}

func extractToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return ""
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
