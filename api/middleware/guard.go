package middleware

import (
	"context"
	"net/http"

	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/internal/access"
	"github.com/autoflexeasy/autoflex-backend/pkg/auth"
	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

// AreaResolver decides access to a guarded area.
type AreaResolver interface {
	Resolve(ctx context.Context, identity *auth.Identity, area access.Area) access.Decision
}

// GuardPage redirects requests that may not enter the area.
func GuardPage(resolver AreaResolver, area access.Area) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := resolver.Resolve(r.Context(), IdentityFromContext(r.Context()), area)
			if !decision.Allowed {
				http.Redirect(w, r, decision.Redirect, http.StatusTemporaryRedirect)
				return
			}
			ctx := WithRole(r.Context(), decision.Role.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuardAPI answers 401 or 403 instead of redirecting.
func GuardAPI(resolver AreaResolver, area access.Area, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := resolver.Resolve(r.Context(), IdentityFromContext(r.Context()), area)
			if !decision.Allowed {
				if decision.Reason == access.ReasonNoIdentity {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted"))
				return
			}
			ctx := WithRole(r.Context(), decision.Role.String())
			if logg != nil {
				ctx = logg.WithActorRole(logg.WithArea(ctx, area.Name), decision.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
