package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/autoflexeasy/autoflex-backend/api/middleware"
	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/api/validators"
	"github.com/autoflexeasy/autoflex-backend/internal/access"
	"github.com/autoflexeasy/autoflex-backend/pkg/auth"
	"github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	"github.com/autoflexeasy/autoflex-backend/pkg/supabase"
)

const (
	codeVerifierCookie = "sb-code-verifier"
	refreshCookieTTL   = 7 * 24 * time.Hour
)

// SessionProvider is the auth provider surface used by the sign-in flows.
type SessionProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	ExchangeCodeForSession(ctx context.Context, code, verifier string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// SessionGuard decides where an identity may go after authenticating.
type SessionGuard interface {
	Resolve(ctx context.Context, identity *auth.Identity, area access.Area) access.Decision
	CallbackDestination(ctx context.Context, identity *auth.Identity) string
	Areas() access.Areas
}

// CookieOptions controls how session cookies are written.
type CookieOptions struct {
	Secure bool
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

// AuthSignIn performs a password grant and answers with the landing path.
func AuthSignIn(provider SessionProvider, guard SessionGuard, cookies CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := passwordSignIn(w, r, provider, logg)
		if !ok {
			return
		}

		identity := sessionIdentity(session)
		setSessionCookies(w, session, cookies)
		responses.WriteSuccess(w, redirectResponse{Redirect: guard.CallbackDestination(r.Context(), identity)})
	}
}

// AdminLogin signs in and keeps the session only when the role may enter the admin area.
func AdminLogin(provider SessionProvider, guard SessionGuard, cookies CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := passwordSignIn(w, r, provider, logg)
		if !ok {
			return
		}

		ctx := r.Context()
		identity := sessionIdentity(session)
		area := guard.Areas().Admin
		decision := guard.Resolve(ctx, identity, area)
		if !decision.Allowed {
			if err := provider.SignOut(ctx, session.AccessToken); err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "auth.admin_login.signout_failed")
			}
			clearSessionCookies(w, cookies)
			responses.WriteError(ctx, logg, w, errors.New(errors.CodeForbidden, "only administrators may sign in here"))
			return
		}

		setSessionCookies(w, session, cookies)
		responses.WriteSuccess(w, redirectResponse{Redirect: guard.CallbackDestination(ctx, identity)})
	}
}

// AuthCallback completes magic link, invite and recovery flows.
func AuthCallback(provider SessionProvider, guard SessionGuard, cookies CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		signIn := guard.Areas().Dashboard.SignInPath
		identity := middleware.IdentityFromContext(ctx)

		if code := strings.TrimSpace(r.URL.Query().Get("code")); code != "" {
			verifier := ""
			if c, err := r.Cookie(codeVerifierCookie); err == nil {
				verifier = c.Value
			}
			session, err := provider.ExchangeCodeForSession(ctx, code, verifier)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "auth.callback.exchange_failed")
				}
				http.Redirect(w, r, signIn, http.StatusSeeOther)
				return
			}
			setSessionCookies(w, session, cookies)
			expireCookie(w, codeVerifierCookie, cookies)
			identity = sessionIdentity(session)
		}

		if identity == nil {
			http.Redirect(w, r, signIn, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, guard.CallbackDestination(ctx, identity), http.StatusSeeOther)
	}
}

// AuthSignOut ends the provider session on a best-effort basis and clears cookies.
func AuthSignOut(provider SessionProvider, cookies CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if token := middleware.AccessTokenFromContext(ctx); token != "" {
			if err := provider.SignOut(ctx, token); err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "auth.signout.provider_failed")
			}
		}
		clearSessionCookies(w, cookies)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func passwordSignIn(w http.ResponseWriter, r *http.Request, provider SessionProvider, logg *logger.Logger) (*supabase.Session, bool) {
	var body signInRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	email := validators.NormalizeEmail(body.Email)

	session, err := provider.SignInWithPassword(r.Context(), email, body.Password)
	if err != nil {
		if apiErr, ok := supabase.AsAPIError(err); ok && apiErr.IsClientError() {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeUnauthorized, "invalid credentials"))
			return nil, false
		}
		responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeUpstream, err, "auth provider unavailable"))
		return nil, false
	}
	if session == nil || session.AccessToken == "" || session.User.ID == "" {
		responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeUpstream, "auth provider returned no session"))
		return nil, false
	}
	return session, true
}

func sessionIdentity(session *supabase.Session) *auth.Identity {
	if session == nil || session.User.ID == "" {
		return nil
	}
	return &auth.Identity{ID: session.User.ID, Email: session.User.Email}
}

func setSessionCookies(w http.ResponseWriter, session *supabase.Session, opts CookieOptions) {
	accessTTL := time.Duration(session.ExpiresIn) * time.Second
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	http.SetCookie(w, sessionCookie(middleware.AccessTokenCookie, session.AccessToken, accessTTL, opts))
	if session.RefreshToken != "" {
		http.SetCookie(w, sessionCookie(middleware.RefreshTokenCookie, session.RefreshToken, refreshCookieTTL, opts))
	}
}

func clearSessionCookies(w http.ResponseWriter, opts CookieOptions) {
	expireCookie(w, middleware.AccessTokenCookie, opts)
	expireCookie(w, middleware.RefreshTokenCookie, opts)
}

func expireCookie(w http.ResponseWriter, name string, opts CookieOptions) {
	c := sessionCookie(name, "", 0, opts)
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func sessionCookie(name, value string, ttl time.Duration, opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
