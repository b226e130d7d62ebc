package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autoflexeasy/autoflex-backend/api/middleware"
	"github.com/autoflexeasy/autoflex-backend/internal/access"
	"github.com/autoflexeasy/autoflex-backend/pkg/auth"
	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/supabase"
)

type stubProvider struct {
	session    *supabase.Session
	err        error
	exchangeOK bool
	signedOut  []string
}

func (s *stubProvider) SignInWithPassword(_ context.Context, email, _ string) (*supabase.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *stubProvider) ExchangeCodeForSession(_ context.Context, code, _ string) (*supabase.Session, error) {
	if !s.exchangeOK {
		return nil, &supabase.APIError{Status: http.StatusBadRequest, Message: "invalid flow state"}
	}
	return s.session, nil
}

func (s *stubProvider) SignOut(_ context.Context, token string) error {
	s.signedOut = append(s.signedOut, token)
	return nil
}

type mapRoles map[string]string

func (m mapRoles) RoleFor(_ context.Context, id string) (string, error) {
	return m[id], nil
}

func newGuard(t *testing.T, roles mapRoles, adminRoles ...string) *access.Resolver {
	t.Helper()
	cfg := config.AccessConfig{
		AdminRoles:     adminRoles,
		SignInPath:     "/signin",
		AdminLoginPath: "/admin-login",
		AdminHomePath:  "/admin",
		UserHomePath:   "/dashboard/account",
	}
	resolver, err := access.NewResolver(access.ResolverParams{
		Roles:     roles,
		Areas:     access.AreasFromConfig(cfg, config.AppConfig{Env: "dev"}),
		AdminHome: cfg.AdminHomePath,
		UserHome:  cfg.UserHomePath,
	})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func sessionFor(id string) *supabase.Session {
	return &supabase.Session{AccessToken: "tok-" + id, RefreshToken: "ref-" + id, ExpiresIn: 3600, User: supabase.User{ID: id, Email: id + "@example.com"}}
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeRedirect(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Data redirectResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return payload.Data.Redirect
}

func hasCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.Value != "" && c.MaxAge > 0 {
			return true
		}
	}
	return false
}

func TestAuthSignInRedirectsByRole(t *testing.T) {
	cases := []struct {
		role string
		want string
	}{
		{"admin", "/admin"},
		{"manager", "/dashboard/account"},
		{"", "/dashboard/account"},
	}
	for _, tc := range cases {
		provider := &stubProvider{session: sessionFor("u1")}
		handler := AuthSignIn(provider, newGuard(t, mapRoles{"u1": tc.role}, "admin"), CookieOptions{}, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, postJSON("/api/v1/auth/signin", `{"email":"u1@example.com","password":"pw"}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("role %q: expected 200 got %d (%s)", tc.role, rec.Code, rec.Body.String())
		}
		if got := decodeRedirect(t, rec); got != tc.want {
			t.Fatalf("role %q: expected %s got %s", tc.role, tc.want, got)
		}
		if !hasCookie(rec, middleware.AccessTokenCookie) {
			t.Fatalf("role %q: expected access cookie", tc.role)
		}
	}
}

func TestAuthSignInRejectsBadCredentials(t *testing.T) {
	provider := &stubProvider{err: &supabase.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}}
	handler := AuthSignIn(provider, newGuard(t, mapRoles{}, "admin"), CookieOptions{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postJSON("/api/v1/auth/signin", `{"email":"x@example.com","password":"pw"}`))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthSignInValidatesBody(t *testing.T) {
	handler := AuthSignIn(&stubProvider{}, newGuard(t, mapRoles{}, "admin"), CookieOptions{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postJSON("/api/v1/auth/signin", `{"email":"not-an-email","password":""}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminLoginDeniesManagerUnlessAllowListed(t *testing.T) {
	provider := &stubProvider{session: sessionFor("m1")}
	handler := AdminLogin(provider, newGuard(t, mapRoles{"m1": "manager"}, "admin"), CookieOptions{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postJSON("/admin-login", `{"email":"m1@example.com","password":"pw"}`))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if len(provider.signedOut) != 1 || provider.signedOut[0] != "tok-m1" {
		t.Fatalf("expected rejected session to be signed out, got %v", provider.signedOut)
	}
	if hasCookie(rec, middleware.AccessTokenCookie) {
		t.Fatal("rejected login must not set a session cookie")
	}

	provider = &stubProvider{session: sessionFor("m1")}
	handler = AdminLogin(provider, newGuard(t, mapRoles{"m1": "manager"}, "admin", "manager"), CookieOptions{}, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, postJSON("/admin-login", `{"email":"m1@example.com","password":"pw"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := decodeRedirect(t, rec); got != "/admin" {
		t.Fatalf("expected /admin got %s", got)
	}
}

func TestAuthCallbackExchangeFailureRedirectsToSignIn(t *testing.T) {
	handler := AuthCallback(&stubProvider{}, newGuard(t, mapRoles{}, "admin"), CookieOptions{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/signin" {
		t.Fatalf("expected redirect to /signin, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAuthCallbackLandsAdminOnPanel(t *testing.T) {
	provider := &stubProvider{session: sessionFor("a1"), exchangeOK: true}
	handler := AuthCallback(provider, newGuard(t, mapRoles{"a1": "admin"}, "admin"), CookieOptions{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=ok", nil))
	if rec.Header().Get("Location") != "/admin" {
		t.Fatalf("expected /admin got %q", rec.Header().Get("Location"))
	}
	if !hasCookie(rec, middleware.AccessTokenCookie) {
		t.Fatal("expected session cookie after exchange")
	}
}

func TestAuthCallbackWithoutCodeUsesExistingSession(t *testing.T) {
	handler := AuthCallback(&stubProvider{}, newGuard(t, mapRoles{"u9": "user"}, "admin"), CookieOptions{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	if rec.Header().Get("Location") != "/signin" {
		t.Fatalf("anonymous callback should go to /signin, got %q", rec.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), &auth.Identity{ID: "u9"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Location") != "/dashboard/account" {
		t.Fatalf("expected user panel, got %q", rec.Header().Get("Location"))
	}
}

func TestAuthSignOutClearsCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthSignOut(&stubProvider{}, CookieOptions{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signout", nil))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	cleared := 0
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected both session cookies cleared, got %d", cleared)
	}
}
