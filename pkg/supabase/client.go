// Package supabase is a thin client for the Supabase Auth (GoTrue) REST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/autoflexeasy/autoflex-backend/pkg/config"
)

const maxResponseBytes = 1 << 20

// User is the subset of the auth provider's user object the service reads.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
}

// Session is returned by the token endpoints.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// GenerateLinkParams drives the admin generate_link endpoint.
type GenerateLinkParams struct {
	Type       string `json:"type"`
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// GeneratedLink is the useful part of a generate_link response.
type GeneratedLink struct {
	UserID     string
	ActionLink string
	OTP        string
}

// APIError is a non-2xx answer from the auth provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: %d %s", e.Status, e.Message)
}

// IsClientError reports whether the provider rejected the request itself.
func (e *APIError) IsClientError() bool {
	return e != nil && e.Status >= 400 && e.Status < 500
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Client talks to one Supabase project.
type Client struct {
	authURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
}

// New builds a client from config. The service role key is only sent on admin endpoints.
func New(cfg config.SupabaseConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("supabase url is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase anon key is required")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		authURL:    base + "/auth/v1",
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceRoleKey,
		http:       &http.Client{Timeout: timeout},
	}, nil
}

// GetUser resolves the user behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, accessToken, false, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignInWithPassword runs the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", body, "", false, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ExchangeCodeForSession completes the PKCE flow started by the front end.
func (c *Client) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*Session, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "auth code is required"}
	}
	body := map[string]string{"auth_code": code, "code_verifier": verifier}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=pkce", body, "", false, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, accessToken, false, nil)
}

// GenerateLink creates an invite, magic link or recovery link with the service role.
func (c *Client) GenerateLink(ctx context.Context, params GenerateLinkParams) (*GeneratedLink, error) {
	if c.serviceKey == "" {
		return nil, errors.New("supabase service role key is required for admin calls")
	}
	raw, err := c.doRaw(ctx, http.MethodPost, "/admin/generate_link", params, "", true)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(raw)
	link := &GeneratedLink{
		UserID:     firstString(parsed, "id", "user.id"),
		ActionLink: firstString(parsed, "action_link", "properties.action_link"),
		OTP:        firstString(parsed, "email_otp", "properties.email_otp"),
	}
	return link, nil
}

// ListUsers pages through the project's users with the service role.
func (c *Client) ListUsers(ctx context.Context, page, perPage int) ([]User, error) {
	if c.serviceKey == "" {
		return nil, errors.New("supabase service role key is required for admin calls")
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/users?"+q.Encode(), nil, "", true, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, bearer string, admin bool, out any) error {
	raw, err := c.doRaw(ctx, method, path, body, bearer, admin)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode supabase response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any, bearer string, admin bool) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode supabase request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.authURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	apiKey := c.anonKey
	if admin {
		apiKey = c.serviceKey
		bearer = c.serviceKey
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read supabase response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}
	return raw, nil
}

// errorMessage picks the human message out of the several error shapes GoTrue returns.
func errorMessage(raw []byte, fallback string) string {
	if !gjson.ValidBytes(raw) {
		if s := strings.TrimSpace(string(raw)); s != "" {
			return s
		}
		return fallback
	}
	if msg := firstString(gjson.ParseBytes(raw), "msg", "message", "error_description", "error"); msg != "" {
		return msg
	}
	return fallback
}

func firstString(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() && v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
