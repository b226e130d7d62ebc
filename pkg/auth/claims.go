package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated user handle issued by the auth provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Claims are the Supabase access token claims the service reads.
type Claims struct {
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	SessionID   string         `json:"session_id"`
	AppMetadata map[string]any `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into an Identity; nil when the subject is missing.
func (c *Claims) Identity() *Identity {
	if c == nil || strings.TrimSpace(c.Subject) == "" {
		return nil
	}
	return &Identity{ID: c.Subject, Email: c.Email}
}
