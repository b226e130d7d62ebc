package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/autoflexeasy/autoflex-backend/pkg/config"
)

const defaultLeeway = 30 * time.Second

var (
	errNoKeyMaterial  = errors.New("either a jwt secret or a jwks url is required")
	ErrMissingSubject = errors.New("token missing sub")
)

// Verifier validates Supabase access tokens locally, using the project
// secret for HS256 tokens and the JWKS endpoint for asymmetric ones.
type Verifier struct {
	secret []byte
	jwks   keyfunc.Keyfunc
	parser *jwt.Parser
}

// NewVerifier builds a verifier from the Supabase config.
func NewVerifier(ctx context.Context, cfg config.SupabaseConfig) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if secret == "" && jwksURL == "" {
		return nil, errNoKeyMaterial
	}

	v := &Verifier{}
	methods := []string{}
	if secret != "" {
		v.secret = []byte(secret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if jwksURL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
		}
		v.jwks = k
		methods = append(methods,
			jwt.SigningMethodRS256.Alg(),
			jwt.SigningMethodES256.Alg(),
		)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(cfg.Issuer()),
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}
	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// Verify parses and validates an access token, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v == nil || v.parser == nil {
		return nil, errors.New("verifier not configured")
	}
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.key)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

func (v *Verifier) key(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if len(v.secret) == 0 {
			return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
	}
	return v.jwks.Keyfunc(token)
}
