package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

// Mode is the Stripe account mode a key belongs to.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

var errAPIKeyRequired = errors.New("stripe api key is required")

// Client carries the configured account mode and webhook secret. The SDK's
// package-level key and backend are set once by NewClient and shared by
// Catalog.
type Client struct {
	mode          Mode
	restricted    bool
	signingSecret string
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	mode, err := parseMode(cfg.Environment())
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	restricted, err := checkKey(mode, key)
	if err != nil {
		return nil, err
	}

	stripe.Key = key
	stripe.SetAppInfo(&stripe.AppInfo{Name: "autoflex-backend"})
	backendCfg := &stripe.BackendConfig{MaxNetworkRetries: stripe.Int64(cfg.MaxRetries)}
	if logg != nil {
		backendCfg.LeveledLogger = &sdkLogger{ctx: ctx, logg: logg}
	}
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg))

	client := &Client{mode: mode, restricted: restricted, signingSecret: strings.TrimSpace(cfg.Secret)}
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"stripe_mode": string(mode), "restricted_key": restricted})
		logg.Info(ctx, "stripe.ready")
		if !client.WebhooksEnabled() {
			logg.Warn(ctx, "stripe.webhooks_disabled")
		}
	}
	return client, nil
}

func (c *Client) Mode() Mode {
	if c == nil {
		return ""
	}
	return c.mode
}

// WebhooksEnabled reports whether a signing secret is configured.
func (c *Client) WebhooksEnabled() bool {
	return c != nil && c.signingSecret != ""
}

func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func parseMode(raw string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return ModeTest, nil
	case ModeTest, ModeLive:
		return mode, nil
	default:
		return "", fmt.Errorf("stripe environment %q must be %q or %q", raw, ModeTest, ModeLive)
	}
}

// checkKey accepts secret (sk_) and restricted (rk_) keys whose mode
// matches and reports whether the key is restricted.
func checkKey(mode Mode, key string) (bool, error) {
	kind, rest, ok := strings.Cut(key, "_")
	if !ok || (kind != "sk" && kind != "rk") {
		return false, errors.New("stripe api key must be a secret (sk_) or restricted (rk_) key")
	}
	if !strings.HasPrefix(rest, string(mode)+"_") {
		return false, fmt.Errorf("stripe %s mode needs a %s_%s_ key", mode, kind, mode)
	}
	return kind == "rk", nil
}

// sdkLogger routes the SDK's request logging into the service logger.
type sdkLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (s *sdkLogger) Debugf(format string, v ...any) {
	s.logg.Debug(s.ctx, "stripe.sdk: "+fmt.Sprintf(format, v...))
}

func (s *sdkLogger) Infof(format string, v ...any) {
	s.logg.Debug(s.ctx, "stripe.sdk: "+fmt.Sprintf(format, v...))
}

func (s *sdkLogger) Warnf(format string, v ...any) {
	s.logg.Warn(s.ctx, "stripe.sdk: "+fmt.Sprintf(format, v...))
}

func (s *sdkLogger) Errorf(format string, v ...any) {
	s.logg.Error(s.ctx, "stripe.sdk", fmt.Errorf(format, v...))
}
