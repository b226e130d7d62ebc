package stripe

import (
	"context"
	"testing"

	"github.com/autoflexeasy/autoflex-backend/pkg/config"
)

func TestNewClientValidatesKeyForEnvironment(t *testing.T) {
	cases := []struct {
		name       string
		cfg        config.StripeConfig
		wantErr    bool
		restricted bool
	}{
		{name: "test key", cfg: config.StripeConfig{APIKey: "sk_test_abc", Env: "test"}},
		{name: "restricted test key", cfg: config.StripeConfig{APIKey: "rk_test_abc"}, restricted: true},
		{name: "live key", cfg: config.StripeConfig{APIKey: "sk_live_abc", Env: "LIVE"}},
		{name: "live key in test", cfg: config.StripeConfig{APIKey: "sk_live_abc", Env: "test"}, wantErr: true},
		{name: "publishable key", cfg: config.StripeConfig{APIKey: "pk_test_abc"}, wantErr: true},
		{name: "missing key", cfg: config.StripeConfig{Env: "test"}, wantErr: true},
		{name: "bad env", cfg: config.StripeConfig{APIKey: "sk_test_abc", Env: "staging"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tc.cfg, nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v got %v", tc.wantErr, err)
			}
			if err == nil && client.restricted != tc.restricted {
				t.Fatalf("restricted=%v, want %v", client.restricted, tc.restricted)
			}
		})
	}
}

func TestModeDefaultsToTest(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_abc", Env: " "}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Mode() != ModeTest {
		t.Fatalf("expected test mode, got %q", client.Mode())
	}
	var nilClient *Client
	if nilClient.Mode() != "" {
		t.Fatal("nil client has no mode")
	}
}

func TestWebhooksEnabledFollowsSecret(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_abc"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.WebhooksEnabled() {
		t.Fatal("webhooks should be disabled without a secret")
	}

	client, err = NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_abc", Secret: "whsec_1"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if !client.WebhooksEnabled() || client.SigningSecret() != "whsec_1" {
		t.Fatal("webhooks should be enabled with a secret")
	}
	var nilClient *Client
	if nilClient.WebhooksEnabled() {
		t.Fatal("nil client cannot serve webhooks")
	}
}

func TestListLimits(t *testing.T) {
	if got := limitFor(0); got != pageSize {
		t.Fatalf("expected page size, got %d", got)
	}
	if got := limitFor(10); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := limitFor(500); got != pageSize {
		t.Fatalf("expected clamp to page size, got %d", got)
	}
	if !reached(10, 10) || reached(9, 10) {
		t.Fatal("reached mismatch")
	}
}
