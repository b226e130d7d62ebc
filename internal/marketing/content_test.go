package marketing

import (
	"testing"

	"github.com/autoflexeasy/autoflex-backend/pkg/config"
)

func TestPricingPlans(t *testing.T) {
	plans := NewContent(config.SiteConfig{Name: "AutoFlex Easy", URL: "https://autoflexeasy.com/"}).Pricing()
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	if plans[0].MonthlyPriceMinor != 2000 || plans[0].MonthlyPrice.String() != "$20.00" {
		t.Fatalf("unexpected starter plan %+v", plans[0])
	}
	if plans[1].MonthlyPriceMinor != 9000 || plans[1].MonthlyPrice.String() != "$90.00" {
		t.Fatalf("unexpected pro plan %+v", plans[1])
	}
	plans[0].Features[0] = "mutated"
	if plans[1].Features[0] == "mutated" {
		t.Fatal("plans must not share a feature slice")
	}
}

func TestSiteUsesConfig(t *testing.T) {
	site := NewContent(config.SiteConfig{Name: "AutoFlex Easy", URL: "https://autoflexeasy.com/"}).Site()
	if site.URL != "https://autoflexeasy.com" || site.OGImage != "https://autoflexeasy.com/og.jpg" {
		t.Fatalf("unexpected site %+v", site)
	}
}

func TestNavMarksDisabledEntries(t *testing.T) {
	disabled := 0
	for _, item := range NewContent(config.SiteConfig{}).Nav() {
		if item.Disabled {
			disabled++
		}
	}
	if disabled != 2 {
		t.Fatalf("expected 2 disabled entries, got %d", disabled)
	}
}

func TestStaticContentNotEmpty(t *testing.T) {
	c := NewContent(config.SiteConfig{})
	if len(c.FAQ()) == 0 || len(c.Testimonials()) == 0 {
		t.Fatal("expected faq and testimonials")
	}
}
