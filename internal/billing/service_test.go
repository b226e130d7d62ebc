package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
)

type stubRepo struct {
	subs     []SubscriptionRecord
	prices   []PriceRecord
	subsErr  error
	priceErr error
}

func (s *stubRepo) ListSubscriptions(context.Context) ([]SubscriptionRecord, error) {
	return s.subs, s.subsErr
}
func (s *stubRepo) ListPrices(context.Context) ([]PriceRecord, error) {
	return s.prices, s.priceErr
}
func (s *stubRepo) UpsertSubscription(context.Context, *models.Subscription) error { return nil }
func (s *stubRepo) UpsertPrice(context.Context, *models.Price) error               { return nil }

func TestNewServiceValidates(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected missing repo error")
	}
	if _, err := NewService(ServiceParams{Repo: &stubRepo{}, Order: "random"}); err == nil {
		t.Fatal("expected invalid order error")
	}
}

func TestSummaryDegradesFailedSources(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: &stubRepo{
		subs:     []SubscriptionRecord{{ID: "s1", PriceID: "p", Status: "active"}},
		priceErr: errors.New("prices down"),
	}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	summary := svc.Summary(context.Background())
	if summary.Metrics.ActiveCount != 1 {
		t.Fatalf("expected active count from surviving source, got %d", summary.Metrics.ActiveCount)
	}
	if summary.Metrics.MonthlyRecurringMinor != 0 {
		t.Fatalf("missing prices must yield 0 mrr, got %d", summary.Metrics.MonthlyRecurringMinor)
	}
	if len(summary.Rows) != 1 || summary.Rows[0].Plan != "p" {
		t.Fatalf("unexpected rows %+v", summary.Rows)
	}
}

func TestSummaryAllSourcesDown(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: &stubRepo{
		subsErr:  errors.New("db down"),
		priceErr: errors.New("db down"),
	}})

	summary := svc.Summary(context.Background())
	if summary.Metrics.ActiveCount != 0 || summary.Metrics.MonthlyRecurringMinor != 0 || len(summary.Rows) != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestSummaryUsesConfiguredOrder(t *testing.T) {
	svc, _ := NewService(ServiceParams{
		Repo: &stubRepo{subs: []SubscriptionRecord{
			{ID: "late", Status: "active", CurrentPeriodEnd: i64(200)},
			{ID: "early", Status: "active", CurrentPeriodEnd: i64(100)},
		}},
		Order: OrderAsc,
		Limit: 1,
	})

	rows := svc.Summary(context.Background()).Rows
	if len(rows) != 1 || rows[0].SubscriptionID != "early" {
		t.Fatalf("expected earliest renewal only, got %+v", rows)
	}
}
