package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"

	"github.com/autoflexeasy/autoflex-backend/internal/billing"
	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
)

type stubSource struct {
	prices    []*stripe.Price
	subs      []*stripe.Subscription
	pricesErr error
	subsErr   error
	status    string
}

func (s *stubSource) Prices(context.Context, int) ([]*stripe.Price, error) {
	return s.prices, s.pricesErr
}

func (s *stubSource) Subscriptions(_ context.Context, status string, _ int) ([]*stripe.Subscription, error) {
	s.status = status
	return s.subs, s.subsErr
}

type memoryStore struct {
	subs    map[string]*models.Subscription
	prices  map[string]*models.Price
	failIDs map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		subs:    map[string]*models.Subscription{},
		prices:  map[string]*models.Price{},
		failIDs: map[string]bool{},
	}
}

func (m *memoryStore) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	if m.failIDs[sub.ID] {
		return errors.New("write failed")
	}
	m.subs[sub.ID] = sub
	return nil
}

func (m *memoryStore) UpsertPrice(_ context.Context, price *models.Price) error {
	if m.failIDs[price.ID] {
		return errors.New("write failed")
	}
	m.prices[price.ID] = price
	return nil
}

func stripeSub(id string) *stripe.Subscription {
	return &stripe.Subscription{
		ID:       id,
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{UserIDMetadataKey: "user-" + id},
		Customer: &stripe.Customer{ID: "cus_" + id},
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			Quantity:         2,
			CurrentPeriodEnd: 1767225600,
			Price:            &stripe.Price{ID: "price_pro"},
		}}},
	}
}

func TestSubscriptionRowMapping(t *testing.T) {
	row, err := SubscriptionRow(stripeSub("sub_1"))
	if err != nil {
		t.Fatalf("SubscriptionRow: %v", err)
	}
	if row.UserID != "user-sub_1" || row.PriceID != "price_pro" || row.Status != enums.SubscriptionStatusActive {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Quantity == nil || *row.Quantity != 2 || row.CurrentPeriodEnd == nil || *row.CurrentPeriodEnd != 1767225600 {
		t.Fatalf("unexpected quantity/period %+v", row)
	}
	if row.CustomerID == nil || *row.CustomerID != "cus_sub_1" {
		t.Fatalf("unexpected customer %v", row.CustomerID)
	}
}

func TestSubscriptionRowOwnerFallbacks(t *testing.T) {
	sub := stripeSub("sub_2")
	sub.Metadata = nil
	sub.Customer.Metadata = map[string]string{UserIDMetadataKey: "from-customer"}
	row, err := SubscriptionRow(sub)
	if err != nil || row.UserID != "from-customer" {
		t.Fatalf("expected customer metadata owner, got %+v err=%v", row, err)
	}

	sub.Customer.Metadata = nil
	sub.Items = nil
	row, err = SubscriptionRow(sub)
	if err != nil {
		t.Fatalf("SubscriptionRow: %v", err)
	}
	if row.UserID != "" || row.Quantity != nil || row.CurrentPeriodEnd != nil {
		t.Fatalf("expected unresolved owner and nil item fields, got %+v", row)
	}
}

func TestSubscriptionRowMeteredQuantityCountsAsOneUnit(t *testing.T) {
	sub := stripeSub("sub_metered")
	sub.Items.Data[0].Quantity = 0
	row, err := SubscriptionRow(sub)
	if err != nil {
		t.Fatalf("SubscriptionRow: %v", err)
	}
	if row.Quantity != nil {
		t.Fatalf("metered quantity must be stored as NULL, got %d", *row.Quantity)
	}

	unit := int64(4900)
	summary := billing.Aggregate(billing.Snapshot{
		Subscriptions: []billing.SubscriptionRecord{{
			ID: row.ID, PriceID: row.PriceID, Status: row.Status.String(), Quantity: row.Quantity,
		}},
		Prices: []billing.PriceRecord{{ID: "price_pro", UnitAmount: &unit}},
	}, billing.RowOptions{})
	if summary.Metrics.MonthlyRecurringMinor != unit {
		t.Fatalf("expected metered subscription billed once, got %d", summary.Metrics.MonthlyRecurringMinor)
	}
}

func TestSubscriptionRowRejectsUnknownStatus(t *testing.T) {
	sub := stripeSub("sub_3")
	sub.Status = "mystery"
	if _, err := SubscriptionRow(sub); err == nil {
		t.Fatal("expected unknown status error")
	}
	if _, err := SubscriptionRow(nil); err == nil {
		t.Fatal("expected nil subscription error")
	}
}

func TestPriceRowMapping(t *testing.T) {
	row, err := PriceRow(&stripe.Price{
		ID:         "price_starter",
		UnitAmount: 2000,
		Nickname:   "Starter",
		Currency:   stripe.CurrencyUSD,
		Active:     true,
		Product:    &stripe.Product{ID: "prod_1"},
		Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth},
	})
	if err != nil {
		t.Fatalf("PriceRow: %v", err)
	}
	if row.UnitAmount == nil || *row.UnitAmount != 2000 || row.Nickname == nil || *row.Nickname != "Starter" {
		t.Fatalf("unexpected price row %+v", row)
	}
	if row.Interval == nil || *row.Interval != "month" || row.ProductID == nil || !row.Active {
		t.Fatalf("unexpected price row %+v", row)
	}

	tiered, err := PriceRow(&stripe.Price{ID: "price_tiered", BillingScheme: stripe.PriceBillingSchemeTiered})
	if err != nil {
		t.Fatalf("PriceRow: %v", err)
	}
	if tiered.UnitAmount != nil || tiered.Nickname != nil || tiered.Currency != "usd" {
		t.Fatalf("unexpected tiered row %+v", tiered)
	}
}

func TestSyncAllCollectsRowFailures(t *testing.T) {
	source := &stubSource{
		prices: []*stripe.Price{{ID: "price_a"}, {ID: "price_b"}},
		subs:   []*stripe.Subscription{stripeSub("sub_ok"), stripeSub("sub_bad"), {ID: "sub_status", Status: "mystery"}},
	}
	store := newMemoryStore()
	store.failIDs["sub_bad"] = true

	syncer, err := NewSyncer(SyncerParams{Source: source, Store: store})
	if err != nil {
		t.Fatalf("NewSyncer: %v", err)
	}
	res, err := syncer.SyncAll(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 row failures, got %d: %v", got, err)
	}
	if res.Prices != 2 || res.Subscriptions != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if source.status != "all" {
		t.Fatalf("expected all statuses, got %q", source.status)
	}
	if _, ok := store.subs["sub_ok"]; !ok {
		t.Fatal("expected sub_ok to be stored")
	}
}

func TestSyncAllListingFailure(t *testing.T) {
	syncer, _ := NewSyncer(SyncerParams{Source: &stubSource{pricesErr: errors.New("stripe down")}, Store: newMemoryStore()})
	if _, err := syncer.SyncAll(context.Background()); err == nil {
		t.Fatal("expected listing error")
	}

	noSource, _ := NewSyncer(SyncerParams{Store: newMemoryStore()})
	if _, err := noSource.SyncAll(context.Background()); err == nil {
		t.Fatal("expected missing source error")
	}
}
