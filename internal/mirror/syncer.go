package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"

	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

const (
	// UserIDMetadataKey links a Stripe subscription or customer to an identity.
	UserIDMetadataKey = "user_id"

	syncLimit = 1000
)

// Source lists billing objects from the payments provider.
type Source interface {
	Prices(ctx context.Context, max int) ([]*stripe.Price, error)
	Subscriptions(ctx context.Context, status string, max int) ([]*stripe.Subscription, error)
}

// Store persists mirrored rows.
type Store interface {
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	UpsertPrice(ctx context.Context, price *models.Price) error
}

type SyncerParams struct {
	Source Source
	Store  Store
	Logger *logger.Logger
}

// Syncer copies prices and subscriptions into the local mirror tables.
type Syncer struct {
	source Source
	store  Store
	logg   *logger.Logger
}

func NewSyncer(params SyncerParams) (*Syncer, error) {
	if params.Store == nil {
		return nil, errors.New("store is required")
	}
	return &Syncer{source: params.Source, store: params.Store, logg: params.Logger}, nil
}

// Result counts the rows written by SyncAll.
type Result struct {
	Prices        int
	Subscriptions int
}

// SyncAll mirrors every price and subscription. Row failures are collected and
// do not stop the remaining rows.
func (s *Syncer) SyncAll(ctx context.Context) (Result, error) {
	var res Result
	if s.source == nil {
		return res, errors.New("sync source is not configured")
	}

	prices, err := s.source.Prices(ctx, syncLimit)
	if err != nil {
		return res, fmt.Errorf("list prices: %w", err)
	}
	var errs error
	for _, p := range prices {
		if err := s.ApplyPrice(ctx, p); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		res.Prices++
	}

	subs, err := s.source.Subscriptions(ctx, "all", syncLimit)
	if err != nil {
		return res, multierr.Append(errs, fmt.Errorf("list subscriptions: %w", err))
	}
	for _, sub := range subs {
		if err := s.ApplySubscription(ctx, sub); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		res.Subscriptions++
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"prices":        res.Prices,
			"subscriptions": res.Subscriptions,
			"failures":      len(multierr.Errors(errs)),
		}), "mirror.sync_complete")
	}
	return res, errs
}

// ApplySubscription upserts one subscription.
func (s *Syncer) ApplySubscription(ctx context.Context, sub *stripe.Subscription) error {
	row, err := SubscriptionRow(sub)
	if err != nil {
		return err
	}
	if err := s.store.UpsertSubscription(ctx, row); err != nil {
		return fmt.Errorf("upsert subscription %s: %w", row.ID, err)
	}
	return nil
}

// ApplyPrice upserts one price.
func (s *Syncer) ApplyPrice(ctx context.Context, p *stripe.Price) error {
	row, err := PriceRow(p)
	if err != nil {
		return err
	}
	if err := s.store.UpsertPrice(ctx, row); err != nil {
		return fmt.Errorf("upsert price %s: %w", row.ID, err)
	}
	return nil
}

// SubscriptionRow maps a provider subscription onto the mirror model.
// The first item carries price, quantity and period end.
func SubscriptionRow(sub *stripe.Subscription) (*models.Subscription, error) {
	if sub == nil || sub.ID == "" {
		return nil, errors.New("subscription id is required")
	}
	status, err := enums.SubscriptionStatusFromStripe(sub.Status)
	if err != nil {
		return nil, fmt.Errorf("subscription %s: %w", sub.ID, err)
	}
	row := &models.Subscription{
		ID:                sub.ID,
		UserID:            ownerOf(sub),
		Status:            status,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		customerID := sub.Customer.ID
		row.CustomerID = &customerID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0] != nil {
		item := sub.Items.Data[0]
		if item.Price != nil {
			row.PriceID = item.Price.ID
		}
		// Metered items report quantity 0. NULL makes the aggregator bill them
		// as a single unit; a stored 0 would drop them from MRR.
		qty := item.Quantity
		if qty > 0 {
			row.Quantity = &qty
		}
		if item.CurrentPeriodEnd > 0 {
			end := item.CurrentPeriodEnd
			row.CurrentPeriodEnd = &end
		}
	}
	return row, nil
}

// PriceRow maps a provider price onto the mirror model.
func PriceRow(p *stripe.Price) (*models.Price, error) {
	if p == nil || p.ID == "" {
		return nil, errors.New("price id is required")
	}
	row := &models.Price{
		ID:       p.ID,
		Currency: strings.ToLower(string(p.Currency)),
		Active:   p.Active,
	}
	if row.Currency == "" {
		row.Currency = "usd"
	}
	if p.BillingScheme != stripe.PriceBillingSchemeTiered {
		amount := p.UnitAmount
		row.UnitAmount = &amount
	}
	if p.Nickname != "" {
		nickname := p.Nickname
		row.Nickname = &nickname
	}
	if p.Product != nil && p.Product.ID != "" {
		productID := p.Product.ID
		row.ProductID = &productID
	}
	if p.Recurring != nil && p.Recurring.Interval != "" {
		interval := string(p.Recurring.Interval)
		row.Interval = &interval
	}
	return row, nil
}

func ownerOf(sub *stripe.Subscription) string {
	if id := strings.TrimSpace(sub.Metadata[UserIDMetadataKey]); id != "" {
		return id
	}
	if sub.Customer != nil {
		return strings.TrimSpace(sub.Customer.Metadata[UserIDMetadataKey])
	}
	return ""
}
