package payments

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/stripe/stripe-go/v84"
	"golang.org/x/sync/errgroup"

	"github.com/autoflexeasy/autoflex-backend/internal/billing"
	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	appmetrics "github.com/autoflexeasy/autoflex-backend/pkg/metrics"
)

const (
	subscriptionLimit  = 100
	paymentIntentLimit = 10
	customerLimit      = 100
	recentLimit        = 5

	unnamedCustomer = "Unnamed customer"
	noEmail         = "No email"
)

// Catalog is the read-only slice of the payments provider used here.
type Catalog interface {
	Balance(ctx context.Context) (*stripe.Balance, error)
	Subscriptions(ctx context.Context, status string, max int) ([]*stripe.Subscription, error)
	Customers(ctx context.Context, max int) ([]*stripe.Customer, error)
	PaymentIntents(ctx context.Context, max int) ([]*stripe.PaymentIntent, error)
}

type ServiceParams struct {
	Catalog  Catalog
	Currency string
	Logger   *logger.Logger
	Metrics  *appmetrics.SourceMetrics
}

// Service builds the payments overview straight from the provider API.
type Service struct {
	catalog  Catalog
	currency string
	logg     *logger.Logger
	metrics  *appmetrics.SourceMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	return &Service{
		catalog:  params.Catalog,
		currency: params.Currency,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

type CustomerRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Created      time.Time `json:"created"`
	Status       string    `json:"status"`
	Subscription string    `json:"subscription"`
}

type SubscriptionRow struct {
	ID               string        `json:"id"`
	CustomerName     string        `json:"customerName"`
	CustomerEmail    string        `json:"customerEmail"`
	Status           string        `json:"status"`
	AmountMinor      int64         `json:"amountMinor"`
	Amount           billing.Money `json:"amount"`
	Interval         string        `json:"interval"`
	Created          time.Time     `json:"created"`
	CurrentPeriodEnd *time.Time    `json:"currentPeriodEnd"`
}

type PaymentRow struct {
	ID          string        `json:"id"`
	AmountMinor int64         `json:"amountMinor"`
	Amount      billing.Money `json:"amount"`
	Status      string        `json:"status"`
	Customer    string        `json:"customer"`
	Created     time.Time     `json:"created"`
}

// Overview is the payments dashboard view model.
type Overview struct {
	TotalRevenueMinor     int64             `json:"totalRevenueMinor"`
	TotalRevenue          billing.Money     `json:"totalRevenue"`
	ActiveSubscriptions   int               `json:"activeSubscriptions"`
	MonthlyRecurringMinor int64             `json:"monthlyRecurringMinor"`
	MonthlyRecurring      billing.Money     `json:"monthlyRecurring"`
	TotalCustomers        int               `json:"totalCustomers"`
	Users                 []CustomerRow     `json:"users"`
	Subscriptions         []SubscriptionRow `json:"subscriptions"`
	RecentPayments        []PaymentRow      `json:"recentPayments"`
	RecentSubscriptions   []SubscriptionRow `json:"recentSubscriptions"`
	Degraded              []string          `json:"degraded,omitempty"`
}

type listings struct {
	balance   *stripe.Balance
	subs      []*stripe.Subscription
	customers []*stripe.Customer
	payments  []*stripe.PaymentIntent
	failed    []string
}

// Overview lists every source concurrently. Individual failures degrade to empty;
// when every listing fails an upstream error is returned.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var (
		l      listings
		errs   [4]error
		labels = [4]string{"stripe_balance", "stripe_subscriptions", "stripe_customers", "stripe_payment_intents"}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.balance, errs[0] = s.catalog.Balance(gctx)
		return nil
	})
	g.Go(func() error {
		l.subs, errs[1] = s.catalog.Subscriptions(gctx, string(stripe.SubscriptionStatusActive), subscriptionLimit)
		return nil
	})
	g.Go(func() error {
		l.customers, errs[2] = s.catalog.Customers(gctx, customerLimit)
		return nil
	})
	g.Go(func() error {
		l.payments, errs[3] = s.catalog.PaymentIntents(gctx, paymentIntentLimit)
		return nil
	})
	_ = g.Wait()

	var joined error
	for i, err := range errs {
		if err == nil {
			continue
		}
		joined = errors.Join(joined, err)
		l.failed = append(l.failed, labels[i])
		s.degrade(ctx, labels[i], err)
	}
	if len(l.failed) == len(labels) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, joined, "failed to fetch payments data")
	}
	if l.balance == nil {
		l.balance = &stripe.Balance{}
	}
	return BuildOverview(l.balance, l.subs, l.customers, l.payments, s.currency, l.failed), nil
}

// BuildOverview shapes raw provider listings into the dashboard view.
func BuildOverview(bal *stripe.Balance, subs []*stripe.Subscription, customers []*stripe.Customer, payments []*stripe.PaymentIntent, currency string, degraded []string) *Overview {
	out := &Overview{
		ActiveSubscriptions: len(subs),
		TotalCustomers:      len(customers),
		Users:               make([]CustomerRow, 0, len(customers)),
		Subscriptions:       make([]SubscriptionRow, 0, len(subs)),
		RecentPayments:      make([]PaymentRow, 0, recentLimit),
		Degraded:            degraded,
	}
	if bal != nil && len(bal.Available) > 0 && bal.Available[0] != nil {
		out.TotalRevenueMinor = bal.Available[0].Amount
	}
	out.TotalRevenue = billing.NewMoney(out.TotalRevenueMinor, currency)

	for _, sub := range subs {
		if sub == nil {
			continue
		}
		row := subscriptionRow(sub, currency)
		out.MonthlyRecurringMinor += recurringAmount(sub)
		out.Subscriptions = append(out.Subscriptions, row)
	}
	out.MonthlyRecurring = billing.NewMoney(out.MonthlyRecurringMinor, currency)
	out.RecentSubscriptions = slices.Clone(out.Subscriptions[:min(recentLimit, len(out.Subscriptions))])

	for _, c := range customers {
		if c == nil {
			continue
		}
		out.Users = append(out.Users, customerRow(c))
	}

	for _, p := range payments {
		if p == nil {
			continue
		}
		if len(out.RecentPayments) == recentLimit {
			break
		}
		out.RecentPayments = append(out.RecentPayments, PaymentRow{
			ID:          p.ID,
			AmountMinor: p.Amount,
			Amount:      billing.NewMoney(p.Amount, string(p.Currency)),
			Status:      string(p.Status),
			Customer:    paymentCustomer(p.Customer),
			Created:     time.Unix(p.Created, 0).UTC(),
		})
	}
	return out
}

func firstItem(sub *stripe.Subscription) *stripe.SubscriptionItem {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0]
}

// recurringAmount is unit amount times quantity of the first item.
func recurringAmount(sub *stripe.Subscription) int64 {
	item := firstItem(sub)
	if item == nil || item.Price == nil {
		return 0
	}
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	return item.Price.UnitAmount * qty
}

func subscriptionRow(sub *stripe.Subscription, currency string) SubscriptionRow {
	row := SubscriptionRow{
		ID:            sub.ID,
		CustomerName:  unnamedCustomer,
		CustomerEmail: noEmail,
		Status:        string(sub.Status),
		Interval:      "month",
		Created:       time.Unix(sub.Created, 0).UTC(),
	}
	if sub.Customer != nil {
		if sub.Customer.Name != "" {
			row.CustomerName = sub.Customer.Name
		}
		if sub.Customer.Email != "" {
			row.CustomerEmail = sub.Customer.Email
		}
	}
	if item := firstItem(sub); item != nil {
		if item.Price != nil {
			row.AmountMinor = item.Price.UnitAmount
			if item.Price.Recurring != nil && item.Price.Recurring.Interval != "" {
				row.Interval = string(item.Price.Recurring.Interval)
			}
			if item.Price.Currency != "" {
				currency = string(item.Price.Currency)
			}
		}
		if item.CurrentPeriodEnd > 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			row.CurrentPeriodEnd = &end
		}
	}
	row.Amount = billing.NewMoney(row.AmountMinor, currency)
	return row
}

func customerRow(c *stripe.Customer) CustomerRow {
	row := CustomerRow{
		ID:           c.ID,
		Name:         unnamedCustomer,
		Email:        noEmail,
		Created:      time.Unix(c.Created, 0).UTC(),
		Status:       "inactive",
		Subscription: "none",
	}
	if c.Name != "" {
		row.Name = c.Name
	}
	if c.Email != "" {
		row.Email = c.Email
	}
	if c.Subscriptions != nil && len(c.Subscriptions.Data) > 0 {
		row.Status = "active"
		if first := c.Subscriptions.Data[0]; first != nil {
			row.Subscription = string(first.Status)
		}
	}
	return row
}

func paymentCustomer(c *stripe.Customer) string {
	switch {
	case c == nil:
		return "Customer"
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	}
	return "Customer"
}

func (s *Service) degrade(ctx context.Context, source string, err error) {
	s.metrics.IncFailure(source)
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"source": source,
		"error":  err.Error(),
	}), "payments.source_failed")
}
