package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/balance"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/price"
	"github.com/stripe/stripe-go/v84/subscription"
)

const pageSize = 100

// Catalog lists the read-only billing objects the dashboards consume.
// Every listing stops after max objects; max <= 0 means one page.
type Catalog struct{}

// NewCatalog returns a Catalog bound to the globally configured key.
func NewCatalog(client *Client) *Catalog {
	if client == nil {
		return nil
	}
	return &Catalog{}
}

// Balance retrieves the account balance.
func (c *Catalog) Balance(ctx context.Context) (*stripe.Balance, error) {
	params := &stripe.BalanceParams{}
	params.Context = ctx
	return balance.Get(params)
}

// Subscriptions lists subscriptions, optionally filtered by status ("" means all),
// with customer and price expanded.
func (c *Catalog) Subscriptions(ctx context.Context, status string, max int) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limitFor(max))
	if status != "" {
		params.Status = stripe.String(status)
	}
	params.AddExpand("data.customer")
	params.AddExpand("data.items.data.price")

	out := make([]*stripe.Subscription, 0, limitFor(max))
	it := subscription.List(params)
	for it.Next() {
		out = append(out, it.Subscription())
		if reached(len(out), max) {
			break
		}
	}
	return out, it.Err()
}

// Subscription fetches one subscription with its item prices expanded.
func (c *Catalog) Subscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("items.data.price")
	return subscription.Get(id, params)
}

// Prices lists prices, active and archived.
func (c *Catalog) Prices(ctx context.Context, max int) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limitFor(max))

	out := make([]*stripe.Price, 0, limitFor(max))
	it := price.List(params)
	for it.Next() {
		out = append(out, it.Price())
		if reached(len(out), max) {
			break
		}
	}
	return out, it.Err()
}

// Customers lists customers with their subscriptions expanded.
func (c *Catalog) Customers(ctx context.Context, max int) ([]*stripe.Customer, error) {
	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limitFor(max))
	params.AddExpand("data.subscriptions")

	out := make([]*stripe.Customer, 0, limitFor(max))
	it := customer.List(params)
	for it.Next() {
		out = append(out, it.Customer())
		if reached(len(out), max) {
			break
		}
	}
	return out, it.Err()
}

// PaymentIntents lists the most recent payment intents with customers expanded.
func (c *Catalog) PaymentIntents(ctx context.Context, max int) ([]*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limitFor(max))
	params.AddExpand("data.customer")

	out := make([]*stripe.PaymentIntent, 0, limitFor(max))
	it := paymentintent.List(params)
	for it.Next() {
		out = append(out, it.PaymentIntent())
		if reached(len(out), max) {
			break
		}
	}
	return out, it.Err()
}

func limitFor(max int) int64 {
	if max <= 0 || max > pageSize {
		return pageSize
	}
	return int64(max)
}

func reached(n, max int) bool {
	if max <= 0 {
		return n >= pageSize
	}
	return n >= max
}
