package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

// MirrorWriter applies single provider objects to the local mirror.
type MirrorWriter interface {
	ApplySubscription(ctx context.Context, sub *stripe.Subscription) error
	ApplyPrice(ctx context.Context, price *stripe.Price) error
}

// SubscriptionFetcher loads a subscription referenced by an invoice event.
type SubscriptionFetcher interface {
	Subscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

type ServiceParams struct {
	Mirror  MirrorWriter
	Fetcher SubscriptionFetcher
	Logger  *logger.Logger
}

// Service keeps the subscriptions/prices mirror current from webhook events.
type Service struct {
	mirror  MirrorWriter
	fetcher SubscriptionFetcher
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Mirror == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mirror writer required")
	}
	return &Service{
		mirror:  params.Mirror,
		fetcher: params.Fetcher,
		logg:    params.Logger,
	}, nil
}

// HandleEvent routes one verified event. Unhandled types are acknowledged.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted,
		stripe.EventTypeCustomerSubscriptionPaused,
		stripe.EventTypeCustomerSubscriptionResumed:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.applySubscription(ctx, &sub)
	case stripe.EventTypePriceCreated,
		stripe.EventTypePriceUpdated,
		stripe.EventTypePriceDeleted:
		var price stripe.Price
		if err := json.Unmarshal(event.Data.Raw, &price); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode price event")
		}
		if event.Type == stripe.EventTypePriceDeleted {
			price.Active = false
		}
		if err := s.mirror.ApplyPrice(ctx, &price); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror price")
		}
		return nil
	case stripe.EventTypeInvoicePaid, stripe.EventTypeInvoicePaymentFailed:
		if s.fetcher == nil {
			return nil
		}
		subscriptionID := invoiceSubscriptionID(event)
		if subscriptionID == "" {
			return nil
		}
		sub, err := s.fetcher.Subscription(ctx, subscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
		}
		return s.applySubscription(ctx, sub)
	default:
		if s.logg != nil {
			s.logg.Debug(s.logg.WithField(ctx, "event_type", string(event.Type)), "stripe event ignored")
		}
		return nil
	}
}

func (s *Service) applySubscription(ctx context.Context, sub *stripe.Subscription) error {
	if sub == nil || sub.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}
	if err := s.mirror.ApplySubscription(ctx, sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror subscription")
	}
	return nil
}

// invoiceSubscriptionID reads the subscription id from either invoice layout.
func invoiceSubscriptionID(event *stripe.Event) string {
	if id := event.GetObjectValue("subscription"); id != "" {
		return id
	}
	return event.GetObjectValue("parent", "subscription_details", "subscription")
}
