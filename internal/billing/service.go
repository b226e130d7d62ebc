package billing

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	appmetrics "github.com/autoflexeasy/autoflex-backend/pkg/metrics"
)

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo     Repository
	Order    string
	Limit    int
	Currency string
	Logger   *logger.Logger
	Metrics  *appmetrics.SourceMetrics
}

// Service loads the mirror and aggregates it for the admin dashboard.
type Service struct {
	repo     Repository
	order    string
	limit    int
	currency string
	logg     *logger.Logger
	metrics  *appmetrics.SourceMetrics
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	order := params.Order
	if order == "" {
		order = OrderDesc
	}
	if order != OrderDesc && order != OrderAsc {
		return nil, errors.New("order must be asc or desc")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultTableLimit
	}
	return &Service{
		repo:     params.Repo,
		order:    order,
		limit:    limit,
		currency: params.Currency,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Snapshot fetches subscriptions and prices concurrently.
// A failing source is logged and treated as empty; no error is returned.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subs, err := s.repo.ListSubscriptions(gctx)
		if err != nil {
			s.degrade(ctx, "subscriptions", err)
			return nil
		}
		snap.Subscriptions = subs
		return nil
	})
	g.Go(func() error {
		prices, err := s.repo.ListPrices(gctx)
		if err != nil {
			s.degrade(ctx, "prices", err)
			return nil
		}
		snap.Prices = prices
		return nil
	})
	_ = g.Wait()
	return snap
}

// Options returns the table options configured for this service.
func (s *Service) Options(emails map[string]string) RowOptions {
	return RowOptions{Order: s.order, Limit: s.limit, Currency: s.currency, Emails: emails}
}

// Summary fetches and aggregates the mirror. Rows carry user ids in place of emails.
func (s *Service) Summary(ctx context.Context) Summary {
	return Aggregate(s.Snapshot(ctx), s.Options(nil))
}

func (s *Service) degrade(ctx context.Context, source string, err error) {
	s.metrics.IncFailure(source)
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"source": source,
		"error":  err.Error(),
	}), "billing.source_failed")
}
