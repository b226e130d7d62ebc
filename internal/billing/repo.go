package billing

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/autoflexeasy/autoflex-backend/internal/repo"
	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
)

// Repository reads and maintains the subscriptions/prices mirror.
type Repository interface {
	ListSubscriptions(ctx context.Context) ([]SubscriptionRecord, error)
	ListPrices(ctx context.Context) ([]PriceRecord, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	UpsertPrice(ctx context.Context, price *models.Price) error
}

type repository struct {
	subs   repo.Table[models.Subscription]
	prices repo.Table[models.Price]
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		subs:   repo.NewTable[models.Subscription](db),
		prices: repo.NewTable[models.Price](db),
	}
}

func (r *repository) ListSubscriptions(ctx context.Context) ([]SubscriptionRecord, error) {
	var rows []models.Subscription
	if err := r.subs.DB(ctx).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]SubscriptionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, SubscriptionRecord{
			ID:               row.ID,
			UserID:           row.UserID,
			PriceID:          row.PriceID,
			Status:           row.Status.String(),
			Quantity:         row.Quantity,
			CurrentPeriodEnd: row.CurrentPeriodEnd,
		})
	}
	return out, nil
}

func (r *repository) ListPrices(ctx context.Context) ([]PriceRecord, error) {
	var rows []models.Price
	if err := r.prices.DB(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]PriceRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, PriceRecord{ID: row.ID, UnitAmount: row.UnitAmount, Nickname: row.Nickname})
	}
	return out, nil
}

// UpsertSubscription inserts or refreshes a mirrored subscription.
// An empty UserID leaves the stored owner untouched.
func (r *repository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	columns := []string{"customer_id", "price_id", "status", "quantity", "current_period_end", "cancel_at_period_end", "updated_at"}
	if sub.UserID != "" {
		columns = append(columns, "user_id")
	}
	return r.subs.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(sub).Error
}

func (r *repository) UpsertPrice(ctx context.Context, price *models.Price) error {
	return r.prices.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_id", "unit_amount", "nickname", "currency", "interval", "active", "updated_at"}),
	}).Create(price).Error
}
