package models

import (
	"time"

	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
)

// Subscription mirrors a Stripe subscription for local querying.
type Subscription struct {
	ID                string                   `gorm:"column:id;primaryKey"`
	UserID            string                   `gorm:"column:user_id;index"`
	CustomerID        *string                  `gorm:"column:customer_id"`
	PriceID           string                   `gorm:"column:price_id;index"`
	Status            enums.SubscriptionStatus `gorm:"column:status;type:text;not null"`
	Quantity          *int64                   `gorm:"column:quantity"`
	CurrentPeriodEnd  *int64                   `gorm:"column:current_period_end"`
	CancelAtPeriodEnd bool                     `gorm:"column:cancel_at_period_end;not null"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string { return "subscriptions" }
