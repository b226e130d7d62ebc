package models

import "time"

// Price mirrors a Stripe price. Amounts are integer minor units.
type Price struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ProductID  *string   `gorm:"column:product_id"`
	UnitAmount *int64    `gorm:"column:unit_amount"`
	Nickname   *string   `gorm:"column:nickname"`
	Currency   string    `gorm:"column:currency;not null;default:'usd'"`
	Interval   *string   `gorm:"column:interval"`
	Active     bool      `gorm:"column:active;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Price) TableName() string { return "prices" }
