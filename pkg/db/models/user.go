package models

import "time"

// User mirrors the auth provider's profile row carrying the access role.
// Identity itself lives in the auth provider; this table only stores the role.
type User struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	Role      *string   `gorm:"column:role"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }
