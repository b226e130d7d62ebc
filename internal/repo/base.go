package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Table scopes gorm access to one model type.
type Table[M any] struct {
	db *gorm.DB
}

func NewTable[M any](db *gorm.DB) Table[M] {
	return Table[M]{db: db}
}

// DB returns the connection bound to ctx.
func (t Table[M]) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		ctx = context.Background()
	}
	return t.db.WithContext(ctx)
}

// Model is DB(ctx) already pointed at M's table.
func (t Table[M]) Model(ctx context.Context) *gorm.DB {
	var zero M
	return t.DB(ctx).Model(&zero)
}

// FindOne returns the first row matching query, or nil when none does.
func (t Table[M]) FindOne(ctx context.Context, scope func(*gorm.DB) *gorm.DB, query any, args ...any) (*M, error) {
	q := t.DB(ctx)
	if scope != nil {
		q = scope(q)
	}
	var row M
	err := q.Where(query, args...).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Count counts rows, optionally filtered by scope.
func (t Table[M]) Count(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	q := t.Model(ctx)
	if scope != nil {
		q = scope(q)
	}
	var n int64
	return n, q.Count(&n).Error
}

// Columns restricts the selected columns.
func Columns(cols ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Select(cols)
	}
}
