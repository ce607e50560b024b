package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Base holds the connection shared by read-side repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Page counts the rows matched by query, then loads the window p into dest.
// fetch decorates only the row query (ordering, preloads) and may be nil.
func Page(query *gorm.DB, p pagination.Params, dest any, fetch func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	rows := query.Session(&gorm.Session{})
	if fetch != nil {
		rows = fetch(rows)
	}
	if err := rows.Offset(p.Skip).Limit(p.Limit).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
