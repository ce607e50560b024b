package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// MinSearchRank drops weak full-text matches.
const MinSearchRank = 0.1

// Searcher ranks active variants against a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, p pagination.Params) ([]models.ProductVariant, int64, error)
}

// PostgresSearcher ranks with ts_rank over the weighted document built by the
// variant_search_document SQL function (see migrations).
type PostgresSearcher struct {
	db *gorm.DB
}

func NewPostgresSearcher(db *gorm.DB) *PostgresSearcher {
	return &PostgresSearcher{db: db}
}

const searchFrom = `
FROM product_variants v
JOIN products p ON p.id = v.product_id
JOIN categories c ON c.id = v.category_id
CROSS JOIN LATERAL (
  SELECT ts_rank(
    variant_search_document(v.name, v.filters, p.name, p.description, c.name),
    plainto_tsquery('english', @query)
  ) AS rank
) r
WHERE v.is_active AND r.rank >= @min_rank`

const searchCountSQL = `SELECT count(*)` + searchFrom

const searchPageSQL = `SELECT v.*` + searchFrom + `
ORDER BY r.rank DESC, v.sold_stock DESC, v.id
OFFSET @skip LIMIT @limit`

func (s *PostgresSearcher) Search(ctx context.Context, query string, p pagination.Params) ([]models.ProductVariant, int64, error) {
	args := map[string]any{
		"query":    query,
		"min_rank": MinSearchRank,
		"skip":     p.Skip,
		"limit":    p.Limit,
	}
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Raw(searchCountSQL, args).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ProductVariant
	if total == 0 {
		return rows, 0, nil
	}
	if err := db.Raw(searchPageSQL, args).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
