package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type catalogFixture struct {
	category models.Category
	product  models.Product
	variants []models.ProductVariant
	inactive models.ProductVariant
	line     models.FeaturedProductLine
}

func seedCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	f := catalogFixture{
		category: models.Category{Name: "Clothing", Description: "Apparel"},
		product:  models.Product{Name: "Tee", Description: "Organic cotton"},
	}
	require.NoError(t, db.Create(&f.category).Error)
	require.NoError(t, db.Create(&f.product).Error)
	require.NoError(t, db.Model(&f.category).Association("Products").Append(&f.product))

	seeds := []struct {
		name   string
		sold   int
		price  int64
		filter models.VariantFilters
	}{
		{"Red Tee Small", 5, 500, models.VariantFilters{"color": "red", "size": "S"}},
		{"Blue Tee Small", 9, 550, models.VariantFilters{"color": "blue", "size": "S"}},
		{"Red Tee Large", 1, 600, models.VariantFilters{"color": "red", "size": "L"}},
	}
	for _, seed := range seeds {
		v := models.ProductVariant{
			ProductID:    f.product.ID,
			CategoryID:   f.category.ID,
			Name:         seed.name,
			Price:        seed.price,
			FilePath:     "variants/" + Slugify(seed.name) + ".jpg",
			Filters:      seed.filter,
			CurrentStock: 10,
			SoldStock:    seed.sold,
			IsActive:     true,
		}
		require.NoError(t, db.Create(&v).Error)
		f.variants = append(f.variants, v)
	}
	f.inactive = models.ProductVariant{
		ProductID:  f.product.ID,
		CategoryID: f.category.ID,
		Name:       "Green Tee Retired",
		Price:      100,
		SoldStock:  100,
		IsActive:   false,
	}
	require.NoError(t, db.Create(&f.inactive).Error)

	f.line = models.FeaturedProductLine{
		Title:       "Summer",
		Description: "Hot picks",
		Images:      pq.StringArray{"lines/summer.jpg"},
		VariantIDs:  pq.StringArray{f.variants[0].ID.String(), "", "not-a-uuid", f.inactive.ID.String(), f.variants[2].ID.String()},
		IsPrimary:   true,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&f.line).Error)
	return f
}

type stubSearcher struct {
	calls int
	rows  []models.ProductVariant
	total int64
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ pagination.Params) ([]models.ProductVariant, int64, error) {
	s.calls++
	return s.rows, s.total, nil
}

type stubQuantities struct {
	byUser map[uuid.UUID]map[uuid.UUID]int
	calls  int
}

func (s *stubQuantities) ActiveQuantities(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	s.calls++
	out := map[uuid.UUID]int{}
	for _, id := range ids {
		if q, ok := s.byUser[userID][id]; ok {
			out[id] = q
		}
	}
	return out, nil
}
