package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository reads the catalog tables.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}

// CategoryByName matches the category name exactly.
func (r *Repository) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, notFoundOr(err, "category not found")
	}
	return &category, nil
}

func (r *Repository) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, notFoundOr(err, "product not found")
	}
	return &product, nil
}

func (r *Repository) FeaturedLineByID(ctx context.Context, id uuid.UUID) (*models.FeaturedProductLine, error) {
	var line models.FeaturedProductLine
	if err := r.DB(ctx).Where("id = ?", id).First(&line).Error; err != nil {
		return nil, notFoundOr(err, "featured product line not found")
	}
	return &line, nil
}

func activeVariants(db *gorm.DB) *gorm.DB {
	return db.Model(&models.ProductVariant{}).Where("is_active = ?", true)
}

func pageVariants(query *gorm.DB, p pagination.Params) ([]models.ProductVariant, int64, error) {
	var rows []models.ProductVariant
	total, err := repo.Page(query, p, &rows, func(q *gorm.DB) *gorm.DB {
		return q.Order("sold_stock DESC").Order("id ASC")
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByCategoryProduct pages the active variants of one product in one category.
func (r *Repository) ListByCategoryProduct(ctx context.Context, categoryID, productID uuid.UUID, p pagination.Params) ([]models.ProductVariant, int64, error) {
	query := activeVariants(r.DB(ctx)).Where("category_id = ? AND product_id = ?", categoryID, productID)
	return pageVariants(query, p)
}

// ListActiveByIDs pages the active variants whose id is in ids.
func (r *Repository) ListActiveByIDs(ctx context.Context, ids []uuid.UUID, p pagination.Params) ([]models.ProductVariant, int64, error) {
	if len(ids) == 0 {
		return []models.ProductVariant{}, 0, nil
	}
	query := activeVariants(r.DB(ctx)).Where("id IN ?", ids)
	return pageVariants(query, p)
}

// ListPopular returns the best selling active variants.
func (r *Repository) ListPopular(ctx context.Context, limit int) ([]models.ProductVariant, error) {
	rows, _, err := pageVariants(activeVariants(r.DB(ctx)), pagination.Params{Limit: limit})
	return rows, err
}

// ListActiveFeaturedLines returns active lines, primary ones first.
func (r *Repository) ListActiveFeaturedLines(ctx context.Context) ([]models.FeaturedProductLine, error) {
	var lines []models.FeaturedProductLine
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("is_primary DESC").
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

// VariantByName matches the variant name ignoring case.
func (r *Repository) VariantByName(ctx context.Context, name string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.DB(ctx).Where("LOWER(name) = LOWER(?)", name).First(&variant).Error; err != nil {
		return nil, notFoundOr(err, "product variant not found")
	}
	return &variant, nil
}

// ListCategoriesWithProducts loads every category with its linked products.
func (r *Repository) ListCategoriesWithProducts(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.DB(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.name ASC") }).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}
