package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// VariantDTO is the shopper-facing projection of a product variant.
type VariantDTO struct {
	ID           uuid.UUID         `json:"id"`
	ProductID    uuid.UUID         `json:"product_id"`
	CategoryID   uuid.UUID         `json:"category_id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Price        int64             `json:"price"`
	FilePath     string            `json:"file_path"`
	Filters      map[string]string `json:"filters"`
	CurrentStock int               `json:"current_stock"`
	SoldStock    int               `json:"sold_stock"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Quantity     int               `json:"quantity"`
}

// View is the result of one catalog query mode.
type View struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Filters     Facets       `json:"filters"`
	Variants    []VariantDTO `json:"variants"`
	TotalCount  int64        `json:"total_count"`
}

// FilterResult is a View plus the pagination window that produced it.
type FilterResult struct {
	View
	Pagination pagination.Page `json:"pagination"`
}

// ProductSummary is one product in the categories map.
type ProductSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type PopularResult struct {
	TopSellingVariants []VariantDTO `json:"top_selling_variants"`
}

// FeaturedLineDTO is a curated line with its top variants.
type FeaturedLineDTO struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Images      []string     `json:"images"`
	IsActive    bool         `json:"is_active"`
	Variants    []VariantDTO `json:"variants"`
}

type FeaturedResult struct {
	PrimaryProducts   []FeaturedLineDTO `json:"primary_products"`
	SecondaryProducts []FeaturedLineDTO `json:"secondary_products"`
}

// VariantDetail is the single-variant view with its own facets.
type VariantDetail struct {
	Variant VariantDTO `json:"variant"`
	Filters Facets     `json:"filters"`
}

// Slugify lowercases a variant name and replaces spaces with dashes.
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// nameFromSlug reverses Slugify up to case.
func nameFromSlug(slug string) string {
	return strings.ReplaceAll(strings.TrimSpace(slug), "-", " ")
}

func mediaURL(prefix, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(path, "/")
}

// NewVariantDTO projects a variant with its media URL and the viewer quantity.
func NewVariantDTO(v models.ProductVariant, mediaPrefix string, quantity int) VariantDTO {
	filters := map[string]string(v.Filters)
	if filters == nil {
		filters = map[string]string{}
	}
	return VariantDTO{
		ID:           v.ID,
		ProductID:    v.ProductID,
		CategoryID:   v.CategoryID,
		Name:         v.Name,
		Slug:         Slugify(v.Name),
		Price:        v.Price,
		FilePath:     mediaURL(mediaPrefix, v.FilePath),
		Filters:      filters,
		CurrentStock: v.CurrentStock,
		SoldStock:    v.SoldStock,
		IsActive:     v.IsActive,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
		Quantity:     quantity,
	}
}
