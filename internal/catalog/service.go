package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const (
	popularLimit         = 8
	defaultFeaturedLimit = 10
	emptySearchTitle     = "No results found"
)

// Service exposes the shopper-facing catalog reads. viewer is uuid.Nil for
// anonymous requests.
type Service interface {
	ByCategoryProduct(ctx context.Context, category string, productID uuid.UUID, p pagination.Params, viewer uuid.UUID) (*View, error)
	Search(ctx context.Context, query string, p pagination.Params, viewer uuid.UUID) (*View, error)
	ByFeaturedLine(ctx context.Context, lineID uuid.UUID, p pagination.Params, viewer uuid.UUID) (*View, error)
	Categories(ctx context.Context) (map[string][]ProductSummary, error)
	Popular(ctx context.Context, viewer uuid.UUID) (*PopularResult, error)
	Featured(ctx context.Context, limit int, viewer uuid.UUID) (*FeaturedResult, error)
	VariantBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*VariantDetail, error)
}

// QuantityReader reports a user's active cart quantity per variant.
type QuantityReader interface {
	ActiveQuantities(ctx context.Context, userID uuid.UUID, variantIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type reader interface {
	CategoryByName(ctx context.Context, name string) (*models.Category, error)
	ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FeaturedLineByID(ctx context.Context, id uuid.UUID) (*models.FeaturedProductLine, error)
	ListByCategoryProduct(ctx context.Context, categoryID, productID uuid.UUID, p pagination.Params) ([]models.ProductVariant, int64, error)
	ListActiveByIDs(ctx context.Context, ids []uuid.UUID, p pagination.Params) ([]models.ProductVariant, int64, error)
	ListPopular(ctx context.Context, limit int) ([]models.ProductVariant, error)
	ListActiveFeaturedLines(ctx context.Context) ([]models.FeaturedProductLine, error)
	VariantByName(ctx context.Context, name string) (*models.ProductVariant, error)
	ListCategoriesWithProducts(ctx context.Context) ([]models.Category, error)
}

type service struct {
	repo        reader
	searcher    Searcher
	quantities  QuantityReader
	mediaPrefix string
}

// NewService constructs the catalog service.
func NewService(repo reader, searcher Searcher, quantities QuantityReader, mediaPrefix string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("catalog searcher required")
	}
	if quantities == nil {
		return nil, fmt.Errorf("cart quantity reader required")
	}
	return &service{
		repo:        repo,
		searcher:    searcher,
		quantities:  quantities,
		mediaPrefix: mediaPrefix,
	}, nil
}

func (s *service) ByCategoryProduct(ctx context.Context, category string, productID uuid.UUID, p pagination.Params, viewer uuid.UUID) (*View, error) {
	cat, err := s.repo.CategoryByName(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	product, err := s.repo.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.ListByCategoryProduct(ctx, cat.ID, product.ID, p)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list variants")
	}
	return s.buildView(ctx, cat.Name, fmt.Sprintf("%s (%s)", product.Name, product.Description), rows, total, viewer)
}

func (s *service) Search(ctx context.Context, query string, p pagination.Params, viewer uuid.UUID) (*View, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &View{Title: emptySearchTitle, Filters: Facets{}, Variants: []VariantDTO{}}, nil
	}
	rows, total, err := s.searcher.Search(ctx, query, p)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search variants")
	}
	return s.buildView(ctx, "Results for "+query, "", rows, total, viewer)
}

func (s *service) ByFeaturedLine(ctx context.Context, lineID uuid.UUID, p pagination.Params, viewer uuid.UUID) (*View, error) {
	line, err := s.repo.FeaturedLineByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.ListActiveByIDs(ctx, parseVariantIDs(line.VariantIDs), p)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured variants")
	}
	return s.buildView(ctx, line.Title, line.Description, rows, total, viewer)
}

func (s *service) Categories(ctx context.Context) (map[string][]ProductSummary, error) {
	categories, err := s.repo.ListCategoriesWithProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make(map[string][]ProductSummary, len(categories))
	for _, category := range categories {
		products := make([]ProductSummary, 0, len(category.Products))
		for _, product := range category.Products {
			products = append(products, ProductSummary{ID: product.ID, Name: product.Name, Description: product.Description})
		}
		out[category.Name] = products
	}
	return out, nil
}

func (s *service) Popular(ctx context.Context, viewer uuid.UUID) (*PopularResult, error) {
	rows, err := s.repo.ListPopular(ctx, popularLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list popular variants")
	}
	variants, err := s.project(ctx, rows, viewer)
	if err != nil {
		return nil, err
	}
	return &PopularResult{TopSellingVariants: variants}, nil
}

func (s *service) Featured(ctx context.Context, limit int, viewer uuid.UUID) (*FeaturedResult, error) {
	limit = pagination.NormalizeLimitWithDefault(limit, defaultFeaturedLimit)
	lines, err := s.repo.ListActiveFeaturedLines(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured lines")
	}
	result := &FeaturedResult{PrimaryProducts: []FeaturedLineDTO{}, SecondaryProducts: []FeaturedLineDTO{}}
	for _, line := range lines {
		rows, _, err := s.repo.ListActiveByIDs(ctx, parseVariantIDs(line.VariantIDs), pagination.Params{Limit: limit})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured variants")
		}
		variants, err := s.project(ctx, rows, viewer)
		if err != nil {
			return nil, err
		}
		images := make([]string, 0, len(line.Images))
		for _, image := range line.Images {
			images = append(images, mediaURL(s.mediaPrefix, image))
		}
		dto := FeaturedLineDTO{
			ID:          line.ID,
			Title:       line.Title,
			Description: line.Description,
			Images:      images,
			IsActive:    line.IsActive,
			Variants:    variants,
		}
		if line.IsPrimary {
			result.PrimaryProducts = append(result.PrimaryProducts, dto)
		} else {
			result.SecondaryProducts = append(result.SecondaryProducts, dto)
		}
	}
	return result, nil
}

func (s *service) VariantBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*VariantDetail, error) {
	name := nameFromSlug(slug)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant slug is required")
	}
	variant, err := s.repo.VariantByName(ctx, name)
	if err != nil {
		return nil, err
	}
	rows := []models.ProductVariant{*variant}
	variants, err := s.project(ctx, rows, viewer)
	if err != nil {
		return nil, err
	}
	return &VariantDetail{Variant: variants[0], Filters: BuildFacets(rows)}, nil
}

func (s *service) buildView(ctx context.Context, title, description string, rows []models.ProductVariant, total int64, viewer uuid.UUID) (*View, error) {
	variants, err := s.project(ctx, rows, viewer)
	if err != nil {
		return nil, err
	}
	return &View{
		Title:       title,
		Description: description,
		Filters:     BuildFacets(rows),
		Variants:    variants,
		TotalCount:  total,
	}, nil
}

// project maps rows to DTOs annotated with the viewer's cart quantities.
func (s *service) project(ctx context.Context, rows []models.ProductVariant, viewer uuid.UUID) ([]VariantDTO, error) {
	quantities := map[uuid.UUID]int{}
	if viewer != uuid.Nil && len(rows) > 0 {
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		found, err := s.quantities.ActiveQuantities(ctx, viewer, ids)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart quantities")
		}
		quantities = found
	}
	out := make([]VariantDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewVariantDTO(row, s.mediaPrefix, quantities[row.ID]))
	}
	return out, nil
}

// parseVariantIDs drops empty and malformed ids from a stored line.
func parseVariantIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		id, err := uuid.Parse(value)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
