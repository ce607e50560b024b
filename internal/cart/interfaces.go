package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	VariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindLine(ctx context.Context, userID, variantID uuid.UUID) (*models.CartItem, error)
	CreateLine(ctx context.Context, line *models.CartItem) error
	UpdateLine(ctx context.Context, id uuid.UUID, quantity int, active bool) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	ActiveLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	ActiveSubtotal(ctx context.Context, userID uuid.UUID) (int64, error)
	DeactivateLines(ctx context.Context, ids []uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type pricer interface {
	Price(ctx context.Context, userID uuid.UUID, subtotal int64) (pricing.Totals, error)
}
