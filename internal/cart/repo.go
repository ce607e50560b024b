package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// VariantByID returns gorm.ErrRecordNotFound when the variant does not exist.
func (r *Repository) VariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindLine returns the (user, variant) line in any state, or nil when absent.
func (r *Repository) FindLine(ctx context.Context, userID, variantID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) CreateLine(ctx context.Context, line *models.CartItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *Repository) UpdateLine(ctx context.Context, id uuid.UUID, quantity int, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Updates(map[string]any{"quantity": quantity, "is_active": active}).Error
}

func (r *Repository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{}).Error
}

// ActiveLines loads the user's active lines with their variants, oldest first.
func (r *Repository) ActiveLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var lines []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Variant").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	return lines, err
}

// ActiveSubtotal sums price × quantity over the user's active lines.
func (r *Repository) ActiveSubtotal(ctx context.Context, userID uuid.UUID) (int64, error) {
	var subtotal int64
	err := r.db.WithContext(ctx).Raw(`
SELECT COALESCE(SUM(v.price * c.quantity), 0)
FROM cart_items c
JOIN product_variants v ON v.id = c.variant_id
WHERE c.user_id = ? AND c.is_active = ?`, userID, true).Scan(&subtotal).Error
	return subtotal, err
}

// ActiveQuantities maps each of variantIDs the user holds an active line for
// to its quantity.
func (r *Repository) ActiveQuantities(ctx context.Context, userID uuid.UUID, variantIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	var lines []models.CartItem
	err := r.db.WithContext(ctx).
		Select("variant_id", "quantity").
		Where("user_id = ? AND is_active = ? AND variant_id IN ?", userID, true, variantIDs).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		out[line.VariantID] = line.Quantity
	}
	return out, nil
}

// CountActive reports how many active lines the user has.
func (r *Repository) CountActive(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// DeactivateLines marks consumed lines inactive after checkout.
func (r *Repository) DeactivateLines(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id IN ?", ids).
		Update("is_active", false).Error
}
