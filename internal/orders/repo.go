package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Address", "SoldProducts").Create(order).Error
}

func (r *repository) CreateSoldProducts(ctx context.Context, lines []models.SoldProduct) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Variant").Create(&lines).Error
}

func (r *repository) SetRemoteOrderID(ctx context.Context, orderID uuid.UUID, remoteOrderID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("remote_order_id", remoteOrderID).Error
}

func withDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Address").
		Preload("SoldProducts", func(db *gorm.DB) *gorm.DB { return db.Order("sold_products.created_at ASC") }).
		Preload("SoldProducts.Variant")
}

// ListForUser pages the user's active orders, newest first.
func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND is_active = ?", userID, true)
	if remote := strings.TrimSpace(filters.RemoteOrderID); remote != "" {
		query = query.Where("remote_order_id = ?", remote)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var rows []models.Order
	total, err := repo.Page(query, params, &rows, func(q *gorm.DB) *gorm.DB {
		return withDetail(q).Order("created_at DESC").Order("id ASC")
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) FindForUser(ctx context.Context, userID uuid.UUID, remoteOrderID string) (*models.Order, error) {
	var order models.Order
	err := withDetail(r.db.WithContext(ctx)).
		Where("user_id = ? AND remote_order_id = ? AND is_active = ?", userID, remoteOrderID, true).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByRemoteID(ctx context.Context, remoteOrderID string) (*models.Order, error) {
	var order models.Order
	err := withDetail(r.db.WithContext(ctx)).
		Where("remote_order_id = ? AND is_active = ?", remoteOrderID, true).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid flips an unpaid order to Paid. It reports false when the order was
// already paid, leaving the row untouched.
func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, payment PaymentFields) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", orderID, false).
		Updates(map[string]any{
			"remote_payment_id":        payment.RemotePaymentID,
			"remote_signature":         payment.RemoteSignature,
			"remote_callback_order_id": payment.RemoteCallbackOrderID,
			"is_paid":                  true,
			"status":                   enums.OrderStatusPaid,
			"paid_at":                  payment.PaidAt,
		})
	return res.RowsAffected == 1, res.Error
}
