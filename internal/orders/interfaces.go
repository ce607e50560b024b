package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateSoldProducts(ctx context.Context, lines []models.SoldProduct) error
	SetRemoteOrderID(ctx context.Context, orderID uuid.UUID, remoteOrderID string) error
	ListForUser(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, int64, error)
	FindForUser(ctx context.Context, userID uuid.UUID, remoteOrderID string) (*models.Order, error)
	FindByRemoteID(ctx context.Context, remoteOrderID string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, payment PaymentFields) (bool, error)
}

// PaymentFields are the gateway values stored when a payment is confirmed.
type PaymentFields struct {
	RemotePaymentID       string
	RemoteSignature       string
	RemoteCallbackOrderID string
	PaidAt                time.Time
}

type profileReader interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
}
