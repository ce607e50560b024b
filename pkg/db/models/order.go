package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order snapshots a converted cart. After creation only the payment fields and
// status change.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID                uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID             uuid.UUID         `gorm:"column:address_id;type:uuid;not null"`
	Cost                  int64             `gorm:"column:cost;not null"`
	GST                   int64             `gorm:"column:gst;not null"`
	Shipping              int64             `gorm:"column:shipping;not null"`
	Currency              string            `gorm:"column:currency;not null"`
	Status                enums.OrderStatus `gorm:"column:status;not null"`
	IsPaid                bool              `gorm:"column:is_paid;not null"`
	IsActive              bool              `gorm:"column:is_active;not null"`
	RemoteOrderID         *string           `gorm:"column:remote_order_id;uniqueIndex"`
	RemotePaymentID       *string           `gorm:"column:remote_payment_id"`
	RemoteSignature       *string           `gorm:"column:remote_signature"`
	RemoteCallbackOrderID *string           `gorm:"column:remote_callback_order_id"`
	PaidAt                *time.Time        `gorm:"column:paid_at"`
	Address               *UserAddress      `gorm:"foreignKey:AddressID"`
	SoldProducts          []SoldProduct     `gorm:"foreignKey:OrderID"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// TotalCost is cost plus tax plus shipping.
func (o Order) TotalCost() int64 {
	return o.Cost + o.GST + o.Shipping
}

// SoldProduct is the immutable order line snapshot. Variant is for display only.
type SoldProduct struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID  uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	Price      int64           `gorm:"column:price;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	TotalPrice int64           `gorm:"column:total_price;not null"`
	Variant    *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *SoldProduct) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
