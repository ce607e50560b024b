package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// DefaultListLimit is the order history page size.
const DefaultListLimit = 10

// ListFilters narrows the order history.
type ListFilters struct {
	RemoteOrderID string
	Status        enums.OrderStatus
}

// SoldProductDTO is an order line with display fields from its variant.
type SoldProductDTO struct {
	VariantID   uuid.UUID `json:"variant_id"`
	ProductName string    `json:"product_name"`
	Slug        string    `json:"slug"`
	FilePath    string    `json:"file_path"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	TotalPrice  int64     `json:"total_price"`
}

// OrderDTO is the shopper-facing order projection.
type OrderDTO struct {
	ReceiptID     uuid.UUID        `json:"receipt_id"`
	OrderID       *string          `json:"order_id"`
	IsPaid        bool             `json:"is_paid"`
	Cost          int64            `json:"cost"`
	GST           int64            `json:"gst"`
	Shipping      int64            `json:"shipping"`
	TotalCost     int64            `json:"total_cost"`
	Currency      string           `json:"currency"`
	Status        string           `json:"status"`
	TotalQuantity int              `json:"total_quantity"`
	SoldProducts  []SoldProductDTO `json:"sold_products"`
	Address       *address.DTO     `json:"address"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// OrderList is one page of order history.
type OrderList struct {
	Orders     []OrderDTO            `json:"orders"`
	Pagination pagination.OffsetPage `json:"pagination"`
}

// PublicOrder adds the contact fields a hosted checkout page needs.
type PublicOrder struct {
	OrderDTO
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone string  `json:"phone"`
}

// NewOrderDTO projects an order loaded with its address and lines.
func NewOrderDTO(o *models.Order, mediaPrefix string) OrderDTO {
	lines := make([]SoldProductDTO, 0, len(o.SoldProducts))
	quantity := 0
	for _, line := range o.SoldProducts {
		quantity += line.Quantity
		dto := SoldProductDTO{
			VariantID:  line.VariantID,
			Price:      line.Price,
			Quantity:   line.Quantity,
			TotalPrice: line.TotalPrice,
		}
		if line.Variant != nil {
			v := catalog.NewVariantDTO(*line.Variant, mediaPrefix, 0)
			dto.ProductName = v.Name
			dto.Slug = v.Slug
			dto.FilePath = v.FilePath
		}
		lines = append(lines, dto)
	}
	return OrderDTO{
		ReceiptID:     o.ID,
		OrderID:       o.RemoteOrderID,
		IsPaid:        o.IsPaid,
		Cost:          o.Cost,
		GST:           o.GST,
		Shipping:      o.Shipping,
		TotalCost:     o.TotalCost(),
		Currency:      o.Currency,
		Status:        o.Status.String(),
		TotalQuantity: quantity,
		SoldProducts:  lines,
		Address:       address.FromModel(o.Address),
		PaidAt:        o.PaidAt,
		CreatedAt:     o.CreatedAt,
	}
}
