package outbox

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine is a sold line inside order event payloads.
type OrderLine struct {
	VariantID uuid.UUID `json:"variantId"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
}

// OrderCreatedEvent is emitted when checkout converts a cart into an order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID   `json:"orderId"`
	UserID        uuid.UUID   `json:"userId"`
	RemoteOrderID string      `json:"remoteOrderId"`
	Cost          int64       `json:"cost"`
	GST           int64       `json:"gst"`
	Shipping      int64       `json:"shipping"`
	Currency      string      `json:"currency"`
	Lines         []OrderLine `json:"lines"`
}

// OrderPaidEvent is emitted once per order when its payment is confirmed.
type OrderPaidEvent struct {
	OrderID         uuid.UUID `json:"orderId"`
	UserID          uuid.UUID `json:"userId"`
	RemoteOrderID   string    `json:"remoteOrderId"`
	RemotePaymentID string    `json:"remotePaymentId"`
	PaidAt          time.Time `json:"paidAt"`
}
