package square

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
)

// OrderLine is one priced line sent to the gateway.
type OrderLine struct {
	Name      string
	Quantity  int
	UnitPrice int64
}

// RegisterOrderInput is what checkout hands to the payment gateway.
type RegisterOrderInput struct {
	ReferenceID uuid.UUID
	Amount      int64
	Currency    string
	Lines       []OrderLine
	GST         int64
	Shipping    int64
}

// RegisterOrderResult carries the gateway's identifier for the order.
type RegisterOrderResult struct {
	RemoteOrderID string
}

func (in RegisterOrderInput) validate() error {
	if in.ReferenceID == uuid.Nil {
		return errors.New("reference id is required")
	}
	if in.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	var sum int64
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return errors.New("line quantity must be positive")
		}
		sum += line.UnitPrice * int64(line.Quantity)
	}
	if sum+in.GST+in.Shipping != in.Amount {
		return errors.New("line totals do not add up to amount")
	}
	return nil
}

// toSquareRequest renders the order as line items. Tax and shipping become
// their own lines so the remote total equals Amount exactly.
func (in RegisterOrderInput) toSquareRequest(locationID, idempotencyKey string) *sq.CreateOrderRequest {
	items := make([]*sq.OrderLineItem, 0, len(in.Lines)+2)
	for _, line := range in.Lines {
		items = append(items, lineItem(line.Name, line.Quantity, line.UnitPrice, in.Currency))
	}
	if in.GST > 0 {
		items = append(items, lineItem("GST", 1, in.GST, in.Currency))
	}
	if in.Shipping > 0 {
		items = append(items, lineItem("Shipping", 1, in.Shipping, in.Currency))
	}
	return &sq.CreateOrderRequest{
		IdempotencyKey: ptrString(idempotencyKey),
		Order: &sq.Order{
			LocationID:  locationID,
			ReferenceID: ptrString(in.ReferenceID.String()),
			LineItems:   items,
		},
	}
}

func lineItem(name string, quantity int, unitPrice int64, currency string) *sq.OrderLineItem {
	return &sq.OrderLineItem{
		Name:           ptrString(name),
		Quantity:       strconv.Itoa(quantity),
		BasePriceMoney: moneyPtr(unitPrice, currency),
	}
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "INR"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
