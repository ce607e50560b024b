// Package pricing computes the money figures shared by the cart view and
// checkout: tax on a subtotal and the shipping quote.
package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// DefaultTaxRate is the flat GST rate.
var DefaultTaxRate = decimal.RequireFromString("0.18")

// Totals is the priced breakdown of a set of cart lines.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	GST      int64 `json:"gst"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// ShippingCalculator quotes a shipping fee for a user.
type ShippingCalculator interface {
	Quote(ctx context.Context, userID uuid.UUID, subtotal int64) (int64, error)
}

// Calculator applies the configured tax rate and delegates shipping.
type Calculator struct {
	taxRate  decimal.Decimal
	shipping ShippingCalculator
}

// NewCalculator builds a Calculator from config. An empty rate falls back to DefaultTaxRate.
func NewCalculator(cfg config.PricingConfig, shipping ShippingCalculator) (*Calculator, error) {
	if shipping == nil {
		return nil, fmt.Errorf("shipping calculator required")
	}
	rate := DefaultTaxRate
	if cfg.TaxRate != "" {
		parsed, err := decimal.NewFromString(cfg.TaxRate)
		if err != nil {
			return nil, fmt.Errorf("parse tax rate %q: %w", cfg.TaxRate, err)
		}
		if parsed.IsNegative() {
			return nil, fmt.Errorf("tax rate must not be negative")
		}
		rate = parsed
	}
	return &Calculator{taxRate: rate, shipping: shipping}, nil
}

// Tax returns rate × subtotal rounded to the nearest integer, ties to even.
func Tax(subtotal int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotal).Mul(rate).RoundBank(0).IntPart()
}

// Price computes the full breakdown for a subtotal owned by userID.
func (c *Calculator) Price(ctx context.Context, userID uuid.UUID, subtotal int64) (Totals, error) {
	shipping, err := c.shipping.Quote(ctx, userID, subtotal)
	if err != nil {
		return Totals{}, fmt.Errorf("quote shipping: %w", err)
	}
	gst := Tax(subtotal, c.taxRate)
	return Totals{
		Subtotal: subtotal,
		GST:      gst,
		Shipping: shipping,
		Total:    subtotal + gst + shipping,
	}, nil
}

// FlatRateShipping charges a fixed fee, optionally waived above a threshold.
type FlatRateShipping struct {
	Fee       int64
	FreeAbove int64
}

// NewFlatRateShipping reads the flat fee settings from config.
func NewFlatRateShipping(cfg config.PricingConfig) FlatRateShipping {
	return FlatRateShipping{Fee: cfg.ShippingFlat, FreeAbove: cfg.ShippingFreeAbove}
}

func (f FlatRateShipping) Quote(_ context.Context, _ uuid.UUID, subtotal int64) (int64, error) {
	if subtotal <= 0 {
		return 0, nil
	}
	if f.FreeAbove > 0 && subtotal >= f.FreeAbove {
		return 0, nil
	}
	return f.Fee, nil
}

// MinorToMajor renders minor units as a decimal string, e.g. 2560 -> "25.60".
func MinorToMajor(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
