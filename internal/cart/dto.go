package cart

import (
	"github.com/angelmondragon/storefront-backend/internal/catalog"
)

// MutationResult reports the state of one line after add/remove.
// Quantity 0 means the line is gone.
type MutationResult struct {
	Quantity int   `json:"quantity"`
	Subtotal int64 `json:"subtotal"`
	TotalAmt int64 `json:"total_amt"`
	Success  bool  `json:"success"`
}

// LineDTO is a variant in the cart with its line total.
type LineDTO struct {
	catalog.VariantDTO
	TotalAmt int64 `json:"total_amt"`
}

// View is the priced cart of one user.
type View struct {
	Username string    `json:"username"`
	Subtotal int64     `json:"subtotal"`
	GST      int64     `json:"gst"`
	Shipping int64     `json:"shipping"`
	Total    int64     `json:"total"`
	Variants []LineDTO `json:"variants"`
}
