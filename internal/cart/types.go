package cart

// LineItem is one entry in the POS cart: a variant at a captured price and quantity.
type LineItem struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"productId"`
	VariantID       *string `json:"variantId,omitempty"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	DiscountPercent float64 `json:"discountPercent"`
}

// Totals are plain float sums over the cart; rounding happens only when formatting.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalAmount    float64 `json:"finalAmount"`
}
