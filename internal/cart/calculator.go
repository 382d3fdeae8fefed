package cart

// LineSubtotal is quantity times the frozen unit price.
func LineSubtotal(item LineItem) float64 {
	return float64(item.Quantity) * item.UnitPrice
}

// LineDiscount applies the line's discount percent to its subtotal.
func LineDiscount(item LineItem) float64 {
	return LineSubtotal(item) * (item.DiscountPercent / 100)
}

// ComputeTotals sums subtotal and discount over all items. An empty cart is all zeros.
func ComputeTotals(items []LineItem) Totals {
	var totals Totals
	for _, item := range items {
		totals.Subtotal += LineSubtotal(item)
		totals.DiscountAmount += LineDiscount(item)
	}
	totals.FinalAmount = totals.Subtotal - totals.DiscountAmount
	return totals
}
