package pos

import (
	"context"

	"github.com/angelmondragon/posfront/internal/cart"
	"github.com/angelmondragon/posfront/pkg/money"
)

// LineView is a cart line with its computed amounts.
type LineView struct {
	cart.LineItem
	Subtotal          float64 `json:"subtotal"`
	Discount          float64 `json:"discount"`
	FormattedPrice    string  `json:"formattedUnitPrice"`
	FormattedSubtotal string  `json:"formattedSubtotal"`
}

// FormattedTotals are the cart totals rounded and rendered in the company currency.
type FormattedTotals struct {
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discountAmount"`
	FinalAmount    string `json:"finalAmount"`
}

// CartView is the cart as the POS screen renders it.
type CartView struct {
	CustomerID  *string         `json:"customerId,omitempty"`
	Items       []LineView      `json:"items"`
	Totals      cart.Totals     `json:"totals"`
	Formatted   FormattedTotals `json:"formatted"`
	Currency    money.Currency  `json:"currency"`
	CanCheckout bool            `json:"canCheckout"`
}

func (s *service) view(ctx context.Context, scope Scope, state cart.State) *CartView {
	currency := s.currencies.CurrencyFor(ctx, scope.CompanyID)
	return BuildView(state, currency)
}

// BuildView computes totals and display strings for state.
func BuildView(state cart.State, currency money.Currency) *CartView {
	totals := cart.ComputeTotals(state.Items)
	view := &CartView{
		CustomerID: state.CustomerID,
		Items:      make([]LineView, 0, len(state.Items)),
		Totals:     totals,
		Formatted: FormattedTotals{
			Subtotal:       money.Format(totals.Subtotal, &currency),
			DiscountAmount: money.Format(totals.DiscountAmount, &currency),
			FinalAmount:    money.Format(totals.FinalAmount, &currency),
		},
		Currency:    currency,
		CanCheckout: len(state.Items) > 0 && state.CustomerID != nil,
	}
	for _, item := range state.Items {
		subtotal := cart.LineSubtotal(item)
		view.Items = append(view.Items, LineView{
			LineItem:          item,
			Subtotal:          subtotal,
			Discount:          cart.LineDiscount(item),
			FormattedPrice:    money.Format(item.UnitPrice, &currency),
			FormattedSubtotal: money.Format(subtotal, &currency),
		})
	}
	return view
}
