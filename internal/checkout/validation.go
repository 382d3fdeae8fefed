package checkout

import (
	"strings"

	"github.com/angelmondragon/posfront/internal/cart"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
)

// MissingVariantDetail identifies the first line that cannot be submitted.
type MissingVariantDetail struct {
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
}

// ValidateCheckout checks, in order: the cart has items, a customer is selected,
// and every line references a variant. No network call is involved.
func ValidateCheckout(items []cart.LineItem, customerID *string) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no items")
	}
	if customerID == nil || strings.TrimSpace(*customerID) == "" {
		return pkgerrors.New(pkgerrors.CodeNoCustomerSelected, "select a customer before checkout")
	}
	for _, item := range items {
		if item.VariantID == nil || strings.TrimSpace(*item.VariantID) == "" {
			return pkgerrors.New(pkgerrors.CodeMissingVariantReference, "cart item has no variant").
				WithDetails(MissingVariantDetail{ItemID: item.ID, ProductID: item.ProductID, Name: item.Name})
		}
	}
	return nil
}
