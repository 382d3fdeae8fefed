package cart

import (
	"math"
	"strings"
)

// State is the cart slice of a POS session.
type State struct {
	CustomerID *string    `json:"customerId,omitempty"`
	Items      []LineItem `json:"items"`
}

// Action is a cart state transition. Reduce is the only consumer.
type Action interface {
	cartAction()
}

// ItemAdded appends a line. ID and UnitPrice are fixed by the caller so Reduce stays pure.
type ItemAdded struct {
	ID        string
	ProductID string
	VariantID *string
	Name      string
	Quantity  int
	UnitPrice float64
}

type QuantityChanged struct {
	ItemID   string
	Quantity int
}

type DiscountChanged struct {
	ItemID  string
	Percent float64
}

type ItemRemoved struct {
	ItemID string
}

// CustomerSelected sets the customer; a nil or blank id clears it.
type CustomerSelected struct {
	CustomerID *string
}

// CartCleared drops all items and the customer, as after a successful checkout.
type CartCleared struct{}

// SaleSettled drops the lines a sale was built from. Lines added after the sale
// snapshot stay in the cart, and the customer is kept only while such lines remain.
type SaleSettled struct {
	ItemIDs []string
}

func (ItemAdded) cartAction() {}
func (QuantityChanged) cartAction() {}
func (DiscountChanged) cartAction() {}
func (ItemRemoved) cartAction() {}
func (CustomerSelected) cartAction() {}
func (CartCleared) cartAction() {}
func (SaleSettled) cartAction() {}

// Reduce returns the state after applying action. The input state is never mutated.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case ItemAdded:
		items := cloneItems(state.Items, 1)
		items = append(items, LineItem{
			ID:        a.ID,
			ProductID: a.ProductID,
			VariantID: copyString(a.VariantID),
			Name:      a.Name,
			Quantity:  ClampQuantity(a.Quantity),
			UnitPrice: nonNegative(a.UnitPrice),
		})
		return State{CustomerID: copyString(state.CustomerID), Items: items}
	case QuantityChanged:
		return state.updateItem(a.ItemID, func(item *LineItem) {
			item.Quantity = ClampQuantity(a.Quantity)
		})
	case DiscountChanged:
		return state.updateItem(a.ItemID, func(item *LineItem) {
			item.DiscountPercent = ClampDiscount(a.Percent)
		})
	case ItemRemoved:
		items := make([]LineItem, 0, len(state.Items))
		for _, item := range state.Items {
			if item.ID != a.ItemID {
				items = append(items, cloneItem(item))
			}
		}
		return State{CustomerID: copyString(state.CustomerID), Items: items}
	case CustomerSelected:
		var customer *string
		if a.CustomerID != nil && strings.TrimSpace(*a.CustomerID) != "" {
			customer = copyString(a.CustomerID)
		}
		return State{CustomerID: customer, Items: cloneItems(state.Items, 0)}
	case CartCleared:
		return State{Items: []LineItem{}}
	case SaleSettled:
		sold := make(map[string]struct{}, len(a.ItemIDs))
		for _, id := range a.ItemIDs {
			sold[id] = struct{}{}
		}
		items := make([]LineItem, 0, len(state.Items))
		for _, item := range state.Items {
			if _, ok := sold[item.ID]; !ok {
				items = append(items, cloneItem(item))
			}
		}
		if len(items) == 0 {
			return State{Items: items}
		}
		return State{CustomerID: copyString(state.CustomerID), Items: items}
	default:
		return state
	}
}

// HasItem reports whether a line with id exists.
func (s State) HasItem(id string) bool {
	for _, item := range s.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func (s State) updateItem(id string, fn func(item *LineItem)) State {
	items := cloneItems(s.Items, 0)
	for i := range items {
		if items[i].ID == id {
			fn(&items[i])
		}
	}
	return State{CustomerID: copyString(s.CustomerID), Items: items}
}

// ClampQuantity keeps quantities at 1 or more.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// ClampDiscount keeps discount percents within [0, 100].
func ClampDiscount(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func cloneItems(items []LineItem, extra int) []LineItem {
	out := make([]LineItem, 0, len(items)+extra)
	for _, item := range items {
		out = append(out, cloneItem(item))
	}
	return out
}

func cloneItem(item LineItem) LineItem {
	item.VariantID = copyString(item.VariantID)
	return item
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
