// Package selection holds the catalog slice of a POS session: the active company,
// the variant chosen per product and the last accepted variant list per product.
package selection

import "github.com/angelmondragon/posfront/internal/variants"

// Slot is the accepted variant list for a product and the request sequence it came from.
type Slot struct {
	Seq   uint64                    `json:"seq"`
	Items []variants.ProductVariant `json:"items"`
}

// State is keyed by product id.
type State struct {
	CompanyID string            `json:"companyId,omitempty"`
	Selected  map[string]string `json:"selected,omitempty"`
	Variants  map[string]Slot   `json:"variants,omitempty"`
}

// Action is a selection state transition.
type Action interface {
	selectionAction()
}

// CompanySelected switches company and drops everything tied to the previous one.
type CompanySelected struct {
	CompanyID string
}

type VariantSelected struct {
	ProductID string
	VariantID string
}

type VariantCleared struct {
	ProductID string
}

// VariantsLoaded stores a fetched list unless a newer one was already accepted.
type VariantsLoaded struct {
	ProductID string
	Seq       uint64
	Items     []variants.ProductVariant
}

// VariantRemoved drops a deleted variant from the cached list and the selection.
type VariantRemoved struct {
	ProductID string
	VariantID string
}

func (CompanySelected) selectionAction() {}
func (VariantSelected) selectionAction() {}
func (VariantCleared) selectionAction() {}
func (VariantsLoaded) selectionAction() {}
func (VariantRemoved) selectionAction() {}

// Reduce returns the state after applying action without mutating the input.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case CompanySelected:
		if a.CompanyID == state.CompanyID {
			return state.clone()
		}
		return State{CompanyID: a.CompanyID}
	case VariantSelected:
		next := state.clone()
		if next.Selected == nil {
			next.Selected = map[string]string{}
		}
		next.Selected[a.ProductID] = a.VariantID
		return next
	case VariantCleared:
		next := state.clone()
		delete(next.Selected, a.ProductID)
		return next
	case VariantsLoaded:
		if current, ok := state.Variants[a.ProductID]; ok && a.Seq != 0 && a.Seq < current.Seq {
			return state.clone()
		}
		next := state.clone()
		if next.Variants == nil {
			next.Variants = map[string]Slot{}
		}
		next.Variants[a.ProductID] = Slot{Seq: a.Seq, Items: cloneVariants(a.Items)}
		if selected, ok := next.Selected[a.ProductID]; ok && !containsVariant(a.Items, selected) {
			delete(next.Selected, a.ProductID)
		}
		return next
	case VariantRemoved:
		next := state.clone()
		if slot, ok := next.Variants[a.ProductID]; ok {
			kept := make([]variants.ProductVariant, 0, len(slot.Items))
			for _, v := range slot.Items {
				if v.ID != a.VariantID {
					kept = append(kept, v)
				}
			}
			next.Variants[a.ProductID] = Slot{Seq: slot.Seq, Items: kept}
		}
		if next.Selected[a.ProductID] == a.VariantID {
			delete(next.Selected, a.ProductID)
		}
		return next
	default:
		return state
	}
}

// SelectedFor returns the selected variant id for productID, or nil.
func (s State) SelectedFor(productID string) *string {
	id, ok := s.Selected[productID]
	if !ok || id == "" {
		return nil
	}
	return &id
}

// VariantsFor returns the cached variant list for productID.
func (s State) VariantsFor(productID string) ([]variants.ProductVariant, bool) {
	slot, ok := s.Variants[productID]
	if !ok {
		return nil, false
	}
	return slot.Items, true
}

func (s State) clone() State {
	next := State{CompanyID: s.CompanyID}
	if s.Selected != nil {
		next.Selected = make(map[string]string, len(s.Selected))
		for k, v := range s.Selected {
			next.Selected[k] = v
		}
	}
	if s.Variants != nil {
		next.Variants = make(map[string]Slot, len(s.Variants))
		for k, slot := range s.Variants {
			next.Variants[k] = Slot{Seq: slot.Seq, Items: cloneVariants(slot.Items)}
		}
	}
	return next
}

func cloneVariants(items []variants.ProductVariant) []variants.ProductVariant {
	if items == nil {
		return nil
	}
	out := make([]variants.ProductVariant, len(items))
	copy(out, items)
	return out
}

func containsVariant(items []variants.ProductVariant, id string) bool {
	for _, v := range items {
		if v.ID == id {
			return true
		}
	}
	return false
}
