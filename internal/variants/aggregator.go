package variants

import "math"

type StockStatus string

const (
	StockOut     StockStatus = "Out of Stock"
	StockLow     StockStatus = "Low Stock"
	StockIn      StockStatus = "In Stock"
	StockUnknown StockStatus = "Unknown"
)

// lowStockThreshold is the first quantity considered comfortably in stock.
const lowStockThreshold = 10

// DisplayView is what a product card or detail page renders for a variant set.
type DisplayView struct {
	Variant      *ProductVariant `json:"variant,omitempty"`
	Quantity     float64         `json:"quantity"`
	CostPrice    float64         `json:"costPrice"`
	SellPrice    *float64        `json:"sellPrice,omitempty"`
	MinStock     *int            `json:"minStock,omitempty"`
	MaxStock     *int            `json:"maxStock,omitempty"`
	StockStatus  StockStatus     `json:"stockStatus"`
	Margin       *float64        `json:"margin,omitempty"`
	StockPercent *float64        `json:"stockPercent,omitempty"`
	IsAggregate  bool            `json:"isAggregate"`
}

// SelectDisplay builds the view for the selected variant, or an aggregate across
// all variants when nothing resolvable is selected.
func SelectDisplay(variants []ProductVariant, selectedID *string) DisplayView {
	if len(variants) == 0 {
		return DisplayView{StockStatus: StockUnknown}
	}

	if selectedID != nil {
		for i := range variants {
			if variants[i].ID == *selectedID {
				return singleView(&variants[i])
			}
		}
	}

	return aggregateView(variants)
}

func singleView(v *ProductVariant) DisplayView {
	view := DisplayView{
		Variant:  v,
		MinStock: v.MinStock,
		MaxStock: v.MaxStock,
	}
	if v.ActiveStock != nil {
		view.Quantity = nonNegative(v.ActiveStock.Quantity)
		view.CostPrice = nonNegative(v.ActiveStock.CostPrice)
		if v.ActiveStock.SellPrice != nil {
			sell := nonNegative(*v.ActiveStock.SellPrice)
			view.SellPrice = &sell
		}
	}
	view.StockStatus = ClassifyStock(view.Quantity)
	view.Margin = marginOf(view.SellPrice, view.CostPrice)
	view.StockPercent = StockPercent(view.Quantity, v.MaxStock)
	return view
}

func aggregateView(variants []ProductVariant) DisplayView {
	var (
		totalStock float64
		costSum    float64
		costCount  int
		sellSum    float64
		sellCount  int
	)
	for _, v := range variants {
		if v.ActiveStock == nil {
			continue
		}
		totalStock += nonNegative(v.ActiveStock.Quantity)
		costSum += nonNegative(v.ActiveStock.CostPrice)
		costCount++
		if v.ActiveStock.SellPrice != nil {
			sellSum += nonNegative(*v.ActiveStock.SellPrice)
			sellCount++
		}
	}

	view := DisplayView{
		Quantity:    totalStock,
		StockStatus: ClassifyStock(totalStock),
		IsAggregate: true,
	}
	if costCount > 0 {
		view.CostPrice = costSum / float64(costCount)
	}
	if sellCount > 0 {
		avg := sellSum / float64(sellCount)
		view.SellPrice = &avg
	}
	view.Margin = marginOf(view.SellPrice, view.CostPrice)
	return view
}

// ClassifyStock maps a quantity onto the stock badge shown next to a variant.
func ClassifyStock(quantity float64) StockStatus {
	quantity = nonNegative(quantity)
	switch {
	case quantity == 0:
		return StockOut
	case quantity < lowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// Margin returns the markup over cost in percent, rounded to one decimal.
// It is nil unless both prices are positive.
func Margin(sellPrice, costPrice float64) *float64 {
	if !(sellPrice > 0) || !(costPrice > 0) {
		return nil
	}
	m := math.Round((sellPrice-costPrice)/costPrice*100*10) / 10
	return &m
}

func marginOf(sell *float64, cost float64) *float64 {
	if sell == nil {
		return nil
	}
	return Margin(*sell, cost)
}

// DefaultVariant picks the display seed: the first variant flagged default,
// otherwise the first in list order.
func DefaultVariant(variants []ProductVariant) *ProductVariant {
	if len(variants) == 0 {
		return nil
	}
	for i := range variants {
		if variants[i].IsDefault {
			return &variants[i]
		}
	}
	return &variants[0]
}

// CountDefaults reports how many variants claim to be the default.
func CountDefaults(variants []ProductVariant) int {
	n := 0
	for _, v := range variants {
		if v.IsDefault {
			n++
		}
	}
	return n
}

// EffectiveUnitPrice is the price a variant is sold at: sell price when positive,
// else cost price, else zero.
func EffectiveUnitPrice(v ProductVariant) float64 {
	if v.ActiveStock == nil {
		return 0
	}
	if v.ActiveStock.SellPrice != nil {
		if sell := nonNegative(*v.ActiveStock.SellPrice); sell > 0 {
			return sell
		}
	}
	return nonNegative(v.ActiveStock.CostPrice)
}

// StockPercent fills the stock bar: quantity as a share of maxStock, clamped to [0,100].
func StockPercent(quantity float64, maxStock *int) *float64 {
	if maxStock == nil || *maxStock <= 0 {
		return nil
	}
	pct := nonNegative(quantity) / float64(*maxStock) * 100
	if pct > 100 {
		pct = 100
	}
	return &pct
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
