package variants

// ProductRef keys variant lookups by company and product.
type ProductRef struct {
	CompanyID string
	ProductID string
}

// ActiveStock is the currently applicable stock lot for a variant.
type ActiveStock struct {
	Quantity  float64  `json:"quantity"`
	CostPrice float64  `json:"costPrice"`
	SellPrice *float64 `json:"sellPrice,omitempty"`
}

// ProductVariant is a sellable configuration of a company product.
type ProductVariant struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"productId"`
	Name        string       `json:"name"`
	SKU         string       `json:"sku,omitempty"`
	IsDefault   bool         `json:"isDefault"`
	IsActive    bool         `json:"isActive"`
	MinStock    *int         `json:"minStock,omitempty"`
	MaxStock    *int         `json:"maxStock,omitempty"`
	ActiveStock *ActiveStock `json:"activeStock,omitempty"`
}

// VariantInput is the payload accepted by the variant store on create and update.
type VariantInput struct {
	Name      string   `json:"name"`
	SKU       string   `json:"sku,omitempty"`
	IsDefault bool     `json:"isDefault"`
	IsActive  bool     `json:"isActive"`
	MinStock  *int     `json:"minStock,omitempty"`
	MaxStock  *int     `json:"maxStock,omitempty"`
	CostPrice *float64 `json:"costPrice,omitempty"`
	SellPrice *float64 `json:"sellPrice,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
}
