package catalog

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/upstream"
)

// Company is the tenant a POS session sells for.
type Company struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CurrencyID *string `json:"currencyId,omitempty"`
}

// Product is a catalog entry; prices and stock live on its variants.
type Product struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"companyId"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	IsActive    bool    `json:"isActive"`
}

// Client is the remote company and product catalog.
type Client interface {
	GetCompany(ctx context.Context, companyID string) (*Company, error)
	ListProducts(ctx context.Context, companyID string) ([]Product, error)
	GetProduct(ctx context.Context, companyID, productID string) (*Product, error)
}

type doer interface {
	Do(ctx context.Context, req upstream.Request, out any) error
}

type httpClient struct {
	api doer
}

// NewClient returns a catalog client backed by the retail API transport.
func NewClient(api doer) (Client, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	return &httpClient{api: api}, nil
}

func (c *httpClient) GetCompany(ctx context.Context, companyID string) (*Company, error) {
	if err := requireID("company", companyID); err != nil {
		return nil, err
	}
	var out Company
	if err := c.api.Do(ctx, upstream.Request{Path: upstream.JoinPath("companies", companyID), Operation: "get company"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ListProducts(ctx context.Context, companyID string) ([]Product, error) {
	if err := requireID("company", companyID); err != nil {
		return nil, err
	}
	var out []Product
	err := c.api.Do(ctx, upstream.Request{
		Path:      upstream.JoinPath("companies", companyID, "products"),
		Operation: "list products",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Product{}
	}
	return out, nil
}

func (c *httpClient) GetProduct(ctx context.Context, companyID, productID string) (*Product, error) {
	if err := requireID("company", companyID); err != nil {
		return nil, err
	}
	if err := requireID("product", productID); err != nil {
		return nil, err
	}
	var out Product
	err := c.api.Do(ctx, upstream.Request{
		Path:      upstream.JoinPath("companies", companyID, "products", productID),
		Operation: "get product",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, kind+" id is required")
	}
	return nil
}
