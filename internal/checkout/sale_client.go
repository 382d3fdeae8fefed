package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/posfront/internal/cart"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/upstream"
)

// SaleItem is one submitted line; VariantID is always set after validation.
type SaleItem struct {
	VariantID       string  `json:"variantId"`
	ProductID       string  `json:"productId"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	DiscountPercent float64 `json:"discountPercent"`
}

// SaleRequest is the payload accepted by the sale submission endpoint.
// Amount is the unrounded final amount.
type SaleRequest struct {
	CustomerID string     `json:"customerId"`
	Amount     float64    `json:"amount"`
	Items      []SaleItem `json:"items"`
}

// SaleConfirmation is the created sale returned by the retail API.
type SaleConfirmation struct {
	ID        string     `json:"id"`
	Number    string     `json:"number,omitempty"`
	Amount    float64    `json:"amount"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// SaleClient submits sales. Implementations must not retry.
type SaleClient interface {
	Submit(ctx context.Context, req SaleRequest) (*SaleConfirmation, error)
}

type doer interface {
	Do(ctx context.Context, req upstream.Request, out any) error
}

type httpSaleClient struct {
	api doer
}

// NewSaleClient returns a sale submission client backed by the retail API transport.
func NewSaleClient(api doer) (SaleClient, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	return &httpSaleClient{api: api}, nil
}

func (c *httpSaleClient) Submit(ctx context.Context, req SaleRequest) (*SaleConfirmation, error) {
	var out SaleConfirmation
	err := c.api.Do(ctx, upstream.Request{
		Method:      http.MethodPost,
		Path:        "sales",
		Body:        req,
		FailureCode: pkgerrors.CodeCheckoutFailure,
		Operation:   "submit sale",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BuildSaleRequest maps a validated cart onto the submission payload.
func BuildSaleRequest(state cart.State) SaleRequest {
	req := SaleRequest{
		Amount: cart.ComputeTotals(state.Items).FinalAmount,
		Items:  make([]SaleItem, 0, len(state.Items)),
	}
	if state.CustomerID != nil {
		req.CustomerID = *state.CustomerID
	}
	for _, item := range state.Items {
		sale := SaleItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		}
		if item.VariantID != nil {
			sale.VariantID = *item.VariantID
		}
		req.Items = append(req.Items, sale)
	}
	return req
}
