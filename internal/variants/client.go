package variants

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/upstream"
)

// Client is the remote variant store.
type Client interface {
	ListByProduct(ctx context.Context, ref ProductRef) ([]ProductVariant, error)
	Get(ctx context.Context, ref ProductRef, variantID string) (*ProductVariant, error)
	Create(ctx context.Context, ref ProductRef, input VariantInput) (*ProductVariant, error)
	Update(ctx context.Context, ref ProductRef, variantID string, input VariantInput) (*ProductVariant, error)
	Delete(ctx context.Context, ref ProductRef, variantID string) error
}

type doer interface {
	Do(ctx context.Context, req upstream.Request, out any) error
}

type httpClient struct {
	api doer
}

// NewClient returns a variant store client backed by the retail API transport.
func NewClient(api doer) (Client, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	return &httpClient{api: api}, nil
}

func (c *httpClient) ListByProduct(ctx context.Context, ref ProductRef) ([]ProductVariant, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	var out []ProductVariant
	err := c.api.Do(ctx, upstream.Request{
		Path:      collectionPath(ref),
		Operation: "list variants",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ProductVariant{}
	}
	return out, nil
}

func (c *httpClient) Get(ctx context.Context, ref ProductRef, variantID string) (*ProductVariant, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(variantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	var out ProductVariant
	err := c.api.Do(ctx, upstream.Request{
		Path:      itemPath(ref, variantID),
		Operation: "get variant",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Create(ctx context.Context, ref ProductRef, input VariantInput) (*ProductVariant, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	var out ProductVariant
	err := c.api.Do(ctx, upstream.Request{
		Method:    http.MethodPost,
		Path:      collectionPath(ref),
		Body:      input,
		Operation: "create variant",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Update(ctx context.Context, ref ProductRef, variantID string, input VariantInput) (*ProductVariant, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(variantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	var out ProductVariant
	err := c.api.Do(ctx, upstream.Request{
		Method:    http.MethodPut,
		Path:      itemPath(ref, variantID),
		Body:      input,
		Operation: "update variant",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Delete(ctx context.Context, ref ProductRef, variantID string) error {
	if err := ref.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(variantID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	return c.api.Do(ctx, upstream.Request{
		Method:    http.MethodDelete,
		Path:      itemPath(ref, variantID),
		Operation: "delete variant",
	}, nil)
}

func (r ProductRef) validate() error {
	if strings.TrimSpace(r.CompanyID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "company id is required")
	}
	if strings.TrimSpace(r.ProductID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return nil
}

func collectionPath(ref ProductRef) string {
	return upstream.JoinPath("companies", ref.CompanyID, "products", ref.ProductID, "variants")
}

func itemPath(ref ProductRef, variantID string) string {
	return collectionPath(ref) + "/" + upstream.JoinPath(variantID)
}
