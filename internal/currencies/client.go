package currencies

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/money"
	"github.com/angelmondragon/posfront/pkg/upstream"
)

// Client is the remote currency reference.
type Client interface {
	List(ctx context.Context) ([]money.Currency, error)
	Get(ctx context.Context, id string) (*money.Currency, error)
}

type doer interface {
	Do(ctx context.Context, req upstream.Request, out any) error
}

type httpClient struct {
	api doer
}

// NewClient returns a currency reference client backed by the retail API transport.
func NewClient(api doer) (Client, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	return &httpClient{api: api}, nil
}

func (c *httpClient) List(ctx context.Context) ([]money.Currency, error) {
	var out []money.Currency
	if err := c.api.Do(ctx, upstream.Request{Path: "currencies", Operation: "list currencies"}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []money.Currency{}
	}
	return out, nil
}

func (c *httpClient) Get(ctx context.Context, id string) (*money.Currency, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency id is required")
	}
	var out money.Currency
	if err := c.api.Do(ctx, upstream.Request{Path: upstream.JoinPath("currencies", id), Operation: "get currency"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
