// Package pos implements the cart use cases of a POS session on top of the
// session dispatcher.
package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/posfront/internal/cart"
	"github.com/angelmondragon/posfront/internal/catalog"
	"github.com/angelmondragon/posfront/internal/session"
	"github.com/angelmondragon/posfront/internal/variants"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/money"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Scope identifies whose cart is being worked on.
type Scope struct {
	SessionID string
	CompanyID string
}

type variantGetter interface {
	Get(ctx context.Context, ref variants.ProductRef, variantID string) (*variants.ProductVariant, error)
}

type productGetter interface {
	GetProduct(ctx context.Context, companyID, productID string) (*catalog.Product, error)
}

type currencySource interface {
	CurrencyFor(ctx context.Context, companyID string) money.Currency
}

// AddItemInput names the variant to add; the unit price is read from the variant store.
type AddItemInput struct {
	ProductID string
	VariantID string
	Quantity  int
}

// Service exposes cart operations. Every mutation returns the refreshed view.
type Service interface {
	View(ctx context.Context, scope Scope) (*CartView, error)
	AddItem(ctx context.Context, scope Scope, input AddItemInput) (*CartView, error)
	UpdateQuantity(ctx context.Context, scope Scope, itemID string, quantity int) (*CartView, error)
	UpdateDiscount(ctx context.Context, scope Scope, itemID string, percent float64) (*CartView, error)
	RemoveItem(ctx context.Context, scope Scope, itemID string) (*CartView, error)
	SelectCustomer(ctx context.Context, scope Scope, customerID *string) (*CartView, error)
	Clear(ctx context.Context, scope Scope) (*CartView, error)
}

type service struct {
	sessions   session.Service
	variants   variantGetter
	products   productGetter
	currencies currencySource
	newID      func() string
}

// NewService wires the cart use cases.
func NewService(sessions session.Service, variantSvc variantGetter, products productGetter, currencies currencySource) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session service required")
	}
	if variantSvc == nil {
		return nil, fmt.Errorf("variant getter required")
	}
	if products == nil {
		return nil, fmt.Errorf("product getter required")
	}
	if currencies == nil {
		return nil, fmt.Errorf("currency source required")
	}
	return &service{
		sessions:   sessions,
		variants:   variantSvc,
		products:   products,
		currencies: currencies,
		newID:      func() string { return uuid.NewString() },
	}, nil
}

func (s *service) View(ctx context.Context, scope Scope) (*CartView, error) {
	state, err := s.sessions.Load(ctx, scope.SessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, scope, state.Cart), nil
}

func (s *service) AddItem(ctx context.Context, scope Scope, input AddItemInput) (*CartView, error) {
	if strings.TrimSpace(input.ProductID) == "" || strings.TrimSpace(input.VariantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and variant id are required")
	}
	ref := variants.ProductRef{CompanyID: scope.CompanyID, ProductID: input.ProductID}

	var (
		variant *variants.ProductVariant
		product *catalog.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.variants.Get(gctx, ref, input.VariantID)
		variant = v
		return err
	})
	g.Go(func() error {
		p, err := s.products.GetProduct(gctx, scope.CompanyID, input.ProductID)
		product = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if variant.ProductID != "" && variant.ProductID != input.ProductID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product").
			WithDetails(map[string]any{"product_id": input.ProductID, "variant_id": input.VariantID})
	}
	if !variant.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant is not available for sale").
			WithDetails(map[string]any{"variant_id": input.VariantID})
	}

	variantID := variant.ID
	if variantID == "" {
		variantID = input.VariantID
	}
	state, err := s.sessions.Dispatch(ctx, scope.SessionID, cart.ItemAdded{
		ID:        s.newID(),
		ProductID: input.ProductID,
		VariantID: &variantID,
		Name:      lineName(product, variant),
		Quantity:  input.Quantity,
		UnitPrice: variants.EffectiveUnitPrice(*variant),
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, scope, state.Cart), nil
}

func (s *service) UpdateQuantity(ctx context.Context, scope Scope, itemID string, quantity int) (*CartView, error) {
	return s.dispatchOnItem(ctx, scope, itemID, cart.QuantityChanged{ItemID: itemID, Quantity: quantity})
}

func (s *service) UpdateDiscount(ctx context.Context, scope Scope, itemID string, percent float64) (*CartView, error) {
	return s.dispatchOnItem(ctx, scope, itemID, cart.DiscountChanged{ItemID: itemID, Percent: percent})
}

func (s *service) RemoveItem(ctx context.Context, scope Scope, itemID string) (*CartView, error) {
	return s.dispatchOnItem(ctx, scope, itemID, cart.ItemRemoved{ItemID: itemID})
}

func (s *service) SelectCustomer(ctx context.Context, scope Scope, customerID *string) (*CartView, error) {
	state, err := s.sessions.Dispatch(ctx, scope.SessionID, cart.CustomerSelected{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, scope, state.Cart), nil
}

func (s *service) Clear(ctx context.Context, scope Scope) (*CartView, error) {
	state, err := s.sessions.Dispatch(ctx, scope.SessionID, cart.CartCleared{})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, scope, state.Cart), nil
}

func (s *service) dispatchOnItem(ctx context.Context, scope Scope, itemID string, action cart.Action) (*CartView, error) {
	current, err := s.sessions.Load(ctx, scope.SessionID)
	if err != nil {
		return nil, err
	}
	if !current.Cart.HasItem(itemID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	state, err := s.sessions.Dispatch(ctx, scope.SessionID, action)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, scope, state.Cart), nil
}

func lineName(product *catalog.Product, variant *variants.ProductVariant) string {
	name := strings.TrimSpace(variant.Name)
	if product == nil || strings.TrimSpace(product.Name) == "" {
		return name
	}
	if name == "" {
		return product.Name
	}
	return product.Name + " - " + name
}
