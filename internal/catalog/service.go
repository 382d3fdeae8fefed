package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/posfront/internal/selection"
	"github.com/angelmondragon/posfront/internal/session"
	"github.com/angelmondragon/posfront/internal/variants"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
	"github.com/angelmondragon/posfront/pkg/money"
	"golang.org/x/sync/errgroup"
)

const defaultFetchConcurrency = 8

type currencyResolver interface {
	Resolve(ctx context.Context, id *string) money.Currency
}

// FormattedPrices are display strings in the company currency.
type FormattedPrices struct {
	CostPrice string `json:"costPrice"`
	SellPrice string `json:"sellPrice,omitempty"`
	Margin    string `json:"margin,omitempty"`
}

// ProductCard is one tile of the POS product grid.
type ProductCard struct {
	Product      Product              `json:"product"`
	VariantCount int                  `json:"variantCount"`
	Display      variants.DisplayView `json:"display"`
	Formatted    FormattedPrices      `json:"formatted"`
}

// ProductDisplay is the detail view of one product within a session.
type ProductDisplay struct {
	ProductID         string                    `json:"productId"`
	Seq               uint64                    `json:"seq"`
	Variants          []variants.ProductVariant `json:"variants"`
	SelectedVariantID *string                   `json:"selectedVariantId,omitempty"`
	DefaultVariantID  *string                   `json:"defaultVariantId,omitempty"`
	View              variants.DisplayView      `json:"view"`
	Aggregate         variants.DisplayView      `json:"aggregate"`
	Formatted         FormattedPrices           `json:"formatted"`
	Currency          money.Currency            `json:"currency"`
}

// Service builds catalog views and keeps the session selection slice in step with
// variant fetches and mutations.
type Service interface {
	ProductCards(ctx context.Context, sessionID, companyID string) ([]ProductCard, error)
	ProductDisplay(ctx context.Context, sessionID string, ref variants.ProductRef) (*ProductDisplay, error)
	SelectVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID *string) (*ProductDisplay, error)
	ListVariants(ctx context.Context, sessionID string, ref variants.ProductRef) (variants.Listing, error)
	GetVariant(ctx context.Context, ref variants.ProductRef, variantID string) (*variants.ProductVariant, error)
	CreateVariant(ctx context.Context, sessionID string, ref variants.ProductRef, input variants.VariantInput) (*variants.ProductVariant, variants.Listing, error)
	UpdateVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID string, input variants.VariantInput) (*variants.ProductVariant, variants.Listing, error)
	DeleteVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID string) (variants.Listing, error)
	// CurrencyFor resolves the company's display currency, USD when it cannot be loaded.
	CurrencyFor(ctx context.Context, companyID string) money.Currency
}

type service struct {
	client      Client
	variants    variants.Service
	sessions    session.Service
	currencies  currencyResolver
	logg        *logger.Logger
	concurrency int
}

// NewService wires the catalog service.
func NewService(client Client, variantSvc variants.Service, sessions session.Service, currencies currencyResolver, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	if variantSvc == nil {
		return nil, fmt.Errorf("variant service required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service required")
	}
	if currencies == nil {
		return nil, fmt.Errorf("currency resolver required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		client:      client,
		variants:    variantSvc,
		sessions:    sessions,
		currencies:  currencies,
		logg:        logg,
		concurrency: defaultFetchConcurrency,
	}, nil
}

func (s *service) ProductCards(ctx context.Context, sessionID, companyID string) ([]ProductCard, error) {
	products, err := s.client.ListProducts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Dispatch(ctx, sessionID, selection.CompanySelected{CompanyID: companyID}); err != nil {
		return nil, err
	}
	currency := s.CurrencyFor(ctx, companyID)

	listings := make([]variants.Listing, len(products))
	stale := make([]bool, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range products {
		g.Go(func() error {
			ref := variants.ProductRef{CompanyID: companyID, ProductID: products[i].ID}
			listing, err := s.variants.ListForSession(gctx, sessionID, ref)
			if pkgerrors.HasCode(err, pkgerrors.CodeStaleResponse) {
				stale[i] = true
				return nil
			}
			if err != nil {
				return err
			}
			listings[i] = listing
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	actions := make([]session.Action, 0, len(products))
	for i := range products {
		if stale[i] {
			continue
		}
		actions = append(actions, selection.VariantsLoaded{
			ProductID: products[i].ID,
			Seq:       listings[i].Seq,
			Items:     listings[i].Variants,
		})
	}
	state, err := s.sessions.Dispatch(ctx, sessionID, actions...)
	if err != nil {
		return nil, err
	}

	cards := make([]ProductCard, 0, len(products))
	for _, product := range products {
		items, _ := state.Products.VariantsFor(product.ID)
		view := variants.SelectDisplay(items, nil)
		cards = append(cards, ProductCard{
			Product:      product,
			VariantCount: len(items),
			Display:      view,
			Formatted:    formatView(view, &currency),
		})
	}
	return cards, nil
}

func (s *service) ProductDisplay(ctx context.Context, sessionID string, ref variants.ProductRef) (*ProductDisplay, error) {
	listing, err := s.ListVariants(ctx, sessionID, ref)
	if err != nil {
		return nil, err
	}
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.buildDisplay(ctx, ref, state.Products, listing.Seq), nil
}

func (s *service) SelectVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID *string) (*ProductDisplay, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items, cached := state.Products.VariantsFor(ref.ProductID)
	if !cached {
		listing, err := s.ListVariants(ctx, sessionID, ref)
		if err != nil {
			return nil, err
		}
		items = listing.Variants
	}

	var action session.Action = selection.VariantCleared{ProductID: ref.ProductID}
	if variantID != nil && strings.TrimSpace(*variantID) != "" {
		if !containsVariant(items, *variantID) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found for product").
				WithDetails(map[string]any{"product_id": ref.ProductID, "variant_id": *variantID})
		}
		action = selection.VariantSelected{ProductID: ref.ProductID, VariantID: *variantID}
	}
	state, err = s.sessions.Dispatch(ctx, sessionID, action)
	if err != nil {
		return nil, err
	}
	return s.buildDisplay(ctx, ref, state.Products, state.Products.Variants[ref.ProductID].Seq), nil
}

func (s *service) ListVariants(ctx context.Context, sessionID string, ref variants.ProductRef) (variants.Listing, error) {
	listing, err := s.variants.ListForSession(ctx, sessionID, ref)
	if err != nil {
		return variants.Listing{}, err
	}
	if err := s.recordListing(ctx, sessionID, listing); err != nil {
		return variants.Listing{}, err
	}
	return listing, nil
}

func (s *service) GetVariant(ctx context.Context, ref variants.ProductRef, variantID string) (*variants.ProductVariant, error) {
	return s.variants.Get(ctx, ref, variantID)
}

func (s *service) CreateVariant(ctx context.Context, sessionID string, ref variants.ProductRef, input variants.VariantInput) (*variants.ProductVariant, variants.Listing, error) {
	created, listing, err := s.variants.Create(ctx, sessionID, ref, input)
	if err != nil {
		return created, variants.Listing{}, err
	}
	return created, listing, s.recordListing(ctx, sessionID, listing)
}

func (s *service) UpdateVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID string, input variants.VariantInput) (*variants.ProductVariant, variants.Listing, error) {
	updated, listing, err := s.variants.Update(ctx, sessionID, ref, variantID, input)
	if err != nil {
		return updated, variants.Listing{}, err
	}
	return updated, listing, s.recordListing(ctx, sessionID, listing)
}

func (s *service) DeleteVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID string) (variants.Listing, error) {
	listing, deleted, err := s.variants.Delete(ctx, sessionID, ref, variantID)
	if !deleted || strings.TrimSpace(sessionID) == "" {
		return listing, err
	}
	actions := []session.Action{selection.VariantRemoved{ProductID: ref.ProductID, VariantID: variantID}}
	if err == nil {
		actions = append(actions, selection.VariantsLoaded{ProductID: listing.ProductID, Seq: listing.Seq, Items: listing.Variants})
	}
	if _, dispatchErr := s.sessions.Dispatch(ctx, sessionID, actions...); dispatchErr != nil {
		return variants.Listing{}, dispatchErr
	}
	return listing, err
}

func (s *service) recordListing(ctx context.Context, sessionID string, listing variants.Listing) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	_, err := s.sessions.Dispatch(ctx, sessionID, selection.VariantsLoaded{
		ProductID: listing.ProductID,
		Seq:       listing.Seq,
		Items:     listing.Variants,
	})
	return err
}

func (s *service) buildDisplay(ctx context.Context, ref variants.ProductRef, products selection.State, seq uint64) *ProductDisplay {
	items, _ := products.VariantsFor(ref.ProductID)
	selected := products.SelectedFor(ref.ProductID)

	display := &ProductDisplay{
		ProductID:         ref.ProductID,
		Seq:               seq,
		Variants:          items,
		SelectedVariantID: selected,
		Aggregate:         variants.SelectDisplay(items, nil),
		Currency:          s.CurrencyFor(ctx, ref.CompanyID),
	}
	if display.Variants == nil {
		display.Variants = []variants.ProductVariant{}
	}
	seed := selected
	if def := variants.DefaultVariant(items); def != nil {
		id := def.ID
		display.DefaultVariantID = &id
		if seed == nil {
			seed = &id
		}
	}
	display.View = variants.SelectDisplay(items, seed)
	display.Formatted = formatView(display.View, &display.Currency)
	return display
}

func (s *service) CurrencyFor(ctx context.Context, companyID string) money.Currency {
	company, err := s.client.GetCompany(ctx, companyID)
	if err != nil {
		s.logg.Warn(s.logg.WithCompanyID(ctx, companyID), "company lookup failed, formatting in USD")
		return money.USD()
	}
	return s.currencies.Resolve(ctx, company.CurrencyID)
}

func formatView(view variants.DisplayView, currency *money.Currency) FormattedPrices {
	out := FormattedPrices{
		CostPrice: money.Format(view.CostPrice, currency),
		SellPrice: money.FormatPtr(view.SellPrice, currency),
	}
	if view.Margin != nil {
		out.Margin = fmt.Sprintf("%.1f%%", *view.Margin)
	}
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
