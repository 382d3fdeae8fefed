package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/posfront/api/responses"
	"github.com/angelmondragon/posfront/api/validators"
	"github.com/angelmondragon/posfront/internal/pos"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
)

// CartService is the register cart surface exposed over HTTP.
type CartService interface {
	View(ctx context.Context, scope pos.Scope) (*pos.CartView, error)
	AddItem(ctx context.Context, scope pos.Scope, input pos.AddItemInput) (*pos.CartView, error)
	UpdateQuantity(ctx context.Context, scope pos.Scope, itemID string, quantity int) (*pos.CartView, error)
	UpdateDiscount(ctx context.Context, scope pos.Scope, itemID string, percent float64) (*pos.CartView, error)
	RemoveItem(ctx context.Context, scope pos.Scope, itemID string) (*pos.CartView, error)
	SelectCustomer(ctx context.Context, scope pos.Scope, customerID *string) (*pos.CartView, error)
	Clear(ctx context.Context, scope pos.Scope) (*pos.CartView, error)
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=128"`
	VariantID string `json:"variantId" validate:"required,max=128"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity        *int     `json:"quantity"`
	DiscountPercent *float64 `json:"discountPercent"`
}

type customerRequest struct {
	CustomerID *string `json:"customerId" validate:"omitempty,max=128"`
}

func CartFetch(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.View(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem appends a line; quantities below one are clamped by the reducer.
func CartAddItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.AddItem(r.Context(), scope, pos.AddItemInput{
			ProductID: payload.ProductID,
			VariantID: payload.VariantID,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func CartUpdateItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == nil && payload.DiscountPercent == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantity or discountPercent required"))
			return
		}

		var view *pos.CartView
		if payload.Quantity != nil {
			if view, err = svc.UpdateQuantity(r.Context(), scope, itemID, *payload.Quantity); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if payload.DiscountPercent != nil {
			if view, err = svc.UpdateDiscount(r.Context(), scope, itemID, *payload.DiscountPercent); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, view)
	}
}

func CartRemoveItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.RemoveItem(r.Context(), scope, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartSelectCustomer sets the customer; a null or blank id clears it.
func CartSelectCustomer(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.SelectCustomer(r.Context(), scope, payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartClear(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Clear(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
