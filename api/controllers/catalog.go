package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/posfront/api/responses"
	"github.com/angelmondragon/posfront/api/validators"
	"github.com/angelmondragon/posfront/internal/catalog"
	"github.com/angelmondragon/posfront/internal/variants"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
)

type productCardLister interface {
	ProductCards(ctx context.Context, sessionID, companyID string) ([]catalog.ProductCard, error)
}

type productDisplayer interface {
	ProductDisplay(ctx context.Context, sessionID string, ref variants.ProductRef) (*catalog.ProductDisplay, error)
}

type variantSelector interface {
	SelectVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID *string) (*catalog.ProductDisplay, error)
}

// ProductCards lists the product grid for the company in the token.
func ProductCards(svc productCardLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		companyID, err := validators.PathID(r, "companyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if companyID != scope.CompanyID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company mismatch"))
			return
		}

		cards, err := svc.ProductCards(r.Context(), scope.SessionID, companyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if cards == nil {
			cards = []catalog.ProductCard{}
		}
		responses.WriteSuccess(w, cards)
	}
}

func ProductDisplay(svc productDisplayer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ref, err := productRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		display, err := svc.ProductDisplay(r.Context(), scope.SessionID, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, display)
	}
}

type selectionRequest struct {
	VariantID *string `json:"variantId" validate:"omitempty,max=128"`
}

// ProductSelection selects a variant for the product, or clears the selection when variantId is null.
func ProductSelection(svc variantSelector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ref, err := productRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload selectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		display, err := svc.SelectVariant(r.Context(), scope.SessionID, ref, payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, display)
	}
}
