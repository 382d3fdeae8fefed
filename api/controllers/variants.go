package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/posfront/api/responses"
	"github.com/angelmondragon/posfront/api/validators"
	"github.com/angelmondragon/posfront/internal/variants"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
)

// VariantService is the catalog surface the variant endpoints need.
type VariantService interface {
	ListVariants(ctx context.Context, sessionID string, ref variants.ProductRef) (variants.Listing, error)
	GetVariant(ctx context.Context, ref variants.ProductRef, variantID string) (*variants.ProductVariant, error)
	CreateVariant(ctx context.Context, sessionID string, ref variants.ProductRef, input variants.VariantInput) (*variants.ProductVariant, variants.Listing, error)
	UpdateVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID string, input variants.VariantInput) (*variants.ProductVariant, variants.Listing, error)
	DeleteVariant(ctx context.Context, sessionID string, ref variants.ProductRef, variantID string) (variants.Listing, error)
}

type variantRequest struct {
	Name      string   `json:"name" validate:"required,max=120"`
	SKU       string   `json:"sku" validate:"max=64"`
	IsDefault bool     `json:"isDefault"`
	IsActive  bool     `json:"isActive"`
	MinStock  *int     `json:"minStock" validate:"omitempty,min=0"`
	MaxStock  *int     `json:"maxStock" validate:"omitempty,min=0"`
	CostPrice *float64 `json:"costPrice" validate:"omitempty,min=0"`
	SellPrice *float64 `json:"sellPrice" validate:"omitempty,min=0"`
	Quantity  *float64 `json:"quantity" validate:"omitempty,min=0"`
}

func (v variantRequest) toInput() (variants.VariantInput, error) {
	if v.MinStock != nil && v.MaxStock != nil && *v.MaxStock < *v.MinStock {
		return variants.VariantInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"maxStock": "must be at least minStock"})
	}
	return variants.VariantInput{
		Name:      validators.SanitizeString(v.Name, 120),
		SKU:       validators.SanitizeString(v.SKU, 64),
		IsDefault: v.IsDefault,
		IsActive:  v.IsActive,
		MinStock:  v.MinStock,
		MaxStock:  v.MaxStock,
		CostPrice: v.CostPrice,
		SellPrice: v.SellPrice,
		Quantity:  v.Quantity,
	}, nil
}

type variantMutationResponse struct {
	Variant *variants.ProductVariant `json:"variant"`
	Listing variants.Listing         `json:"listing"`
}

func VariantList(svc VariantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ref, err := productRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.ListVariants(r.Context(), scope.SessionID, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func VariantGet(svc VariantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ref, err := productRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := validators.PathID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variant, err := svc.GetVariant(r.Context(), ref, variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variant)
	}
}

func VariantCreate(svc VariantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ref, err := productRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload variantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, listing, err := svc.CreateVariant(r.Context(), scope.SessionID, ref, input)
		if err != nil && created == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err != nil {
			// The variant exists; only the follow-up list refresh failed.
			logWarn(r.Context(), logg, "variant created but list refresh failed", "variant_id", created.ID)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, variantMutationResponse{Variant: created, Listing: listing})
	}
}

func VariantUpdate(svc VariantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ref, err := productRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := validators.PathID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload variantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, listing, err := svc.UpdateVariant(r.Context(), scope.SessionID, ref, variantID, input)
		if err != nil && updated == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err != nil {
			logWarn(r.Context(), logg, "variant updated but list refresh failed", "variant_id", variantID)
		}
		responses.WriteSuccess(w, variantMutationResponse{Variant: updated, Listing: listing})
	}
}

func VariantDelete(svc VariantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ref, err := productRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := validators.PathID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.DeleteVariant(r.Context(), scope.SessionID, ref, variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}
