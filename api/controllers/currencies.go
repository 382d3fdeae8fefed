package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/posfront/api/responses"
	"github.com/angelmondragon/posfront/api/validators"
	"github.com/angelmondragon/posfront/pkg/logger"
	"github.com/angelmondragon/posfront/pkg/money"
)

type currencyReader interface {
	List(ctx context.Context) ([]money.Currency, error)
	Get(ctx context.Context, id string) (*money.Currency, error)
	Resolve(ctx context.Context, id *string) money.Currency
}

type companyCurrency interface {
	CurrencyFor(ctx context.Context, companyID string) money.Currency
}

func CurrencyList(svc currencyReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []money.Currency{}
		}
		responses.WriteSuccess(w, items)
	}
}

func CurrencyGet(svc currencyReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "currencyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, currency)
	}
}

type formatRequest struct {
	Amounts    []float64 `json:"amounts" validate:"required,min=1,max=200"`
	CurrencyID *string   `json:"currencyId" validate:"omitempty,max=64"`
}

type formatResponse struct {
	Currency  money.Currency `json:"currency"`
	Formatted []string       `json:"formatted"`
}

// CurrencyFormat renders amounts in the requested currency, or the company's
// default currency when none is given. Unknown currencies fall back to USD.
func CurrencyFormat(svc currencyReader, companies companyCurrency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload formatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var currency money.Currency
		if payload.CurrencyID != nil {
			currency = svc.Resolve(r.Context(), payload.CurrencyID)
		} else {
			currency = companies.CurrencyFor(r.Context(), scope.CompanyID)
		}

		out := formatResponse{Currency: currency, Formatted: make([]string, len(payload.Amounts))}
		for i, amount := range payload.Amounts {
			out.Formatted[i] = money.Format(amount, &currency)
		}
		responses.WriteSuccess(w, out)
	}
}
