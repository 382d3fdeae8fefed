package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/posfront/api/responses"
	"github.com/angelmondragon/posfront/api/validators"
	checkoutsvc "github.com/angelmondragon/posfront/internal/checkout"
	"github.com/angelmondragon/posfront/pkg/db/models"
	"github.com/angelmondragon/posfront/pkg/logger"
)

type checkoutRunner interface {
	Checkout(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error)
}

type attemptLister interface {
	Attempts(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error)
}

// Checkout submits the session cart as a sale. The idempotency middleware in front
// of this handler guarantees a retried key replays instead of resubmitting.
func Checkout(svc checkoutRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			SessionID:      scope.SessionID,
			CompanyID:      scope.CompanyID,
			IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type attemptResponse struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customerId"`
	Amount      float64    `json:"amount"`
	ItemCount   int        `json:"itemCount"`
	Status      string     `json:"status"`
	SaleID      *string    `json:"saleId,omitempty"`
	Message     *string    `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func CheckoutAttempts(svc attemptLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attempts, err := svc.Attempts(r.Context(), scope.SessionID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]attemptResponse, 0, len(attempts))
		for _, a := range attempts {
			out = append(out, attemptResponse{
				ID:          a.ID,
				CustomerID:  a.CustomerID,
				Amount:      a.Amount,
				ItemCount:   a.ItemCount,
				Status:      a.Status.String(),
				SaleID:      a.SaleID,
				Message:     a.Message,
				CreatedAt:   a.CreatedAt,
				CompletedAt: a.CompletedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
