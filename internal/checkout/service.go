package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/posfront/internal/cart"
	"github.com/angelmondragon/posfront/internal/session"
	"github.com/angelmondragon/posfront/pkg/db"
	"github.com/angelmondragon/posfront/pkg/db/models"
	"github.com/angelmondragon/posfront/pkg/enums"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
	"github.com/angelmondragon/posfront/pkg/metrics"
	"github.com/angelmondragon/posfront/pkg/money"
	"github.com/google/uuid"
)

type currencySource interface {
	CurrencyFor(ctx context.Context, companyID string) money.Currency
}

// Input identifies the session to check out.
type Input struct {
	SessionID      string
	CompanyID      string
	IdempotencyKey string
}

// Result describes a submitted sale.
type Result struct {
	AttemptID       string           `json:"attemptId"`
	Sale            SaleConfirmation `json:"sale"`
	Amount          float64          `json:"amount"`
	FormattedAmount string           `json:"formattedAmount"`
	ItemCount       int              `json:"itemCount"`
}

// Service executes checkout: validate, submit once, journal, then drop the sold lines.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
	Attempts(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error)
}

type service struct {
	sessions   session.Service
	sales      SaleClient
	repo       Repository
	currencies currencySource
	metrics    *metrics.CheckoutMetrics
	logg       *logger.Logger
}

// NewService wires the checkout service. metricsSink may be nil.
func NewService(sessions session.Service, sales SaleClient, repo Repository, currencies currencySource, metricsSink *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session service required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sale client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if currencies == nil {
		return nil, fmt.Errorf("currency source required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		sessions:   sessions,
		sales:      sales,
		repo:       repo,
		currencies: currencies,
		metrics:    metricsSink,
		logg:       logg,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	state, err := s.sessions.Load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := ValidateCheckout(state.Cart.Items, state.Cart.CustomerID); err != nil {
		s.metrics.IncOutcome(string(pkgerrors.As(err).Code()))
		return nil, err
	}

	req := BuildSaleRequest(state.Cart)
	attempt := &models.CheckoutAttempt{
		ID:         uuid.NewString(),
		SessionID:  input.SessionID,
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		ItemCount:  len(req.Items),
		Status:     enums.CheckoutStatusPending,
	}
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		attempt.IdempotencyKey = &key
	}
	if err := s.repo.Create(ctx, attempt); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeIdempotency, err, "checkout already attempted with this idempotency key")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record checkout attempt")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"checkout_attempt_id": attempt.ID,
		"item_count":          attempt.ItemCount,
	})

	sale, err := s.sales.Submit(ctx, req)
	if err != nil {
		message := failureMessage(err)
		s.complete(logCtx, attempt.ID, enums.CheckoutStatusFailed, nil, &message)
		s.metrics.IncOutcome(string(enums.CheckoutStatusFailed))
		s.logg.Warn(logCtx, "sale submission failed")
		return nil, err
	}

	saleID := sale.ID
	s.complete(logCtx, attempt.ID, enums.CheckoutStatusSucceeded, &saleID, nil)
	s.metrics.IncOutcome(string(enums.CheckoutStatusSucceeded))
	s.metrics.ObserveAmount(req.Amount)

	// The sale exists upstream at this point; a failed clear must not surface as a checkout failure.
	if _, err := s.sessions.Dispatch(ctx, input.SessionID, cart.SaleSettled{ItemIDs: itemIDs(state.Cart.Items)}); err != nil {
		s.logg.Error(logCtx, "failed to clear cart after checkout", err)
	}
	s.logg.Info(s.logg.WithField(logCtx, "sale_id", sale.ID), "sale submitted")

	currency := s.currencies.CurrencyFor(ctx, input.CompanyID)
	return &Result{
		AttemptID:       attempt.ID,
		Sale:            *sale,
		Amount:          req.Amount,
		FormattedAmount: money.Format(req.Amount, &currency),
		ItemCount:       attempt.ItemCount,
	}, nil
}

func (s *service) Attempts(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error) {
	attempts, err := s.repo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list checkout attempts")
	}
	return attempts, nil
}

func (s *service) complete(ctx context.Context, id string, status enums.CheckoutStatus, saleID, message *string) {
	if err := s.repo.Complete(ctx, id, status, saleID, message); err != nil {
		s.logg.Error(ctx, "failed to record checkout outcome", err)
	}
}

func itemIDs(items []cart.LineItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func failureMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}
