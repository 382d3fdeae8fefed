package checkout

import (
	"context"
	"time"

	"github.com/angelmondragon/posfront/pkg/db/models"
	"github.com/angelmondragon/posfront/pkg/enums"
	"gorm.io/gorm"
)

const defaultAttemptListLimit = 20

// Repository journals checkout attempts.
type Repository interface {
	Create(ctx context.Context, attempt *models.CheckoutAttempt) error
	Complete(ctx context.Context, id string, status enums.CheckoutStatus, saleID, message *string) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error)
}

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds a checkout attempt repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db, now: time.Now}
}

func (r *repository) Create(ctx context.Context, attempt *models.CheckoutAttempt) error {
	if attempt.Status == "" {
		attempt.Status = enums.CheckoutStatusPending
	}
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *repository) Complete(ctx context.Context, id string, status enums.CheckoutStatus, saleID, message *string) error {
	completedAt := r.now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"sale_id":      saleID,
			"message":      message,
			"completed_at": completedAt,
		}).Error
}

func (r *repository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error) {
	if limit <= 0 {
		limit = defaultAttemptListLimit
	}
	var attempts []models.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
