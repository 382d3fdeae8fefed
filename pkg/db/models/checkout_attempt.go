package models

import (
	"time"

	"github.com/angelmondragon/posfront/pkg/enums"
)

// CheckoutAttempt journals one sale submission and its outcome.
type CheckoutAttempt struct {
	ID             string               `gorm:"column:id;primaryKey;size:36"`
	SessionID      string               `gorm:"column:session_id;size:128;not null;index"`
	IdempotencyKey *string              `gorm:"column:idempotency_key;size:128;uniqueIndex"`
	CustomerID     string               `gorm:"column:customer_id;size:64;not null"`
	Amount         float64              `gorm:"column:amount;not null"`
	ItemCount      int                  `gorm:"column:item_count;not null"`
	Status         enums.CheckoutStatus `gorm:"column:status;size:16;not null"`
	SaleID         *string              `gorm:"column:sale_id;size:64"`
	Message        *string              `gorm:"column:message"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	CompletedAt    *time.Time           `gorm:"column:completed_at"`
}
