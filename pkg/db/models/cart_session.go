package models

import "time"

// CartSession is the persisted cart slice of one POS session.
type CartSession struct {
	SessionID  string         `gorm:"column:session_id;primaryKey;size:128"`
	CustomerID *string        `gorm:"column:customer_id;size:64"`
	Items      []CartLineItem `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
