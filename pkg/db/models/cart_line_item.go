package models

import "time"

// CartLineItem snapshots a variant at add time; UnitPrice never follows later price changes.
type CartLineItem struct {
	ID              string    `gorm:"column:id;primaryKey;size:36"`
	SessionID       string    `gorm:"column:session_id;size:128;not null;index"`
	Position        int       `gorm:"column:position;not null"`
	ProductID       string    `gorm:"column:product_id;size:64;not null"`
	VariantID       *string   `gorm:"column:variant_id;size:64"`
	Name            string    `gorm:"column:name;not null"`
	Quantity        int       `gorm:"column:quantity;not null"`
	UnitPrice       float64   `gorm:"column:unit_price;not null"`
	DiscountPercent float64   `gorm:"column:discount_percent;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
