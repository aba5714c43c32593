// Package domain contains persistence models for ingested meter readings.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Reading is a single timestamped usage/price observation attributed to one
// meter. Readings are immutable once created and carry the batch tag of the
// upload they came from.
type Reading struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Timestamp time.Time       `gorm:"not null;index" json:"timestamp"`
	Usage     decimal.Decimal `gorm:"type:decimal(17,5);not null" json:"usage"`
	Price     decimal.Decimal `gorm:"type:decimal(17,5);not null" json:"price"`
	MeterID   snowflake.ID    `gorm:"not null;index" json:"meter_id"`
	BatchTag  string          `gorm:"type:text;not null;index" json:"batch_tag"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Reading) TableName() string { return "readings" }
