// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Invoice is an append-only snapshot of a billing period. Recomputing the
// same period creates a new row; the only mutation ever applied is attaching
// DocumentPath once rendering succeeds.
type Invoice struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID   snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	PeriodStart  time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd    time.Time       `gorm:"not null" json:"period_end"`
	TotalUsage   decimal.Decimal `gorm:"type:decimal(17,5);not null" json:"total_usage"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(17,5);not null" json:"total_cost"`
	DocumentPath string          `gorm:"type:text;not null;default:''" json:"document_path"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
