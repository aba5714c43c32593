package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Meter belongs to exactly one customer. SerialNumber may stay unset until
// the physical meter is reconciled; meters are created implicitly by the
// ingestion pipeline when an upload names no meter.
type Meter struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	SerialNumber *string      `gorm:"type:text" json:"serial_number,omitempty"`
	CustomerID   snowflake.ID `gorm:"not null;index" json:"customer_id"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Meter) TableName() string { return "meters" }
