package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer owns meters and invoices. DefaultMeterID points at the meter that
// uploads are attributed to when no meter is specified; when set it always
// belongs to this customer.
type Customer struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name           string            `gorm:"not null;index" json:"name"`
	Address        string            `gorm:"type:text;not null" json:"address"`
	Email          string            `gorm:"not null" json:"email"`
	DefaultMeterID *snowflake.ID     `gorm:"index" json:"default_meter_id,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
