package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	List(ctx context.Context, db *gorm.DB) ([]*Customer, error)

	// SetDefaultMeter unconditionally repoints the customer's default meter.
	SetDefaultMeter(ctx context.Context, db *gorm.DB, customerID, meterID snowflake.ID) error

	// SetDefaultMeterIfUnset assigns the default meter only when none is set
	// yet and reports whether the update won. Concurrent first uploads race
	// on this; the store's conditional update decides the winner.
	SetDefaultMeterIfUnset(ctx context.Context, db *gorm.DB, customerID, meterID snowflake.ID) (bool, error)
}
