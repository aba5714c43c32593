package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/meterbill/internal/customer/domain"
	"gorm.io/gorm"
)

// Service selects or creates the meter a batch of readings belongs to.
type Service interface {
	// Resolve runs inside the caller's transaction. With no explicit id it
	// returns the customer's default meter, creating and assigning one when
	// missing. With an explicit id it adopts the caller-supplied identity
	// for new meters, rejects ids owned by another customer, and repoints
	// the customer's default meter.
	Resolve(ctx context.Context, tx *gorm.DB, customer *customerdomain.Customer, explicitID snowflake.ID) (snowflake.ID, error)

	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Meter, error)
}

var (
	ErrMeterConflict = errors.New("meter_conflict")
)
