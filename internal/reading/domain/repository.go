package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MeterReadingRow is a reading joined with its meter, as consumed by the
// invoice aggregator.
type MeterReadingRow struct {
	MeterID      snowflake.ID
	SerialNumber string
	Usage        decimal.Decimal
	Price        decimal.Decimal
}

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, readings []*Reading) error

	// ListForPeriod returns readings for all of the customer's meters with
	// `from <= timestamp < to`, ordered by meter then time.
	ListForPeriod(ctx context.Context, db *gorm.DB, customerID snowflake.ID, from, to time.Time) ([]MeterReadingRow, error)
}
