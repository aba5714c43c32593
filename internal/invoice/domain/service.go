package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MeterRollup is the aggregated usage and cost of one meter over a period.
type MeterRollup struct {
	MeterID      snowflake.ID    `json:"meter_id"`
	SerialNumber string          `json:"serial_number"`
	Usage        decimal.Decimal `json:"usage"`
	Cost         decimal.Decimal `json:"cost"`
}

// Summary is the immutable result of aggregating readings over a period,
// prior to rendering. Totals are exact decimal sums of the rollups and are
// zero-valued when nothing matched.
type Summary struct {
	CustomerID      snowflake.ID    `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerAddress string          `json:"customer_address"`
	CustomerEmail   string          `json:"customer_email"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	Meters          []MeterRollup   `json:"meters"`
	TotalUsage      decimal.Decimal `json:"total_usage"`
	TotalCost       decimal.Decimal `json:"total_cost"`
}

type ComputeRequest struct {
	CustomerID string
	Start      time.Time
	// End is inclusive through the last instant of its day; zero means the
	// last calendar day of the month containing Start.
	End time.Time
}

type CreateInvoiceRequest struct {
	CustomerID string
	Start      time.Time
	End        time.Time
}

type CreateInvoiceResult struct {
	Invoice  Invoice
	Summary  Summary
	Document []byte
}

type Service interface {
	// Compute is a pure read; repeated calls with unchanged readings return
	// identical summaries.
	Compute(context.Context, ComputeRequest) (Summary, error)

	// CreateInvoice computes a summary, persists the invoice row before
	// rendering, renders the document and stores it. A render or storage
	// failure leaves the row behind with an empty document path.
	CreateInvoice(context.Context, CreateInvoiceRequest) (CreateInvoiceResult, error)

	ListByCustomer(ctx context.Context, customerID string) ([]Invoice, error)
}

var (
	ErrInvalidCustomerID   = errors.New("invalid_customer_id")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrRenderFailure       = errors.New("render_failure")
	ErrStorageWriteFailure = errors.New("storage_write_failure")
)
