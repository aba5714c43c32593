package domain

import (
	"context"
	"errors"
	"fmt"
)

type IngestRequest struct {
	CustomerID string
	// MeterID is optional; empty means the customer's default meter, with
	// creation as needed.
	MeterID  string
	Filename string
	Data     []byte
}

type IngestResult struct {
	BatchTag     string `json:"batch_tag"`
	RowsInserted int    `json:"rows_inserted"`
}

type Service interface {
	// Ingest parses a `;`-delimited dataset, resolves the target meter and
	// persists every row atomically. Either all rows commit or none do.
	Ingest(context.Context, IngestRequest) (IngestResult, error)
}

var (
	ErrInvalidCustomer        = errors.New("invalid_customer")
	ErrInvalidMeter           = errors.New("invalid_meter")
	ErrEmptyDataset           = errors.New("empty_dataset")
	ErrInvalidTimestampFormat = errors.New("invalid_timestamp_format")
)

// BatchParseError rejects an entire upload, identifying the failing data row
// (1-based, header excluded) and its raw content.
type BatchParseError struct {
	Row int
	Raw string
	Err error
}

func (e *BatchParseError) Error() string {
	return fmt.Sprintf("batch parse failed at row %d (%q): %v", e.Row, e.Raw, e.Err)
}

func (e *BatchParseError) Unwrap() error { return e.Err }
