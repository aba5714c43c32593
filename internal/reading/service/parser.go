package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/meterbill/internal/numeric"
	"github.com/smallbiznis/meterbill/internal/reading/domain"
)

// timestampLayouts are tried in order when parsing row timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type parsedRow struct {
	Timestamp time.Time
	Usage     decimal.Decimal
	Price     decimal.Decimal
}

// parseDataset parses a `;`-delimited table of `timestamp;usage;price` rows.
// The first non-empty line is a header and is ignored. Any malformed row
// fails the whole dataset with a BatchParseError naming the 1-based data row.
func parseDataset(data []byte) ([]parsedRow, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	rows := make([]parsedRow, 0, len(lines))
	seenHeader := false
	rowIndex := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !seenHeader {
			seenHeader = true
			continue
		}
		rowIndex++

		row, err := parseRow(line)
		if err != nil {
			return nil, &domain.BatchParseError{Row: rowIndex, Raw: line, Err: err}
		}
		rows = append(rows, row)
	}

	if !seenHeader {
		return nil, domain.ErrEmptyDataset
	}
	return rows, nil
}

func parseRow(line string) (parsedRow, error) {
	fields := strings.Split(line, ";")
	if len(fields) != 3 {
		return parsedRow{}, fmt.Errorf("expected 3 columns, got %d", len(fields))
	}

	ts, err := parseTimestamp(fields[0])
	if err != nil {
		return parsedRow{}, err
	}

	usage, err := numeric.Parse(fields[1])
	if err != nil {
		return parsedRow{}, err
	}

	price, err := numeric.Parse(fields[2])
	if err != nil {
		return parsedRow{}, err
	}

	return parsedRow{Timestamp: ts, Usage: usage, Price: price}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidTimestampFormat, value)
}
