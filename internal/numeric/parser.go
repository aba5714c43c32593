// Package numeric parses locale-formatted decimal strings into exact decimals.
package numeric

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumericFormat is returned for strings that are not a signed
// decimal number with a single comma fractional separator.
var ErrInvalidNumericFormat = errors.New("invalid_numeric_format")

// Parse converts a decimal string using `,` as the fractional separator into
// an exact decimal. The pipeline never touches binary floating point, so sums
// and products over parsed values carry no rounding error.
func Parse(s string) (decimal.Decimal, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty value", ErrInvalidNumericFormat)
	}

	digits := 0
	separators := 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-':
			if i != 0 {
				return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
			}
		case r == ',':
			separators++
			if separators > 1 {
				return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
			}
		default:
			return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
		}
	}
	if digits == 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
	}

	parsed, err := decimal.NewFromString(strings.Replace(value, ",", ".", 1))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
	}
	return parsed, nil
}

// Format renders a decimal back to its locale form with a comma separator.
func Format(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}
