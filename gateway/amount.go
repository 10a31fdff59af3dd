package gateway

import (
	"fmt"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatAmount renders a positive amount in the gateway's wire format.
// Minor units allow at most two decimals, one-decimal major units at most one.
func FormatAmount(amount decimal.Decimal, format AmountFormat) (string, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, amount.String())
	}
	switch format {
	case AmountMinorUnits:
		if !amount.Equal(amount.Truncate(2)) {
			return "", fmt.Errorf("%w: %s has more than 2 decimals", ErrInvalidAmount, amount.String())
		}
		return amount.Mul(hundred).Truncate(0).String(), nil
	case AmountOneDecimal:
		if !amount.Equal(amount.Truncate(1)) {
			return "", fmt.Errorf("%w: %s has more than 1 decimal", ErrInvalidAmount, amount.String())
		}
		return amount.StringFixed(1), nil
	}
	return "", fmt.Errorf("%w: unknown amount format %d", ErrMissingConfiguration, format)
}

// ParseMinorUnits converts an integer minor-unit string back to major units for display.
func ParseMinorUnits(s string) (decimal.Decimal, error) {
	minor, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return minor.Div(hundred), nil
}
