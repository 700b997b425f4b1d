package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMaxInputValue bounds operand magnitude when no limit is configured.
var DefaultMaxInputValue = decimal.New(1, 999)

// ParseOperand converts raw user input into a decimal, rejecting
// non-numeric text and values whose magnitude exceeds max.
func ParseOperand(raw string, max decimal.Decimal) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	d, err := decimal.NewFromString(s)
	if err != nil || s == "" {
		return decimal.Zero, newValidationError("Invalid number format: " + raw)
	}
	if d.Abs().GreaterThan(max) {
		return decimal.Zero, newValidationError("Value exceeds maximum allowed: " + max.String())
	}
	return d, nil
}
