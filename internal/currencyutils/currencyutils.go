// Package currencyutils provides common currency and decimal operations used throughout the application.
package currencyutils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// centsInUnit converts between minor and major currency units.
var centsInUnit = decimal.NewFromInt(100)

// ParseCents parses an integer amount in minor currency units (cents) and
// converts it to major units. The sign is preserved; callers decide what a
// negative amount means.
func ParseCents(amountStr string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(amountStr)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	cents, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return decimal.NewFromInt(cents).Div(centsInUnit), nil
}

// ParseAmount parses a string representation of a major-unit amount.
// It tolerates a comma decimal separator, currency suffixes and
// surrounding whitespace ("12,50", "12.50 EUR", "€12.50").
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	cleaned := StandardizeAmount(amountStr)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// StandardizeAmount converts common amount spellings to a form that
// decimal.NewFromString accepts.
func StandardizeAmount(amountStr string) string {
	cleaned := strings.TrimSpace(amountStr)
	for _, sym := range []string{"EUR", "CHF", "€", "$"} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "'", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return cleaned
}

// FormatAmount formats a decimal amount with two decimal places and the
// given currency code, e.g. "EUR 12.50".
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}
