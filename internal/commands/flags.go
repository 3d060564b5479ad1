package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateFormat = "2006-01-02"

func parseAmount(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not a number", name, s)
	}
	return d, nil
}

// parseOptionalAmount returns an invalid NullDecimal for an empty flag.
func parseOptionalAmount(name, s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseAmount(name, s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// parseDate returns the zero time for an empty flag.
func parseDate(name, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %q is not a YYYY-MM-DD date", name, s)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateFormat)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
