// Package words renders amounts in words using Indian grouping
// (crore, lakh, thousand, hundred) as printed on tax invoices.
package words

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	crore    = 10000000
	lakh     = 100000
	thousand = 1000
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
}

var teens = []string{
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen",
	"Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// limit is the first amount ToWords refuses (10^16).
var limit = decimal.New(1, 16)

// RangeError reports an amount outside [0, 10^16).
type RangeError struct {
	Amount decimal.Decimal
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("amount %s out of range: must be at least 0 and below 10^16", e.Amount.String())
}

// ToWords renders amount in words, e.g. 1234567.5 becomes
// "Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven and Fifty Paisa".
// The fraction is rounded to paisa and only rendered when non-zero. Amounts
// just below 10^16 that would round up to it are truncated instead.
func ToWords(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() || amount.GreaterThanOrEqual(limit) {
		return "", &RangeError{Amount: amount}
	}

	rounded := amount.Round(2)
	if rounded.GreaterThanOrEqual(limit) {
		rounded = amount.Truncate(2)
	}

	whole := rounded.Truncate(0)
	paisa := rounded.Sub(whole).Shift(2).IntPart()

	words := integerWords(whole.IntPart())
	if words == "" {
		words = "Zero"
	}
	if paisa > 0 {
		words += " and " + integerWords(paisa) + " Paisa"
	}
	return words, nil
}

// integerWords renders n >= 0; zero renders as "".
func integerWords(n int64) string {
	var parts []string

	if n >= crore {
		parts = append(parts, integerWords(n/crore), "Crore")
		n %= crore
	}
	if n >= lakh {
		parts = append(parts, chunkWords(n/lakh), "Lakh")
		n %= lakh
	}
	if n >= thousand {
		parts = append(parts, chunkWords(n/thousand), "Thousand")
		n %= thousand
	}
	if n > 0 {
		parts = append(parts, chunkWords(n))
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

// chunkWords renders 1 <= n <= 999.
func chunkWords(n int64) string {
	var parts []string

	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}

	switch {
	case n == 0:
	case n < 10:
		parts = append(parts, ones[n])
	case n < 20:
		parts = append(parts, teens[n-10])
	default:
		parts = append(parts, tens[n/10])
		if n%10 != 0 {
			parts = append(parts, ones[n%10])
		}
	}

	return strings.Join(parts, " ")
}
