package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FinancialYear returns the financial year label for t, like "2025/2026".
// The label follows the calendar year of t; there is no April cutoff.
func FinancialYear(t time.Time) string {
	y := t.Year()
	return fmt.Sprintf("%04d/%04d", y, y+1)
}

// ParseFinancialYear parses "2025/2026" and returns the starting year.
func ParseFinancialYear(fy string) (int, error) {
	parts := strings.SplitN(fy, "/", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid financial year format: %q", fy)
	}

	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid start year in financial year %q: %w", fy, err)
	}

	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid end year in financial year %q: %w", fy, err)
	}

	if end != start+1 {
		return 0, fmt.Errorf("financial year %q must span consecutive years", fy)
	}
	return start, nil
}

// FormatInvoiceNumber returns an invoice number like "07-2025/2026".
func FormatInvoiceNumber(seq int64, fy string) string {
	return fmt.Sprintf("%02d-%s", seq, fy)
}

// ParseInvoiceNumber parses "07-2025/2026" into its sequence and financial year.
func ParseInvoiceNumber(number string) (seq int64, fy string, err error) {
	prefix, rest, ok := strings.Cut(strings.TrimSpace(number), "-")
	if !ok {
		return 0, "", fmt.Errorf("invalid invoice number format: %q", number)
	}

	seq, err = strconv.ParseInt(strings.TrimSpace(prefix), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid sequence in invoice number %q: %w", number, err)
	}
	if seq < 1 {
		return 0, "", fmt.Errorf("invalid sequence in invoice number %q: must be positive", number)
	}

	if _, err := ParseFinancialYear(rest); err != nil {
		return 0, "", fmt.Errorf("invoice number %q: %w", number, err)
	}
	return seq, rest, nil
}
