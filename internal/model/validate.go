package model

import (
	"fmt"
	"strings"

	"github.com/gstbook-dev/gstbook/internal/id"
)

// GSTINLength is the length of an Indian GST identification number.
const GSTINLength = 15

// ValidationError describes a single rule an invoice breaks.
type ValidationError struct {
	Rule        int
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rule %d [%s]: %s", e.Rule, e.Field, e.Description)
}

// ValidateGSTIN checks a GSTIN when one is given. Empty is allowed.
func ValidateGSTIN(gstin string) error {
	gstin = strings.TrimSpace(gstin)
	if gstin != "" && len(gstin) != GSTINLength {
		return fmt.Errorf("GSTIN %q must be exactly %d characters", gstin, GSTINLength)
	}
	return nil
}

// ValidateInvoice enforces the invoice rules on a computed invoice.
func ValidateInvoice(inv Invoice) []ValidationError {
	var errs []ValidationError
	tax := inv.Tax

	// Rule 1: Tax split. Domestic invoices never carry both central+state
	// and integrated; foreign invoices carry none. A domestic invoice may
	// carry neither when its tax rounds to zero paise.
	hasSplit := !tax.Central.IsZero() || !tax.State.IsZero()
	hasIntegrated := !tax.Integrated.IsZero()
	if inv.IsDomestic() {
		if hasSplit && hasIntegrated {
			errs = append(errs, ValidationError{
				Rule:        1,
				Field:       "tax",
				Description: "domestic invoice must carry either central+state or integrated tax, not both",
			})
		}
	} else if hasSplit || hasIntegrated {
		errs = append(errs, ValidationError{
			Rule:        1,
			Field:       "tax",
			Description: fmt.Sprintf("foreign invoice to %q must not carry GST", inv.Country),
		})
	}

	// Rule 2: Central and state halves are equal.
	if !tax.Central.Equal(tax.State) {
		errs = append(errs, ValidationError{
			Rule:        2,
			Field:       "tax",
			Description: fmt.Sprintf("central (%s) != state (%s)", tax.Central.StringFixed(2), tax.State.StringFixed(2)),
		})
	}

	// Rule 3: Totals add up.
	sum := tax.Central.Add(tax.State).Add(tax.Integrated)
	if !sum.Equal(tax.TotalTax) {
		errs = append(errs, ValidationError{
			Rule:        3,
			Field:       "total_tax",
			Description: fmt.Sprintf("components (%s) != total tax (%s)", sum.StringFixed(2), tax.TotalTax.StringFixed(2)),
		})
	}
	wantTotal := RoundUnits(inv.Base.Add(tax.TotalTax))
	if !tax.TotalWithTax.Equal(wantTotal) {
		errs = append(errs, ValidationError{
			Rule:        3,
			Field:       "total_with_tax",
			Description: fmt.Sprintf("total %s != round(base + tax) %s", tax.TotalWithTax.StringFixed(2), wantTotal.StringFixed(2)),
		})
	}

	// Rule 4: GSTINs have the right length.
	if err := ValidateGSTIN(inv.Buyer.TaxID); err != nil {
		errs = append(errs, ValidationError{Rule: 4, Field: "buyer_gst", Description: err.Error()})
	}
	if err := ValidateGSTIN(inv.Consignee.TaxID); err != nil {
		errs = append(errs, ValidationError{Rule: 4, Field: "consignee_gst", Description: err.Error()})
	}

	// Rule 5: Invoice number belongs to the invoice's financial year.
	if inv.Number != "" {
		_, fy, err := id.ParseInvoiceNumber(inv.Number)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{Rule: 5, Field: "invoice_number", Description: err.Error()})
		case fy != inv.FinancialYear:
			errs = append(errs, ValidationError{
				Rule:        5,
				Field:       "invoice_number",
				Description: fmt.Sprintf("number %s not in financial year %s", inv.Number, inv.FinancialYear),
			})
		}
	}

	// Rule 6: A positive taxable base.
	if !inv.Base.IsPositive() {
		errs = append(errs, ValidationError{
			Rule:        6,
			Field:       "base_amount",
			Description: fmt.Sprintf("base amount %s must be positive", inv.Base.String()),
		})
	}

	// Rule 7: ISO 4217 currency code.
	if !isCurrencyCode(inv.Currency) {
		errs = append(errs, ValidationError{
			Rule:        7,
			Field:       "currency",
			Description: fmt.Sprintf("currency %q is not an ISO 4217 code", inv.Currency),
		})
	}

	return errs
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
