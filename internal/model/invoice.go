package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HomeCountry is the only country whose invoices carry GST.
const HomeCountry = "India"

// Party identifies a buyer, consignee or other counterparty.
type Party struct {
	Name  string
	TaxID string // GSTIN, empty for foreign parties
}

// TaxBreakdown is the tax computed for a taxable base.
// Domestic invoices never carry both Central+State and Integrated, and carry
// neither only when the tax rounds to zero; all are zero for foreign ones.
type TaxBreakdown struct {
	Central      decimal.Decimal
	State        decimal.Decimal
	Integrated   decimal.Decimal
	TotalTax     decimal.Decimal
	TotalWithTax decimal.Decimal // rounded to whole units
	LUT          bool            // export under Letter of Undertaking
}

// Invoice is a submitted tax invoice.
type Invoice struct {
	ID            string
	Number        string // "07-2025/2026"
	FinancialYear string // "2025/2026"
	Date          time.Time
	Buyer         Party
	Consignee     Party
	Country       string
	State         string // empty for foreign invoices
	Currency      string // ISO 4217
	HSNCode       string
	Hours         decimal.Decimal // zero when billed by base amount
	Rate          decimal.Decimal
	Base          decimal.Decimal
	Tax           TaxBreakdown
	Remark        string
	Provisional   bool // number issued without the counter store
}

// Total returns the invoice total including tax.
func (inv Invoice) Total() decimal.Decimal {
	return inv.Tax.TotalWithTax
}

// IsDomestic reports whether the invoice is billed inside the home country.
func (inv Invoice) IsDomestic() bool {
	return IsHomeCountry(inv.Country)
}

// IsHomeCountry reports whether country names the home country.
func IsHomeCountry(country string) bool {
	return strings.EqualFold(strings.TrimSpace(country), HomeCountry)
}
