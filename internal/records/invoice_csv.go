package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/model"
)

// InvoiceHeader is the CSV header for books/invoices.csv.
const InvoiceHeader = "id,number,financial_year,date,buyer_name,buyer_gstin,consignee_name,consignee_gstin,country,state,currency,hsn_code,hours,rate,base,cgst,sgst,igst,total_tax,total_with_tax,lut,provisional,remark"

const (
	invoiceFields   = 23
	dateFormat      = "2006-01-02"
	colInvID        = 0
	colInvNumber    = 1
	colInvFY        = 2
	colInvDate      = 3
	colBuyerName    = 4
	colBuyerGSTIN   = 5
	colConsName     = 6
	colConsGSTIN    = 7
	colCountry      = 8
	colState        = 9
	colCurrency     = 10
	colHSN          = 11
	colHours        = 12
	colRate         = 13
	colBase         = 14
	colCGST         = 15
	colSGST         = 16
	colIGST         = 17
	colTotalTax     = 18
	colTotalWithTax = 19
	colLUT          = 20
	colProvisional  = 21
	colRemark       = 22
)

// ReadInvoices reads all invoices from an invoices.csv reader.
func ReadInvoices(r io.Reader) ([]model.Invoice, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = invoiceFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading invoices CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var out []model.Invoice
	for i, rec := range records[1:] {
		inv, err := UnmarshalInvoice(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// AppendInvoices appends invoices to an existing invoices.csv writer (no header).
func AppendInvoices(w io.Writer, invoices []model.Invoice) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, inv := range invoices {
		if err := cw.Write(MarshalInvoice(inv)); err != nil {
			return fmt.Errorf("writing invoice %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalInvoice converts an Invoice to a CSV row.
func MarshalInvoice(inv model.Invoice) []string {
	row := make([]string, invoiceFields)
	row[colInvID] = inv.ID
	row[colInvNumber] = inv.Number
	row[colInvFY] = inv.FinancialYear
	row[colInvDate] = formatDate(inv.Date)
	row[colBuyerName] = inv.Buyer.Name
	row[colBuyerGSTIN] = inv.Buyer.TaxID
	row[colConsName] = inv.Consignee.Name
	row[colConsGSTIN] = inv.Consignee.TaxID
	row[colCountry] = inv.Country
	row[colState] = inv.State
	row[colCurrency] = inv.Currency
	row[colHSN] = inv.HSNCode
	row[colHours] = optionalAmount(inv.Hours)
	row[colRate] = optionalAmount(inv.Rate)
	row[colBase] = inv.Base.StringFixed(2)
	row[colCGST] = inv.Tax.Central.StringFixed(2)
	row[colSGST] = inv.Tax.State.StringFixed(2)
	row[colIGST] = inv.Tax.Integrated.StringFixed(2)
	row[colTotalTax] = inv.Tax.TotalTax.StringFixed(2)
	row[colTotalWithTax] = inv.Tax.TotalWithTax.StringFixed(2)
	row[colLUT] = strconv.FormatBool(inv.Tax.LUT)
	row[colProvisional] = strconv.FormatBool(inv.Provisional)
	row[colRemark] = inv.Remark
	return row
}

// UnmarshalInvoice converts a CSV row to an Invoice.
func UnmarshalInvoice(rec []string) (model.Invoice, error) {
	if len(rec) != invoiceFields {
		return model.Invoice{}, fmt.Errorf("expected %d fields, got %d", invoiceFields, len(rec))
	}

	date, err := parseDate(rec[colInvDate])
	if err != nil {
		return model.Invoice{}, err
	}

	amounts := make(map[int]decimal.Decimal)
	for _, col := range []int{colHours, colRate, colBase, colCGST, colSGST, colIGST, colTotalTax, colTotalWithTax} {
		if rec[col] == "" {
			amounts[col] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(rec[col])
		if err != nil {
			return model.Invoice{}, fmt.Errorf("parsing %s %q: %w", invoiceColumn(col), rec[col], err)
		}
		amounts[col] = d
	}

	lut, err := parseBool(rec[colLUT])
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parsing lut: %w", err)
	}
	provisional, err := parseBool(rec[colProvisional])
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parsing provisional: %w", err)
	}

	return model.Invoice{
		ID:            rec[colInvID],
		Number:        rec[colInvNumber],
		FinancialYear: rec[colInvFY],
		Date:          date,
		Buyer:         model.Party{Name: rec[colBuyerName], TaxID: rec[colBuyerGSTIN]},
		Consignee:     model.Party{Name: rec[colConsName], TaxID: rec[colConsGSTIN]},
		Country:       rec[colCountry],
		State:         rec[colState],
		Currency:      rec[colCurrency],
		HSNCode:       rec[colHSN],
		Hours:         amounts[colHours],
		Rate:          amounts[colRate],
		Base:          amounts[colBase],
		Tax: model.TaxBreakdown{
			Central:      amounts[colCGST],
			State:        amounts[colSGST],
			Integrated:   amounts[colIGST],
			TotalTax:     amounts[colTotalTax],
			TotalWithTax: amounts[colTotalWithTax],
			LUT:          lut,
		},
		Remark:      rec[colRemark],
		Provisional: provisional,
	}, nil
}

func invoiceColumn(col int) string {
	return strings.Split(InvoiceHeader, ",")[col]
}

func optionalAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
