// Package export writes statements and the balance sheet as xlsx workbooks.
package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/gstbook-dev/gstbook/internal/ledger"
	"github.com/gstbook-dev/gstbook/internal/model"
)

const (
	summarySheet    = "Outstanding"
	receivableSheet = "Receivable"
	operatingSheet  = "Operating"
	totalsSheet     = "Totals"
	dateFormat      = "2006-01-02"
	maxSheetName    = 31
)

var (
	summaryHeader   = []interface{}{"Counterparty", "GSTIN", "Balance", "Status"}
	entryHeader     = []interface{}{"Date", "Source", "Reference", "Description", "Debit", "Credit", "Balance"}
	operatingHeader = []interface{}{"Kind", "Category", "Name", "Credit", "Debit", "Net", "Side"}
	totalsHeader    = []interface{}{"Kind", "Credit", "Debit", "Net"}
)

// workbook wraps an excelize file whose first sheet has been renamed.
type workbook struct {
	f     *excelize.File
	names map[string]bool
	first bool
}

func newWorkbook() *workbook {
	return &workbook{f: excelize.NewFile(), names: make(map[string]bool), first: true}
}

// sheet adds a sheet named after name, made unique and legal, and writes rows.
func (w *workbook) sheet(name string, rows [][]interface{}) (string, error) {
	name = w.uniqueName(name)
	if w.first {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return "", fmt.Errorf("naming sheet %q: %w", name, err)
		}
		w.first = false
	} else if _, err := w.f.NewSheet(name); err != nil {
		return "", fmt.Errorf("adding sheet %q: %w", name, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", err
		}
		if err := w.f.SetSheetRow(name, cell, &row); err != nil {
			return "", fmt.Errorf("writing %s row %d: %w", name, i+1, err)
		}
	}
	return name, nil
}

func (w *workbook) uniqueName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Unnamed"
	}
	name = truncate(name, maxSheetName)

	candidate := name
	for i := 2; w.names[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncate(name, maxSheetName-len([]rune(suffix))) + suffix
	}
	w.names[strings.ToLower(candidate)] = true
	return candidate
}

func (w *workbook) save(path string) error {
	defer w.f.Close()
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Statements writes an Outstanding summary sheet followed by one sheet per
// counterparty listing its ledger entries.
func Statements(path string, statements []ledger.Statement) error {
	w := newWorkbook()

	rows := [][]interface{}{summaryHeader}
	for _, s := range statements {
		rows = append(rows, []interface{}{
			s.Counterparty.Name,
			s.Counterparty.TaxID,
			amount(s.RemainingBalance),
			status(s),
		})
	}
	rows = append(rows, []interface{}{"Total owed", "", amount(ledger.TotalOutstanding(statements)), ""})
	if _, err := w.sheet(summarySheet, rows); err != nil {
		return err
	}

	for _, s := range statements {
		if _, err := w.sheet(s.Counterparty.Name, entryRows(s)); err != nil {
			return err
		}
	}
	return w.save(path)
}

// BalanceSheet writes the receivable, operating and totals sheets.
func BalanceSheet(path string, sheet ledger.BalanceSheet) error {
	w := newWorkbook()

	rows := [][]interface{}{summaryHeader}
	for _, s := range ledger.Outstanding(sheet.Statements) {
		rows = append(rows, []interface{}{s.Counterparty.Name, s.Counterparty.TaxID, amount(s.RemainingBalance), status(s)})
	}
	rows = append(rows, []interface{}{"Total", "", amount(sheet.Receivable()), ""})
	if _, err := w.sheet(receivableSheet, rows); err != nil {
		return err
	}

	rows = [][]interface{}{operatingHeader}
	for _, g := range sheet.Groups {
		rows = append(rows, []interface{}{
			string(g.Kind), g.Category, g.Name,
			amount(g.Credit), amount(g.Debit), amount(g.Net()), side(g.Net()),
		})
	}
	if _, err := w.sheet(operatingSheet, rows); err != nil {
		return err
	}

	rows = [][]interface{}{totalsHeader}
	for _, kind := range []model.TransactionKind{model.KindOther, model.KindCompany} {
		t, ok := sheet.Totals[kind]
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{string(kind), amount(t.Credit), amount(t.Debit), amount(t.Net())})
	}
	if _, err := w.sheet(totalsSheet, rows); err != nil {
		return err
	}
	return w.save(path)
}

func entryRows(s ledger.Statement) [][]interface{} {
	rows := [][]interface{}{entryHeader}
	for _, e := range s.Entries {
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.Format(dateFormat)
		}
		rows = append(rows, []interface{}{
			date,
			string(e.Source),
			e.Reference,
			e.Description,
			optional(e.Debit),
			optional(e.Credit),
			amount(e.Balance),
		})
	}
	return rows
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func optional(d decimal.Decimal) interface{} {
	if d.IsZero() {
		return nil
	}
	return amount(d)
}

func status(s ledger.Statement) string {
	switch {
	case s.Owes():
		return "owes"
	case s.Overpaid():
		return "overpaid"
	default:
		return "settled"
	}
}

func side(net decimal.Decimal) string {
	switch {
	case net.IsPositive():
		return "credit"
	case net.IsNegative():
		return "debit"
	default:
		return ""
	}
}
