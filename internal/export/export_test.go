package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gstbook-dev/gstbook/internal/ledger"
	"github.com/gstbook-dev/gstbook/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleBooks() ([]model.Invoice, []model.Transaction) {
	day := func(n int) time.Time { return time.Date(2025, 5, n, 0, 0, 0, 0, time.UTC) }
	invoices := []model.Invoice{
		{Number: "01-2025/2026", Date: day(1), Buyer: model.Party{Name: "Acme"}, Tax: model.TaxBreakdown{TotalWithTax: d("1000")}},
		{Number: "02-2025/2026", Date: day(3), Buyer: model.Party{Name: "Zen/Co"}, Tax: model.TaxBreakdown{TotalWithTax: d("100")}},
	}
	txns := []model.Transaction{
		{ID: "t1", Kind: model.KindDeposit, Direction: model.DirectionCredit, Counterparty: model.Party{Name: "Acme"}, Amount: d("300"), Date: day(2)},
		{ID: "t2", Kind: model.KindDeposit, Direction: model.DirectionCredit, Counterparty: model.Party{Name: "Zen/Co"}, Amount: d("150"), Date: day(4)},
		{ID: "t3", Kind: model.KindOther, Direction: model.DirectionCredit, Category: "loan", Counterparty: model.Party{Name: "HDFC"}, Amount: d("5000"), Date: day(5)},
		{ID: "t4", Kind: model.KindCompany, Direction: model.DirectionDebit, Counterparty: model.Party{Name: "Infosys"}, Amount: d("700"), Date: day(6)},
	}
	return invoices, txns
}

func TestStatements(t *testing.T) {
	invoices, txns := sampleBooks()
	statements := ledger.Reconcile(invoices, txns, ledger.KeyByName)

	path := filepath.Join(t.TempDir(), "statements.xlsx")
	require.NoError(t, Statements(path, statements))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Outstanding", "Acme", "Zen_Co"}, f.GetSheetList())

	summary, err := f.GetRows("Outstanding")
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, "Counterparty", summary[0][0])
	assert.Equal(t, "Acme", summary[1][0])
	assert.Equal(t, "owes", summary[1][3])
	assert.Equal(t, "overpaid", summary[2][3])
	assert.Equal(t, "Total owed", summary[3][0])

	acme, err := f.GetRows("Acme")
	require.NoError(t, err)
	require.Len(t, acme, 3)
	assert.Equal(t, "2025-05-01", acme[1][0])
	assert.Equal(t, "01-2025/2026", acme[1][2])
	assert.Equal(t, "deposit", acme[2][1])
}

func TestBalanceSheet(t *testing.T) {
	invoices, txns := sampleBooks()
	sheet := ledger.BuildBalanceSheet(invoices, txns, ledger.KeyByName)

	path := filepath.Join(t.TempDir(), "balance.xlsx")
	require.NoError(t, BalanceSheet(path, sheet))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Receivable", "Operating", "Totals"}, f.GetSheetList())

	receivable, err := f.GetRows("Receivable")
	require.NoError(t, err)
	require.Len(t, receivable, 3, "overpaid counterparty left out")
	assert.Equal(t, "Acme", receivable[1][0])

	operating, err := f.GetRows("Operating")
	require.NoError(t, err)
	require.Len(t, operating, 3)
	assert.Equal(t, []string{"other", "loan", "HDFC"}, operating[1][:3])
	assert.Equal(t, "credit", operating[1][6])
	assert.Equal(t, "debit", operating[2][6])

	totals, err := f.GetRows("Totals")
	require.NoError(t, err)
	require.Len(t, totals, 3)
	assert.Equal(t, "other", totals[1][0])
	assert.Equal(t, "company", totals[2][0])
}

func TestUniqueSheetNames(t *testing.T) {
	w := newWorkbook()
	defer w.f.Close()

	assert.Equal(t, "Acme", w.uniqueName("Acme"))
	assert.Equal(t, "Acme (2)", w.uniqueName("acme"))
	assert.Equal(t, "Unnamed", w.uniqueName("  "))

	long := w.uniqueName("A Very Long Counterparty Name Private Limited")
	assert.Len(t, []rune(long), maxSheetName)
}
