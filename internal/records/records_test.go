package records

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstbook-dev/gstbook/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testInvoice(number string) model.Invoice {
	return model.Invoice{
		Number:        number,
		FinancialYear: "2025/2026",
		Date:          time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Buyer:         model.Party{Name: "Acme Traders", TaxID: "24ABCDE1234F1Z5"},
		Consignee:     model.Party{Name: "Acme Traders", TaxID: "24ABCDE1234F1Z5"},
		Country:       "India",
		State:         "Gujarat",
		Currency:      "INR",
		HSNCode:       "998314",
		Hours:         dec("10"),
		Rate:          dec("100.50"),
		Base:          dec("1005"),
		Tax: model.TaxBreakdown{
			Central:      dec("90.45"),
			State:        dec("90.45"),
			TotalTax:     dec("180.90"),
			TotalWithTax: dec("1186"),
		},
		Remark: "June retainer, phase 2",
	}
}

func TestInvoiceRowRoundTrip(t *testing.T) {
	inv := testInvoice("01-2025/2026")
	inv.ID = "abc"

	got, err := UnmarshalInvoice(MarshalInvoice(inv))
	require.NoError(t, err)

	assert.Equal(t, inv.Number, got.Number)
	assert.Equal(t, inv.Buyer, got.Buyer)
	assert.True(t, got.Date.Equal(inv.Date))
	assert.True(t, got.Hours.Equal(inv.Hours))
	assert.True(t, got.Tax.Central.Equal(inv.Tax.Central))
	assert.True(t, got.Tax.TotalWithTax.Equal(inv.Tax.TotalWithTax))
	assert.Equal(t, inv.Remark, got.Remark)
	assert.False(t, got.Tax.LUT)
}

func TestUnmarshalInvoice_Errors(t *testing.T) {
	row := MarshalInvoice(testInvoice("01-2025/2026"))

	_, err := UnmarshalInvoice(row[:5])
	assert.Error(t, err)

	bad := append([]string(nil), row...)
	bad[colCGST] = "nine"
	_, err = UnmarshalInvoice(bad)
	assert.ErrorContains(t, err, "cgst")

	bad = append([]string(nil), row...)
	bad[colInvDate] = "10/06/2025"
	_, err = UnmarshalInvoice(bad)
	assert.ErrorContains(t, err, "parsing date")
}

func TestService_AppendAndReadInvoices(t *testing.T) {
	svc := NewService(t.TempDir())

	none, err := svc.Invoices()
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := svc.AppendInvoice(testInvoice("01-2025/2026"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second := testInvoice("01-2026/2027")
	second.FinancialYear = "2026/2027"
	_, err = svc.AppendInvoice(second)
	require.NoError(t, err)

	all, err := svc.Invoices()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	year, err := svc.InvoicesForYear("2026/2027")
	require.NoError(t, err)
	require.Len(t, year, 1)
	assert.Equal(t, "01-2026/2027", year[0].Number)

	data, err := os.ReadFile(svc.InvoicesPath())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), InvoiceHeader+"\n"))
}

func TestService_AppendInvoiceRejects(t *testing.T) {
	svc := NewService(t.TempDir())
	_, err := svc.AppendInvoice(testInvoice("01-2025/2026"))
	require.NoError(t, err)

	_, err = svc.AppendInvoice(testInvoice("01-2025/2026"))
	assert.ErrorContains(t, err, "already in the books")

	provisional := testInvoice("01-2025/2026")
	provisional.Provisional = true
	_, err = svc.AppendInvoice(provisional)
	assert.NoError(t, err)

	bad := testInvoice("02-2025/2026")
	bad.Tax.Integrated = dec("10")
	_, err = svc.AppendInvoice(bad)
	assert.ErrorContains(t, err, "validation failed")
}

func TestService_Transactions(t *testing.T) {
	svc := NewService(t.TempDir())

	dep, err := svc.AppendTransaction(model.Transaction{
		Kind:         "Deposit",
		Direction:    model.DirectionDebit,
		Counterparty: model.Party{Name: " Acme Traders "},
		Amount:       dec("300"),
		Date:         time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Note:         "NEFT, ref 889",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DirectionCredit, dep.Direction)
	assert.Equal(t, "Acme Traders", dep.Counterparty.Name)

	_, err = svc.AppendTransaction(model.Transaction{
		Kind:         model.KindOther,
		Direction:    model.DirectionDebit,
		Category:     "loan",
		Counterparty: model.Party{Name: "HDFC"},
		Amount:       dec("1500"),
	})
	require.NoError(t, err)

	got, err := svc.Transactions()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, dep.ID, got[0].ID)
	assert.Equal(t, "NEFT, ref 889", got[0].Note)
	assert.True(t, got[1].Date.IsZero())
	assert.Equal(t, "loan", got[1].Category)
}

func TestCheckTransaction(t *testing.T) {
	valid := model.Transaction{
		Kind:         model.KindCompany,
		Direction:    model.DirectionCredit,
		Counterparty: model.Party{Name: "Infosys"},
		Amount:       dec("10"),
	}
	require.NoError(t, CheckTransaction(valid))

	tests := []struct {
		name   string
		mutate func(*model.Transaction)
		want   string
	}{
		{"kind", func(t *model.Transaction) { t.Kind = "refund" }, "unknown transaction kind"},
		{"direction", func(t *model.Transaction) { t.Direction = "" }, "direction"},
		{"counterparty", func(t *model.Transaction) { t.Counterparty.Name = "" }, "counterparty"},
		{"category", func(t *model.Transaction) { t.Kind = model.KindOther }, "category"},
		{"amount", func(t *model.Transaction) { t.Amount = dec("-1") }, "positive"},
		{"gstin", func(t *model.Transaction) { t.Counterparty.TaxID = "24ABC" }, "15 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			assert.ErrorContains(t, CheckTransaction(tx), tt.want)
		})
	}
}
