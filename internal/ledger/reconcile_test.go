package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstbook-dev/gstbook/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) time.Time { return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC) }

func inv(buyer, number string, date time.Time, total string) model.Invoice {
	return model.Invoice{
		Number: number,
		Date:   date,
		Buyer:  model.Party{Name: buyer, TaxID: "24ABCDE1234F1Z5"},
		Tax:    model.TaxBreakdown{TotalWithTax: dec(total)},
	}
}

func deposit(buyer, txID string, date time.Time, amount string) model.Transaction {
	return model.Transaction{
		ID:           txID,
		Kind:         model.KindDeposit,
		Direction:    model.DirectionCredit,
		Counterparty: model.Party{Name: buyer},
		Amount:       dec(amount),
		Date:         date,
	}
}

func balances(s Statement) []string {
	out := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Balance.String()
	}
	return out
}

func TestReconcile_AcmeRunningBalance(t *testing.T) {
	invoices := []model.Invoice{
		inv("Acme", "02-2025/2026", day(20), "500"),
		inv("Acme", "01-2025/2026", day(1), "1000"),
	}
	txns := []model.Transaction{deposit("Acme", "tx-1", day(10), "300")}

	got := Reconcile(invoices, txns, KeyByName)
	require.Len(t, got, 1)

	acme := got[0]
	assert.Equal(t, "Acme", acme.Counterparty.Name)
	assert.Equal(t, []string{"1000", "700", "1200"}, balances(acme))
	assert.True(t, acme.RemainingBalance.Equal(dec("1200")))
	assert.True(t, acme.Owes())

	assert.Equal(t, model.SourceInvoice, acme.Entries[0].Source)
	assert.Equal(t, "01-2025/2026", acme.Entries[0].Reference)
	assert.Equal(t, model.SourceDeposit, acme.Entries[1].Source)
	assert.True(t, acme.Entries[1].Credit.Equal(dec("300")))
	assert.True(t, acme.Entries[1].Debit.IsZero())
}

func TestReconcile_OverpaidExcludedFromOutstanding(t *testing.T) {
	invoices := []model.Invoice{
		inv("Acme", "01-2025/2026", day(1), "1000"),
		inv("Zen", "02-2025/2026", day(2), "400"),
		inv("Even", "03-2025/2026", day(3), "250"),
	}
	txns := []model.Transaction{
		deposit("Zen", "tx-1", day(4), "600"),
		deposit("Even", "tx-2", day(5), "250"),
	}

	all := Reconcile(invoices, txns, KeyByName)
	require.Len(t, all, 3)

	zen, ok := Find(all, "zen")
	require.True(t, ok)
	assert.True(t, zen.RemainingBalance.Equal(dec("-200")))
	assert.True(t, zen.Overpaid())

	even, ok := Find(all, "Even")
	require.True(t, ok)
	assert.True(t, even.Settled())

	owed := Outstanding(all)
	require.Len(t, owed, 1)
	assert.Equal(t, "Acme", owed[0].Counterparty.Name)
	assert.True(t, TotalOutstanding(all).Equal(dec("1000")))
}

func TestReconcile_TiesKeepInsertionOrder(t *testing.T) {
	invoices := []model.Invoice{
		inv("Acme", "01-2025/2026", day(1), "100"),
		inv("Acme", "02-2025/2026", day(1), "200"),
	}
	txns := []model.Transaction{
		deposit("Acme", "tx-1", day(1), "50"),
		deposit("Acme", "tx-2", day(1), "25"),
	}

	got := Reconcile(invoices, txns, KeyByName)
	require.Len(t, got, 1)

	var refs []string
	for _, e := range got[0].Entries {
		refs = append(refs, e.Reference)
	}
	assert.Equal(t, []string{"01-2025/2026", "02-2025/2026", "tx-1", "tx-2"}, refs)
	assert.Equal(t, []string{"100", "300", "250", "225"}, balances(got[0]))
}

func TestReconcile_UndatedItemsLast(t *testing.T) {
	invoices := []model.Invoice{
		inv("Acme", "01-2025/2026", time.Time{}, "100"),
		inv("Acme", "02-2025/2026", day(9), "200"),
	}
	txns := []model.Transaction{deposit("Acme", "tx-1", time.Time{}, "50")}

	got := Reconcile(invoices, txns, KeyByName)
	require.Len(t, got, 1)

	var refs []string
	for _, e := range got[0].Entries {
		refs = append(refs, e.Reference)
	}
	assert.Equal(t, []string{"02-2025/2026", "01-2025/2026", "tx-1"}, refs)
}

func TestReconcile_Deterministic(t *testing.T) {
	invoices := []model.Invoice{
		inv("b", "01-2025/2026", day(3), "10"),
		inv("a", "02-2025/2026", day(3), "20"),
		inv("b", "03-2025/2026", day(3), "30"),
	}
	txns := []model.Transaction{deposit("a", "tx-1", day(3), "5")}

	first := Reconcile(invoices, txns, KeyByName)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Reconcile(invoices, txns, KeyByName))
	}
	assert.Equal(t, "a", first[0].Counterparty.Name)
	assert.Equal(t, "b", first[1].Counterparty.Name)
}

func TestReconcile_KeyModes(t *testing.T) {
	a := inv("Acme", "01-2025/2026", day(1), "100")
	b := inv("acme ", "02-2025/2026", day(2), "100")
	b.Buyer.TaxID = "27ZZZZZ9999Z1Z9"

	byName := Reconcile([]model.Invoice{a, b}, nil, KeyByName)
	require.Len(t, byName, 1)
	assert.True(t, byName[0].RemainingBalance.Equal(dec("200")))

	byPair := Reconcile([]model.Invoice{a, b}, nil, KeyByNameAndTaxID)
	assert.Len(t, byPair, 2)
}

func TestReconcile_IgnoresOperatingTransactions(t *testing.T) {
	txns := []model.Transaction{
		{Kind: model.KindOther, Direction: model.DirectionDebit, Category: "loan", Counterparty: model.Party{Name: "Acme"}, Amount: dec("99"), Date: day(1)},
	}
	got := Reconcile([]model.Invoice{inv("Acme", "01-2025/2026", day(1), "100")}, txns, KeyByName)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Entries, 1)
}

func TestParseKeyMode(t *testing.T) {
	tests := []struct {
		in   string
		want KeyMode
		ok   bool
	}{
		{"", KeyByName, true},
		{"name", KeyByName, true},
		{"Name+GSTIN", KeyByNameAndTaxID, true},
		{"gstin", KeyByName, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseKeyMode(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
