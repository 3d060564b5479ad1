// Package ledger derives counterparty statements and the balance sheet from
// stored invoices and transactions. Nothing here is persisted: every call
// recomputes its output from the inputs.
package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/model"
)

// KeyMode selects how invoices and deposits are matched to a counterparty.
type KeyMode int

const (
	// KeyByName matches on the party name alone.
	KeyByName KeyMode = iota
	// KeyByNameAndTaxID matches on name and GSTIN together.
	KeyByNameAndTaxID
)

// ParseKeyMode parses "name" or "name+gstin".
func ParseKeyMode(s string) (KeyMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return KeyByName, true
	case "name+gstin", "name+taxid":
		return KeyByNameAndTaxID, true
	}
	return KeyByName, false
}

type key struct {
	name  string
	taxID string
}

func keyFor(p model.Party, mode KeyMode) key {
	k := key{name: strings.ToLower(strings.TrimSpace(p.Name))}
	if mode == KeyByNameAndTaxID {
		k.taxID = strings.ToUpper(strings.TrimSpace(p.TaxID))
	}
	return k
}

// Statement is the reconciled ledger of one counterparty.
type Statement struct {
	Counterparty     model.Party
	Entries          []model.LedgerEntry
	RemainingBalance decimal.Decimal // positive: counterparty owes
}

// Owes reports whether the counterparty has an amount outstanding.
func (s Statement) Owes() bool { return s.RemainingBalance.IsPositive() }

// Settled reports whether invoices and deposits cancel exactly.
func (s Statement) Settled() bool { return s.RemainingBalance.IsZero() }

// Overpaid reports whether deposits exceed invoices.
func (s Statement) Overpaid() bool { return s.RemainingBalance.IsNegative() }

// item is an invoice or deposit waiting to be ordered.
type item struct {
	date  time.Time
	seq   int // insertion order across invoices then deposits
	entry model.LedgerEntry
}

type group struct {
	party model.Party
	items []item
}

// Reconcile merges invoice debits and deposit credits per counterparty into
// date order and accumulates a running balance. Items without a date keep
// their insertion order after every dated item. Non-deposit transactions are
// ignored here; see BuildBalanceSheet.
//
// Statements are ordered by counterparty name.
func Reconcile(invoices []model.Invoice, txns []model.Transaction, mode KeyMode) []Statement {
	groups := make(map[key]*group)
	var order []key
	lookup := func(p model.Party) *group {
		k := keyFor(p, mode)
		g, ok := groups[k]
		if !ok {
			g = &group{party: model.Party{Name: strings.TrimSpace(p.Name), TaxID: p.TaxID}}
			groups[k] = g
			order = append(order, k)
		}
		if g.party.TaxID == "" {
			g.party.TaxID = p.TaxID
		}
		return g
	}

	seq := 0
	for _, inv := range invoices {
		g := lookup(inv.Buyer)
		g.items = append(g.items, item{
			date: inv.Date,
			seq:  seq,
			entry: model.LedgerEntry{
				Date:        inv.Date,
				Source:      model.SourceInvoice,
				Reference:   inv.Number,
				Description: invoiceDescription(inv),
				Debit:       inv.Total(),
			},
		})
		seq++
	}
	for _, t := range txns {
		if t.Kind != model.KindDeposit {
			continue
		}
		g := lookup(t.Counterparty)
		desc := "Deposit"
		if t.Note != "" {
			desc = "Deposit: " + t.Note
		}
		g.items = append(g.items, item{
			date: t.Date,
			seq:  seq,
			entry: model.LedgerEntry{
				Date:        t.Date,
				Source:      model.SourceDeposit,
				Reference:   t.ID,
				Description: desc,
				Credit:      t.Amount,
			},
		})
		seq++
	}

	out := make([]Statement, 0, len(order))
	for _, k := range order {
		out = append(out, buildStatement(groups[k]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Counterparty, out[j].Counterparty
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.TaxID < b.TaxID
	})
	return out
}

func buildStatement(g *group) Statement {
	sort.SliceStable(g.items, func(i, j int) bool {
		a, b := g.items[i], g.items[j]
		if a.date.IsZero() != b.date.IsZero() {
			return !a.date.IsZero()
		}
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		return a.seq < b.seq
	})

	balance := decimal.Zero
	entries := make([]model.LedgerEntry, len(g.items))
	for i, it := range g.items {
		e := it.entry
		balance = balance.Add(e.Debit).Sub(e.Credit)
		e.Balance = balance
		entries[i] = e
	}
	return Statement{Counterparty: g.party, Entries: entries, RemainingBalance: balance}
}

func invoiceDescription(inv model.Invoice) string {
	if inv.Number == "" {
		return "Invoice"
	}
	return "Invoice " + inv.Number
}

// Outstanding returns the statements whose counterparty still owes money.
// Settled and overpaid counterparties are dropped.
func Outstanding(statements []Statement) []Statement {
	var out []Statement
	for _, s := range statements {
		if s.Owes() {
			out = append(out, s)
		}
	}
	return out
}

// TotalOutstanding sums the positive balances.
func TotalOutstanding(statements []Statement) decimal.Decimal {
	total := decimal.Zero
	for _, s := range statements {
		if s.Owes() {
			total = total.Add(s.RemainingBalance)
		}
	}
	return total
}

// Find returns the statement for name, matched case-insensitively.
func Find(statements []Statement, name string) (Statement, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, s := range statements {
		if strings.ToLower(s.Counterparty.Name) == want {
			return s, true
		}
	}
	return Statement{}, false
}
