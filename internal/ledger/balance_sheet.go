package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/model"
)

// Group aggregates operating transactions sharing kind, category and name.
type Group struct {
	Kind     model.TransactionKind
	Category string // lower-cased other_type; empty for company transactions
	Name     string
	Credit   decimal.Decimal
	Debit    decimal.Decimal
	Count    int
}

// Net is credit minus debit.
func (g Group) Net() decimal.Decimal { return g.Credit.Sub(g.Debit) }

// Totals is the plain credit/debit sum of one transaction kind.
type Totals struct {
	Credit decimal.Decimal
	Debit  decimal.Decimal
}

// Net is credit minus debit.
func (t Totals) Net() decimal.Decimal { return t.Credit.Sub(t.Debit) }

// BalanceSheet holds two independent aggregations: counterparty statements
// built from invoices and deposits, and operating groups built from other
// and company transactions.
type BalanceSheet struct {
	Statements []Statement
	Groups     []Group
	Totals     map[model.TransactionKind]Totals
}

// Receivable is the total still owed by counterparties.
func (b BalanceSheet) Receivable() decimal.Decimal {
	return TotalOutstanding(b.Statements)
}

// CreditSide returns groups with a positive net.
func (b BalanceSheet) CreditSide() []Group {
	var out []Group
	for _, g := range b.Groups {
		if g.Net().IsPositive() {
			out = append(out, g)
		}
	}
	return out
}

// DebitSide returns groups with a negative net.
func (b BalanceSheet) DebitSide() []Group {
	var out []Group
	for _, g := range b.Groups {
		if g.Net().IsNegative() {
			out = append(out, g)
		}
	}
	return out
}

// Categories returns the distinct other_type categories, sorted.
func (b BalanceSheet) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range b.Groups {
		if g.Kind == model.KindOther && !seen[g.Category] {
			seen[g.Category] = true
			out = append(out, g.Category)
		}
	}
	sort.Strings(out)
	return out
}

type groupKey struct {
	kind     model.TransactionKind
	category string
	name     string
}

// BuildBalanceSheet reconciles counterparties and groups the operating
// transactions. Category and name matching ignore case.
func BuildBalanceSheet(invoices []model.Invoice, txns []model.Transaction, mode KeyMode) BalanceSheet {
	sheet := BalanceSheet{
		Statements: Reconcile(invoices, txns, mode),
		Totals:     make(map[model.TransactionKind]Totals),
	}

	index := make(map[groupKey]int)
	for _, t := range txns {
		if t.Kind == model.KindDeposit {
			continue
		}
		k := groupKey{kind: t.Kind, name: strings.ToLower(strings.TrimSpace(t.Counterparty.Name))}
		if t.Kind == model.KindOther {
			k.category = strings.ToLower(strings.TrimSpace(t.Category))
		}

		i, ok := index[k]
		if !ok {
			i = len(sheet.Groups)
			index[k] = i
			sheet.Groups = append(sheet.Groups, Group{
				Kind:     t.Kind,
				Category: k.category,
				Name:     strings.TrimSpace(t.Counterparty.Name),
			})
		}

		g := &sheet.Groups[i]
		tot := sheet.Totals[t.Kind]
		if t.IsCredit() {
			g.Credit = g.Credit.Add(t.Amount)
			tot.Credit = tot.Credit.Add(t.Amount)
		} else {
			g.Debit = g.Debit.Add(t.Amount)
			tot.Debit = tot.Debit.Add(t.Amount)
		}
		g.Count++
		sheet.Totals[t.Kind] = tot
	}

	sort.SliceStable(sheet.Groups, func(i, j int) bool {
		a, b := sheet.Groups[i], sheet.Groups[j]
		if a.Kind != b.Kind {
			return a.Kind > b.Kind // other before company
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return sheet
}
