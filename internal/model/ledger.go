package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntrySource records what produced a ledger entry.
type EntrySource string

const (
	SourceInvoice EntrySource = "invoice"
	SourceDeposit EntrySource = "deposit"
)

// LedgerEntry is one derived line of a counterparty statement.
type LedgerEntry struct {
	Date        time.Time
	Source      EntrySource
	Reference   string // invoice number or transaction ID
	Description string
	Debit       decimal.Decimal // zero if credit side
	Credit      decimal.Decimal // zero if debit side
	Balance     decimal.Decimal // running balance after this entry
}
