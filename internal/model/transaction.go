package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes buyer deposits from operating transactions.
type TransactionKind string

const (
	KindDeposit TransactionKind = "deposit"
	KindOther   TransactionKind = "other"
	KindCompany TransactionKind = "company"
)

// Direction is the side of an operating transaction.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Transaction is a deposit or operating credit/debit tied to a counterparty.
type Transaction struct {
	ID           string
	Kind         TransactionKind
	Direction    Direction // deposits are always credits
	Category     string    // other_type for KindOther, e.g. "loan", "partner"
	Counterparty Party
	Amount       decimal.Decimal // always positive
	Date         time.Time
	Note         string
}

// IsCredit reports whether the transaction reduces what the counterparty owes.
func (t Transaction) IsCredit() bool {
	return t.Kind == KindDeposit || t.Direction == DirectionCredit
}
