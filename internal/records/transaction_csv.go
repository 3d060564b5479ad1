package records

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/model"
)

// TransactionHeader is the CSV header for books/transactions.csv.
const TransactionHeader = "id,kind,direction,category,counterparty,tax_id,amount,date,note"

const (
	transactionFields = 9
	colTxID           = 0
	colTxKind         = 1
	colTxDirection    = 2
	colTxCategory     = 3
	colTxCparty       = 4
	colTxTaxID        = 5
	colTxAmount       = 6
	colTxDate         = 7
	colTxNote         = 8
)

// ReadTransactions reads all transactions from a transactions.csv reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = transactionFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var out []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// AppendTransactions appends transactions to an existing writer (no header).
func AppendTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing transaction %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, transactionFields)
	row[colTxID] = t.ID
	row[colTxKind] = string(t.Kind)
	row[colTxDirection] = string(t.Direction)
	row[colTxCategory] = t.Category
	row[colTxCparty] = t.Counterparty.Name
	row[colTxTaxID] = t.Counterparty.TaxID
	row[colTxAmount] = t.Amount.StringFixed(2)
	row[colTxDate] = formatDate(t.Date)
	row[colTxNote] = t.Note
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(rec []string) (model.Transaction, error) {
	if len(rec) != transactionFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", transactionFields, len(rec))
	}

	amount, err := decimal.NewFromString(rec[colTxAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rec[colTxAmount], err)
	}
	date, err := parseDate(rec[colTxDate])
	if err != nil {
		return model.Transaction{}, err
	}

	return model.Transaction{
		ID:           rec[colTxID],
		Kind:         model.TransactionKind(rec[colTxKind]),
		Direction:    model.Direction(rec[colTxDirection]),
		Category:     rec[colTxCategory],
		Counterparty: model.Party{Name: rec[colTxCparty], TaxID: rec[colTxTaxID]},
		Amount:       amount,
		Date:         date,
		Note:         rec[colTxNote],
	}, nil
}
