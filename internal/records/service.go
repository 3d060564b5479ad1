// Package records keeps the books: invoices and transactions as CSV files
// under the project root.
package records

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gstbook-dev/gstbook/internal/model"
)

const (
	booksDir         = "books"
	invoicesFile     = "invoices.csv"
	transactionsFile = "transactions.csv"
)

// Service reads and appends the books.
type Service struct {
	repoRoot string
}

// NewService creates a records Service rooted at repoRoot.
func NewService(repoRoot string) *Service {
	return &Service{repoRoot: repoRoot}
}

// InvoicesPath returns the path of books/invoices.csv.
func (s *Service) InvoicesPath() string {
	return filepath.Join(s.repoRoot, booksDir, invoicesFile)
}

// TransactionsPath returns the path of books/transactions.csv.
func (s *Service) TransactionsPath() string {
	return filepath.Join(s.repoRoot, booksDir, transactionsFile)
}

// AppendInvoice validates inv and appends it to the books. An ID is
// assigned when empty. A non-provisional number already present in the
// books is rejected.
func (s *Service) AppendInvoice(inv model.Invoice) (model.Invoice, error) {
	if verrs := model.ValidateInvoice(inv); len(verrs) > 0 {
		return model.Invoice{}, validationFailed(verrs)
	}

	existing, err := s.Invoices()
	if err != nil {
		return model.Invoice{}, err
	}
	if !inv.Provisional {
		for _, e := range existing {
			if !e.Provisional && e.Number == inv.Number {
				return model.Invoice{}, fmt.Errorf("invoice number %s already in the books", inv.Number)
			}
		}
	}

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	err = s.appendRows(s.InvoicesPath(), InvoiceHeader, func(w io.Writer) error {
		return AppendInvoices(w, []model.Invoice{inv})
	})
	if err != nil {
		return model.Invoice{}, fmt.Errorf("appending invoice %s: %w", inv.Number, err)
	}
	return inv, nil
}

// Invoices returns every invoice in file order. A missing file yields nil.
func (s *Service) Invoices() ([]model.Invoice, error) {
	f, err := os.Open(s.InvoicesPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening invoices: %w", err)
	}
	defer f.Close()

	invoices, err := ReadInvoices(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.InvoicesPath(), err)
	}
	return invoices, nil
}

// InvoicesForYear returns the invoices of one financial year.
func (s *Service) InvoicesForYear(fy string) ([]model.Invoice, error) {
	all, err := s.Invoices()
	if err != nil {
		return nil, err
	}
	var out []model.Invoice
	for _, inv := range all {
		if inv.FinancialYear == fy {
			out = append(out, inv)
		}
	}
	return out, nil
}

// AppendTransaction checks t and appends it to the books. An ID is assigned
// when empty.
func (s *Service) AppendTransaction(t model.Transaction) (model.Transaction, error) {
	t = NormalizeTransaction(t)
	if err := CheckTransaction(t); err != nil {
		return model.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	err := s.appendRows(s.TransactionsPath(), TransactionHeader, func(w io.Writer) error {
		return AppendTransactions(w, []model.Transaction{t})
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("appending transaction: %w", err)
	}
	return t, nil
}

// Transactions returns every transaction in file order.
func (s *Service) Transactions() ([]model.Transaction, error) {
	f, err := os.Open(s.TransactionsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	txns, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.TransactionsPath(), err)
	}
	return txns, nil
}

// NormalizeTransaction lower-cases kind and direction and forces deposits
// onto the credit side.
func NormalizeTransaction(t model.Transaction) model.Transaction {
	t.Kind = model.TransactionKind(strings.ToLower(strings.TrimSpace(string(t.Kind))))
	t.Direction = model.Direction(strings.ToLower(strings.TrimSpace(string(t.Direction))))
	t.Counterparty.Name = strings.TrimSpace(t.Counterparty.Name)
	if t.Kind == model.KindDeposit {
		t.Direction = model.DirectionCredit
	}
	return t
}

// CheckTransaction reports the first problem with t.
func CheckTransaction(t model.Transaction) error {
	switch t.Kind {
	case model.KindDeposit, model.KindOther, model.KindCompany:
	default:
		return fmt.Errorf("unknown transaction kind %q", t.Kind)
	}
	if t.Direction != model.DirectionCredit && t.Direction != model.DirectionDebit {
		return fmt.Errorf("transaction direction must be credit or debit, got %q", t.Direction)
	}
	if t.Counterparty.Name == "" {
		return errors.New("transaction counterparty is required")
	}
	if t.Kind == model.KindOther && strings.TrimSpace(t.Category) == "" {
		return errors.New("other transactions need a category")
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive, got %s", t.Amount)
	}
	if t.Counterparty.TaxID != "" {
		if err := model.ValidateGSTIN(t.Counterparty.TaxID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) appendRows(path, header string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating books dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	return write(f)
}

func validationFailed(verrs []model.ValidationError) error {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}
