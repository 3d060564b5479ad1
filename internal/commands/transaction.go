package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gstbook-dev/gstbook/internal/model"
	"github.com/gstbook-dev/gstbook/internal/records"
)

func newTransactionCommand() *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "transaction",
		Short: "Transaction operations",
	}
	txCmd.AddCommand(newTransactionAddCommand())
	return txCmd
}

func newTransactionAddCommand() *cobra.Command {
	var repoDir, kind, direction, category, counterparty, gstin, amount, date, note string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a deposit or an operating credit/debit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			when, err := parseDate("date", date)
			if err != nil {
				return err
			}

			a, err := openApp(repoDir, false)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.books.AppendTransaction(model.Transaction{
				Kind:         model.TransactionKind(kind),
				Direction:    model.Direction(direction),
				Category:     category,
				Counterparty: model.Party{Name: counterparty, TaxID: gstin},
				Amount:       amt,
				Date:         when,
				Note:         note,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Recorded %s %s of %s for %s (%s)\n", t.Kind, t.Direction, money(t.Amount), t.Counterparty.Name, t.ID)
			if hash := a.commit(fmt.Sprintf("%s: %s %s", t.Kind, t.Counterparty.Name, money(t.Amount)), "books"); hash != "" {
				fmt.Fprintf(w, "Committed %s\n", hash)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&repoDir, "repo", ".", "repository directory")
	flags.StringVar(&kind, "kind", string(model.KindDeposit), "deposit, other or company")
	flags.StringVar(&direction, "direction", string(model.DirectionCredit), "credit or debit (deposits are always credit)")
	flags.StringVar(&category, "category", "", "other_type for --kind other, e.g. loan, partner")
	flags.StringVar(&counterparty, "counterparty", "", "buyer, company or partner name (required)")
	_ = cmd.MarkFlagRequired("counterparty")
	flags.StringVar(&gstin, "gstin", "", "counterparty GSTIN")
	flags.StringVar(&amount, "amount", "", "amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	flags.StringVar(&date, "date", "", "transaction date YYYY-MM-DD")
	flags.StringVar(&note, "note", "", "free-text note")

	return cmd
}

func newImportCommand() *cobra.Command {
	var repoDir, invoicesPath, transactionsPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import invoice and transaction records exported as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if invoicesPath == "" && transactionsPath == "" {
				return fmt.Errorf("nothing to import: pass --invoices and/or --transactions")
			}
			a, err := openApp(repoDir, false)
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			if invoicesPath != "" {
				n, err := importInvoices(a.books, invoicesPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Imported %d invoices\n", n)
			}
			if transactionsPath != "" {
				n, err := importTransactions(a.books, transactionsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Imported %d transactions\n", n)
			}
			if hash := a.commit("import: records", "books"); hash != "" {
				fmt.Fprintf(w, "Committed %s\n", hash)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&invoicesPath, "invoices", "", "JSON array of invoice records")
	cmd.Flags().StringVar(&transactionsPath, "transactions", "", "JSON array of deposit, other and company records")
	return cmd
}

func importInvoices(books *records.Service, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	invoices, err := records.DecodeInvoicesJSON(f)
	if err != nil {
		return 0, err
	}
	for i, inv := range invoices {
		if _, err := books.AppendInvoice(inv); err != nil {
			return i, fmt.Errorf("invoice %s: %w", inv.Number, err)
		}
	}
	return len(invoices), nil
}

func importTransactions(books *records.Service, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txns, err := records.DecodeTransactionsJSON(f)
	if err != nil {
		return 0, err
	}
	for i, t := range txns {
		if _, err := books.AppendTransaction(t); err != nil {
			return i, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return len(txns), nil
}
