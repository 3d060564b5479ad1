package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gstbook-dev/gstbook/internal/export"
	"github.com/gstbook-dev/gstbook/internal/ledger"
	"github.com/gstbook-dev/gstbook/internal/model"
)

func newStatementCommand() *cobra.Command {
	var repoDir, counterparty, xlsxPath, keyMode string
	var outstanding bool

	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Show counterparty ledgers with running balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := ledger.ParseKeyMode(keyMode)
			if !ok {
				return fmt.Errorf("--key must be name or name+gstin, got %q", keyMode)
			}
			a, err := openApp(repoDir, false)
			if err != nil {
				return err
			}
			defer a.Close()

			invoices, txns, err := loadBooks(a)
			if err != nil {
				return err
			}

			statements := ledger.Reconcile(invoices, txns, mode)
			a.log.Debug().Int("invoices", len(invoices)).Int("transactions", len(txns)).Int("counterparties", len(statements)).Msg("reconciled")

			if counterparty != "" {
				s, ok := ledger.Find(statements, counterparty)
				if !ok {
					return fmt.Errorf("no invoices or deposits for %q", counterparty)
				}
				statements = []ledger.Statement{s}
			}
			if outstanding {
				statements = ledger.Outstanding(statements)
			}

			if xlsxPath != "" {
				if err := export.Statements(xlsxPath, statements); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", xlsxPath)
				return nil
			}
			return printStatements(cmd.OutOrStdout(), statements)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&repoDir, "repo", ".", "repository directory")
	flags.StringVar(&counterparty, "counterparty", "", "only this counterparty")
	flags.BoolVar(&outstanding, "outstanding", false, "only counterparties that still owe")
	flags.StringVar(&xlsxPath, "xlsx", "", "write an xlsx workbook instead of printing")
	flags.StringVar(&keyMode, "key", "name", "match counterparties by name or name+gstin")

	return cmd
}

func loadBooks(a *app) ([]model.Invoice, []model.Transaction, error) {
	invoices, err := a.books.Invoices()
	if err != nil {
		return nil, nil, err
	}
	txns, err := a.books.Transactions()
	if err != nil {
		return nil, nil, err
	}
	return invoices, txns, nil
}

func printStatements(w io.Writer, statements []ledger.Statement) error {
	if len(statements) == 0 {
		fmt.Fprintln(w, "No statements.")
		return nil
	}

	for i, s := range statements {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := s.Counterparty.Name
		if s.Counterparty.TaxID != "" {
			title += " (" + s.Counterparty.TaxID + ")"
		}
		fmt.Fprintln(w, title)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "DATE\tREFERENCE\tDEBIT\tCREDIT\tBALANCE\t")
		for _, e := range s.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
				formatDate(e.Date), e.Reference, blankZero(e.Debit.IsZero(), money(e.Debit)),
				blankZero(e.Credit.IsZero(), money(e.Credit)), money(e.Balance))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "Remaining balance: %s\n", money(s.RemainingBalance))
	}
	return nil
}

func blankZero(zero bool, s string) string {
	if zero {
		return ""
	}
	return s
}

func newBalanceSheetCommand() *cobra.Command {
	var repoDir, xlsxPath, keyMode string

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Show receivables and operating transactions by type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := ledger.ParseKeyMode(keyMode)
			if !ok {
				return fmt.Errorf("--key must be name or name+gstin, got %q", keyMode)
			}
			a, err := openApp(repoDir, false)
			if err != nil {
				return err
			}
			defer a.Close()

			invoices, txns, err := loadBooks(a)
			if err != nil {
				return err
			}
			sheet := ledger.BuildBalanceSheet(invoices, txns, mode)

			if xlsxPath != "" {
				if err := export.BalanceSheet(xlsxPath, sheet); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", xlsxPath)
				return nil
			}
			return printBalanceSheet(cmd.OutOrStdout(), sheet)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an xlsx workbook instead of printing")
	cmd.Flags().StringVar(&keyMode, "key", "name", "match counterparties by name or name+gstin")
	return cmd
}

func printBalanceSheet(w io.Writer, sheet ledger.BalanceSheet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "RECEIVABLE\t\t")
	for _, s := range ledger.Outstanding(sheet.Statements) {
		fmt.Fprintf(tw, "  %s\t%s\t\n", s.Counterparty.Name, money(s.RemainingBalance))
	}
	fmt.Fprintf(tw, "  Total\t%s\t\n", money(sheet.Receivable()))

	printSide := func(title string, groups []ledger.Group) {
		fmt.Fprintf(tw, "%s\t\t\n", title)
		for _, g := range groups {
			label := string(g.Kind) + ": " + g.Name
			if g.Category != "" {
				label = g.Category + ": " + g.Name
			}
			fmt.Fprintf(tw, "  %s\t%s\t\n", label, money(g.Net().Abs()))
		}
	}
	printSide("CREDIT", sheet.CreditSide())
	printSide("DEBIT", sheet.DebitSide())

	fmt.Fprintln(tw, "TOTALS\tCREDIT\tDEBIT")
	for _, kind := range []model.TransactionKind{model.KindOther, model.KindCompany} {
		t := sheet.Totals[kind]
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", kind, money(t.Credit), money(t.Debit))
	}
	return tw.Flush()
}
