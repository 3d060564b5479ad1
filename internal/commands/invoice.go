package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gstbook-dev/gstbook/internal/invoice"
	"github.com/gstbook-dev/gstbook/internal/model"
)

func newInvoiceCommand() *cobra.Command {
	invoiceCmd := &cobra.Command{
		Use:   "invoice",
		Short: "Invoice operations",
	}
	invoiceCmd.AddCommand(
		newInvoiceNumberCommand(),
		newInvoiceCreateCommand(),
		newInvoiceProvisionalCommand(),
	)
	return invoiceCmd
}

func newInvoiceNumberCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "number",
		Short: "Allocate the next invoice number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(repoDir, false)
			if err != nil {
				return err
			}
			defer a.Close()

			alloc, err := a.allocator()
			if err != nil {
				return err
			}
			got := alloc.Allocate(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), got.Number)
			if got.Provisional {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: provisional number, %v\n", got.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	return cmd
}

type invoiceFlags struct {
	buyer, buyerGSTIN         string
	consignee, consigneeGSTIN string
	country, state, currency  string
	base, hours, rate         string
	hsn, date, remark         string
}

func (f *invoiceFlags) draft() (invoice.Draft, error) {
	d := invoice.Draft{
		Buyer:     model.Party{Name: f.buyer, TaxID: f.buyerGSTIN},
		Consignee: model.Party{Name: f.consignee, TaxID: f.consigneeGSTIN},
		Country:   f.country,
		State:     f.state,
		Currency:  f.currency,
		HSNCode:   f.hsn,
		Remark:    f.remark,
	}
	var err error
	if d.Base, err = parseOptionalAmount("base", f.base); err != nil {
		return d, err
	}
	if d.Hours, err = parseOptionalAmount("hours", f.hours); err != nil {
		return d, err
	}
	if d.Rate, err = parseOptionalAmount("rate", f.rate); err != nil {
		return d, err
	}
	if d.Date, err = parseDate("date", f.date); err != nil {
		return d, err
	}
	return d, nil
}

func newInvoiceCreateCommand() *cobra.Command {
	var repoDir string
	var f invoiceFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice, number it and add it to the books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := f.draft()
			if err != nil {
				return err
			}
			a, err := openApp(repoDir, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return runInvoiceCreate(cmd, a, d)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&repoDir, "repo", ".", "repository directory")
	flags.StringVar(&f.buyer, "buyer", "", "buyer name (required)")
	_ = cmd.MarkFlagRequired("buyer")
	flags.StringVar(&f.buyerGSTIN, "buyer-gstin", "", "buyer GSTIN")
	flags.StringVar(&f.consignee, "consignee", "", "consignee name, defaults to the buyer")
	flags.StringVar(&f.consigneeGSTIN, "consignee-gstin", "", "consignee GSTIN")
	flags.StringVar(&f.country, "country", "India", "buyer country")
	flags.StringVar(&f.state, "state", "", "buyer state (domestic only)")
	flags.StringVar(&f.currency, "currency", "", "invoice currency, defaults to the home currency")
	flags.StringVar(&f.base, "base", "", "taxable base amount")
	flags.StringVar(&f.hours, "hours", "", "billed hours, used with --rate when --base is absent")
	flags.StringVar(&f.rate, "rate", "", "hourly rate")
	flags.StringVar(&f.hsn, "hsn", "", "HSN/SAC code")
	flags.StringVar(&f.date, "date", "", "invoice date YYYY-MM-DD, defaults to today")
	flags.StringVar(&f.remark, "remark", "", "free-text remark")

	return cmd
}

func runInvoiceCreate(cmd *cobra.Command, a *app, d invoice.Draft) error {
	alloc, err := a.allocator()
	if err != nil {
		return err
	}
	builder := invoice.NewBuilder(a.engine(), a.converter(), alloc, a.log)

	built, err := builder.Build(cmd.Context(), d)
	if err != nil {
		return err
	}
	inv, err := a.books.AppendInvoice(built.Invoice)
	if err != nil {
		return err
	}
	a.log.Info().Str("number", inv.Number).Str("id", inv.ID).Msg("invoice written")

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Invoice %s for %s\n", inv.Number, inv.Buyer.Name)
	if err := runTaxSummary(w, inv, built.Jurisdiction.String()); err != nil {
		return err
	}
	fmt.Fprintf(w, "In words:     %s Only\n", built.Words)
	if inv.Currency != a.cfg.Business.HomeCurrency {
		fmt.Fprint(w, "Home total:   ")
		printConversion(w, inv.Total(), a.cfg.Business.HomeCurrency, built.Conversion)
	}
	if inv.Provisional {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: provisional number, reconcile with `gstbook invoice provisional`: %v\n", built.Allocation.Err)
	}

	if hash := a.commit("invoice: "+inv.Number, "books", "logs"); hash != "" {
		fmt.Fprintf(w, "Committed %s\n", hash)
	}
	return nil
}

func runTaxSummary(w io.Writer, inv model.Invoice, jurisdiction string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Jurisdiction:\t%s\n", jurisdiction)
	fmt.Fprintf(tw, "Base:\t%s %s\n", money(inv.Base), inv.Currency)
	if inv.IsDomestic() {
		fmt.Fprintf(tw, "CGST:\t%s\n", money(inv.Tax.Central))
		fmt.Fprintf(tw, "SGST:\t%s\n", money(inv.Tax.State))
		fmt.Fprintf(tw, "IGST:\t%s\n", money(inv.Tax.Integrated))
	}
	fmt.Fprintf(tw, "Total:\t%s %s\n", money(inv.Total()), inv.Currency)
	if inv.Tax.LUT {
		fmt.Fprintln(tw, "Declared under LUT\t")
	}
	return tw.Flush()
}

func newInvoiceProvisionalCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "provisional",
		Short: "List invoice numbers issued while the counter was unavailable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(repoDir, false)
			if err != nil {
				return err
			}
			defer a.Close()

			allocs, err := a.provisionalLog().Read()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(allocs) == 0 {
				fmt.Fprintln(w, "No provisional invoice numbers.")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ISSUED\tNUMBER\tCAUSE")
			for _, al := range allocs {
				cause := ""
				if al.Err != nil {
					cause = al.Err.Error()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", al.IssuedAt.Format("2006-01-02 15:04"), al.Number, cause)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	return cmd
}
