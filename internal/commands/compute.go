package commands

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gstbook-dev/gstbook/internal/currency"
	"github.com/gstbook-dev/gstbook/internal/tax"
	"github.com/gstbook-dev/gstbook/internal/words"
)

func newTaxCommand() *cobra.Command {
	var repoDir, country, state, base, hours, rate string

	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Compute GST for an amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(repoDir, true)
			if err != nil {
				return err
			}
			defer a.Close()

			facts := tax.Facts{Country: country, State: state}
			if facts.Base, err = parseOptionalAmount("base", base); err != nil {
				return err
			}
			if facts.Hours, err = parseOptionalAmount("hours", hours); err != nil {
				return err
			}
			if facts.Rate, err = parseOptionalAmount("rate", rate); err != nil {
				return err
			}
			return runTax(cmd.OutOrStdout(), a.engine(), facts)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&country, "country", "India", "buyer country")
	cmd.Flags().StringVar(&state, "state", "", "buyer state (domestic only)")
	cmd.Flags().StringVar(&base, "base", "", "taxable base amount")
	cmd.Flags().StringVar(&hours, "hours", "", "billed hours, used with --rate when --base is absent")
	cmd.Flags().StringVar(&rate, "rate", "", "hourly rate")

	return cmd
}

func runTax(w io.Writer, engine *tax.Engine, facts tax.Facts) error {
	res, err := engine.Compute(facts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Jurisdiction: %s\n", res.Jurisdiction)
	fmt.Fprintf(w, "Base:         %s\n", money(res.Base))
	fmt.Fprintf(w, "CGST:         %s\n", money(res.Central))
	fmt.Fprintf(w, "SGST:         %s\n", money(res.State))
	fmt.Fprintf(w, "IGST:         %s\n", money(res.Integrated))
	fmt.Fprintf(w, "Total tax:    %s\n", money(res.TotalTax))
	fmt.Fprintf(w, "Total:        %s\n", money(res.TotalWithTax))
	if res.LUT {
		fmt.Fprintln(w, "Declared under LUT")
	}
	return nil
}

func newConvertCommand() *cobra.Command {
	var repoDir, code, amount string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a foreign amount to the home currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(repoDir, true)
			if err != nil {
				return err
			}
			defer a.Close()

			amt, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}

			conv := a.converter().Convert(cmd.Context(), amt, code)
			printConversion(cmd.OutOrStdout(), amt, a.cfg.Business.HomeCurrency, conv)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&code, "currency", "", "ISO 4217 currency code (required)")
	_ = cmd.MarkFlagRequired("currency")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in --currency (required)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// printConversion shows amount in its own currency next to the home
// currency figure, or the native amount alone when no rate was available.
func printConversion(w io.Writer, amount decimal.Decimal, home string, conv currency.Conversion) {
	switch {
	case conv.Currency == home:
		fmt.Fprintf(w, "%s %s\n", money(conv.Amount), home)
	case conv.IsConverted:
		fmt.Fprintf(w, "%s %s = %s %s (1 %s = %s %s)\n",
			money(amount), conv.Currency, money(conv.Amount), home, conv.Currency, conv.Rate.Round(4).String(), home)
	default:
		fmt.Fprintf(w, "%s %s (exchange rate unavailable: %v)\n", money(amount), conv.Currency, conv.Err)
	}
}

func newWordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words <amount>",
		Short: "Spell an amount in words with Indian grouping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount("amount", args[0])
			if err != nil {
				return err
			}
			text, err := words.ToWords(amt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	return cmd
}
