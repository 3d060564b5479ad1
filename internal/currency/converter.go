package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/model"
)

// HomeCurrency is the currency invoices are booked in.
const HomeCurrency = "INR"

// ErrUnknownCurrency is wrapped by RateProviderError when the table has no
// usable rate for the requested code.
var ErrUnknownCurrency = errors.New("no rate for currency")

// RateTable maps a currency code to units of that currency per one home unit.
type RateTable map[string]decimal.Decimal

// Provider fetches the current home-denominated rate table.
type Provider interface {
	Rates(ctx context.Context) (RateTable, error)
}

// RateProviderError reports a failed rate lookup.
type RateProviderError struct {
	Currency string
	Err      error
}

func (e *RateProviderError) Error() string {
	return fmt.Sprintf("rate for %s unavailable: %v", e.Currency, e.Err)
}

func (e *RateProviderError) Unwrap() error { return e.Err }

// Conversion is the outcome of converting a foreign amount to home currency.
// When the provider fails, Rate is 1, IsConverted is false and Err holds the
// *RateProviderError; Amount is then the unconverted input.
type Conversion struct {
	Currency    string
	Amount      decimal.Decimal // home currency
	Rate        decimal.Decimal // home units per one foreign unit
	IsConverted bool
	Err         error
}

// Converter converts invoice amounts to the home currency.
type Converter struct {
	home     string
	provider Provider
	log      zerolog.Logger
}

// NewConverter creates a Converter. provider may be nil, in which case every
// foreign lookup degrades to rate 1.
func NewConverter(home string, provider Provider, log zerolog.Logger) *Converter {
	return &Converter{home: normalize(home), provider: provider, log: log}
}

// Home returns the home currency code.
func (c *Converter) Home() string { return c.home }

// Rate returns how many home units one unit of code is worth.
func (c *Converter) Rate(ctx context.Context, code string) (decimal.Decimal, error) {
	code = normalize(code)
	if code == c.home {
		return decimal.NewFromInt(1), nil
	}
	if c.provider == nil {
		return decimal.Zero, &RateProviderError{Currency: code, Err: errors.New("no rate provider configured")}
	}

	table, err := c.provider.Rates(ctx)
	if err != nil {
		return decimal.Zero, &RateProviderError{Currency: code, Err: err}
	}

	perHome, ok := table[code]
	if !ok || !perHome.IsPositive() {
		return decimal.Zero, &RateProviderError{Currency: code, Err: ErrUnknownCurrency}
	}
	return decimal.NewFromInt(1).Div(perHome), nil
}

// Convert converts amount in code to the home currency. It never fails:
// provider errors fall back to rate 1 and clear IsConverted.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, code string) Conversion {
	code = normalize(code)
	if code == c.home {
		return Conversion{Currency: code, Amount: amount, Rate: decimal.NewFromInt(1)}
	}

	rate, err := c.Rate(ctx, code)
	if err != nil {
		c.log.Warn().Err(err).Str("currency", code).Msg("exchange rate unavailable, showing native amount")
		return Conversion{Currency: code, Amount: amount, Rate: decimal.NewFromInt(1), Err: err}
	}

	return Conversion{
		Currency:    code,
		Amount:      model.RoundPaise(amount.Mul(rate)),
		Rate:        rate,
		IsConverted: true,
	}
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
