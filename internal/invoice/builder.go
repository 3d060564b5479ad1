// Package invoice builds submitted invoices from drafts.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/currency"
	"github.com/gstbook-dev/gstbook/internal/model"
	"github.com/gstbook-dev/gstbook/internal/numbering"
	"github.com/gstbook-dev/gstbook/internal/tax"
	"github.com/gstbook-dev/gstbook/internal/words"
)

// DefaultHSNCode is used when a draft carries none.
const DefaultHSNCode = "0000"

// ErrAlreadyNumbered is returned when a draft already carries a number.
// Submitted invoices are never recomputed.
var ErrAlreadyNumbered = errors.New("invoice already has a number")

// Draft holds the facts entered for a new invoice.
type Draft struct {
	Number    string // must be empty
	Date      time.Time
	Buyer     model.Party
	Consignee model.Party // defaults to the buyer
	Country   string
	State     string
	Currency  string
	HSNCode   string
	Base      decimal.NullDecimal
	Hours     decimal.NullDecimal
	Rate      decimal.NullDecimal
	Remark    string
}

// Built is a computed invoice and the figures shown alongside it.
type Built struct {
	Invoice      model.Invoice
	Jurisdiction tax.Jurisdiction
	Words        string              // total in words
	Conversion   currency.Conversion // total in the home currency
	Allocation   numbering.Allocation
}

// Builder composes the tax engine, currency converter and number allocator.
type Builder struct {
	engine    *tax.Engine
	converter *currency.Converter
	allocator *numbering.Allocator
	log       zerolog.Logger
	now       func() time.Time
}

// NewBuilder creates a Builder.
func NewBuilder(engine *tax.Engine, converter *currency.Converter, allocator *numbering.Allocator, log zerolog.Logger) *Builder {
	return &Builder{
		engine:    engine,
		converter: converter,
		allocator: allocator,
		log:       log,
		now:       time.Now,
	}
}

// Build computes tax, checks the invoice, then allocates its number and
// renders the total. Nothing is allocated for a draft that fails checks.
func (b *Builder) Build(ctx context.Context, d Draft) (Built, error) {
	if d.Number != "" {
		return Built{}, fmt.Errorf("%w: %s", ErrAlreadyNumbered, d.Number)
	}

	inv, err := b.compute(d)
	if err != nil {
		return Built{}, err
	}
	if verrs := model.ValidateInvoice(inv); len(verrs) > 0 {
		return Built{}, validationFailed(verrs)
	}

	text, err := words.ToWords(inv.Total())
	if err != nil {
		return Built{}, fmt.Errorf("rendering total for %s: %w", inv.Buyer.Name, err)
	}

	alloc := b.allocator.Allocate(ctx)
	inv.Number = alloc.Number
	inv.FinancialYear = alloc.FinancialYear
	inv.Provisional = alloc.Provisional

	built := Built{
		Invoice:      inv,
		Jurisdiction: tax.Resolve(inv.Country, inv.State),
		Words:        text,
		Conversion:   b.converter.Convert(ctx, inv.Total(), inv.Currency),
		Allocation:   alloc,
	}

	b.log.Info().
		Str("number", inv.Number).
		Str("buyer", inv.Buyer.Name).
		Str("jurisdiction", built.Jurisdiction.String()).
		Str("total", inv.Total().StringFixed(2)).
		Bool("provisional", inv.Provisional).
		Msg("built invoice")
	return built, nil
}

func (b *Builder) compute(d Draft) (model.Invoice, error) {
	for _, p := range []model.Party{d.Buyer, d.Consignee} {
		if err := model.ValidateGSTIN(p.TaxID); err != nil {
			return model.Invoice{}, err
		}
	}
	if strings.TrimSpace(d.Buyer.Name) == "" {
		return model.Invoice{}, errors.New("buyer name is required")
	}

	country := strings.TrimSpace(d.Country)
	if country == "" {
		country = model.HomeCountry
	}
	state := strings.TrimSpace(d.State)
	if !model.IsHomeCountry(country) {
		state = ""
	}

	res, err := b.engine.Compute(tax.Facts{
		Country: country,
		State:   state,
		Base:    d.Base,
		Hours:   d.Hours,
		Rate:    d.Rate,
	})
	if err != nil {
		return model.Invoice{}, err
	}

	date := d.Date
	if date.IsZero() {
		date = b.now()
	}
	consignee := d.Consignee
	if strings.TrimSpace(consignee.Name) == "" {
		consignee = d.Buyer
	}
	code := strings.ToUpper(strings.TrimSpace(d.Currency))
	if code == "" {
		code = b.converter.Home()
	}
	hsn := strings.TrimSpace(d.HSNCode)
	if hsn == "" {
		hsn = DefaultHSNCode
	}

	inv := model.Invoice{
		Date:      date,
		Buyer:     d.Buyer,
		Consignee: consignee,
		Country:   country,
		State:     state,
		Currency:  code,
		HSNCode:   hsn,
		Base:      res.Base,
		Tax:       res.TaxBreakdown,
		Remark:    d.Remark,
	}
	if !d.Base.Valid || !d.Base.Decimal.IsPositive() {
		inv.Hours = d.Hours.Decimal
		inv.Rate = d.Rate.Decimal
	}
	return inv, nil
}

func validationFailed(verrs []model.ValidationError) error {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("invoice check failed: %s", strings.Join(msgs, "; "))
}
