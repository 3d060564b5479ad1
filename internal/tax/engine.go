package tax

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/model"
)

const (
	// DefaultHomeState is the seller's registered state.
	DefaultHomeState = "Gujarat"
	// DefaultRate is the combined GST rate in percent.
	DefaultRate = 18
)

var hundred = decimal.NewFromInt(100)

// Facts are the invoice inputs the engine needs. Base takes precedence;
// Hours × Rate is used only when Base is absent or not positive.
type Facts struct {
	Country string
	State   string
	Base    decimal.NullDecimal
	Hours   decimal.NullDecimal
	Rate    decimal.NullDecimal
}

// Result is a computed tax breakdown along with the base it was computed on.
type Result struct {
	Jurisdiction Jurisdiction
	Base         decimal.Decimal
	model.TaxBreakdown
}

type ruleKey struct {
	domestic  bool
	homeState bool
}

type rule func(base, rate decimal.Decimal) model.TaxBreakdown

// rules is the whole tax policy, keyed by (isDomestic, isHomeState).
var rules = map[ruleKey]rule{
	{domestic: false, homeState: false}: foreignRule,
	{domestic: true, homeState: true}:   intraStateRule,
	{domestic: true, homeState: false}:  interStateRule,
}

// Engine derives GST for an invoice from its jurisdiction.
type Engine struct {
	homeState string
	rate      decimal.Decimal // percent
}

// NewEngine creates an Engine for a seller registered in homeState charging
// rate percent combined GST.
func NewEngine(homeState string, rate decimal.Decimal) *Engine {
	return &Engine{homeState: strings.TrimSpace(homeState), rate: rate}
}

// DefaultEngine returns an Engine for Gujarat at 18%.
func DefaultEngine() *Engine {
	return NewEngine(DefaultHomeState, decimal.NewFromInt(DefaultRate))
}

// HomeState returns the seller's registered state.
func (e *Engine) HomeState() string { return e.homeState }

// ResolveBase returns the taxable base from the facts.
func (e *Engine) ResolveBase(f Facts) (decimal.Decimal, error) {
	if f.Base.Valid && f.Base.Decimal.IsPositive() {
		return f.Base.Decimal, nil
	}
	if f.Hours.Valid && f.Rate.Valid && f.Hours.Decimal.IsPositive() && f.Rate.Decimal.IsPositive() {
		return f.Hours.Decimal.Mul(f.Rate.Decimal), nil
	}
	return decimal.Zero, &MissingAmountError{Country: f.Country}
}

// Compute returns the tax breakdown for the facts.
func (e *Engine) Compute(f Facts) (Result, error) {
	base, err := e.ResolveBase(f)
	if err != nil {
		return Result{}, err
	}

	j := Resolve(f.Country, f.State)
	key := ruleKey{domestic: j.IsDomestic()}
	if j.IsDomestic() {
		key.homeState = strings.EqualFold(j.State(), e.homeState)
	}

	return Result{
		Jurisdiction: j,
		Base:         base,
		TaxBreakdown: rules[key](base, e.rate),
	}, nil
}

func foreignRule(base, _ decimal.Decimal) model.TaxBreakdown {
	return model.TaxBreakdown{
		TotalWithTax: model.RoundUnits(base),
		LUT:          true,
	}
}

func intraStateRule(base, rate decimal.Decimal) model.TaxBreakdown {
	half := model.RoundPaise(base.Mul(rate).Div(hundred).Div(decimal.NewFromInt(2)))
	total := half.Add(half)
	return model.TaxBreakdown{
		Central:      half,
		State:        half,
		TotalTax:     total,
		TotalWithTax: model.RoundUnits(base.Add(total)),
	}
}

func interStateRule(base, rate decimal.Decimal) model.TaxBreakdown {
	integrated := model.RoundPaise(base.Mul(rate).Div(hundred))
	return model.TaxBreakdown{
		Integrated:   integrated,
		TotalTax:     integrated,
		TotalWithTax: model.RoundUnits(base.Add(integrated)),
	}
}
