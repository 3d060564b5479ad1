package model

import "github.com/shopspring/decimal"

// RoundUnits rounds to whole currency units, half away from zero.
func RoundUnits(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// RoundPaise rounds to two decimal places.
func RoundPaise(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
