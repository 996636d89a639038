package renderer

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// format returns the string representation of value in currency code.
func format(value decimal.Decimal, code string) string {
	// to get a never nil currency I need to call the Money constructor
	cur := money.New(0, code).Currency()
	frac := int32(cur.Fraction)
	return cur.Formatter().Format(value.Round(frac).Shift(frac).IntPart())
}

// USD formats a dollar amount.
func USD(v decimal.Decimal) string { return format(v, money.USD) }

// CNY formats the yuan equivalent of a dollar amount.
func CNY(v, rate decimal.Decimal) string { return format(v.Mul(rate), money.CNY) }

// Signed prefixes a formatted amount with + when v is positive.
func Signed(v decimal.Decimal, s string) string {
	if v.IsPositive() {
		return "+" + s
	}
	return s
}
