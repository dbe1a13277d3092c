package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// FormatPrice renders a price with two fractional digits, the scale prices are stored with.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
