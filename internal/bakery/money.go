package bakery

import "github.com/shopspring/decimal"

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// cents rounds to two decimal places for storage and display.
func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(v float64) string {
	return money(v).StringFixed(2)
}
