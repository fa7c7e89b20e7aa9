package models

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, the way the storefront sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney rounds an amount to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SameAmount reports whether two amounts are equal once rounded to cents.
func SameAmount(a, b decimal.Decimal) bool {
	return RoundMoney(a).Equal(RoundMoney(b))
}
