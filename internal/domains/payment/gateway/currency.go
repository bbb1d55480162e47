package gateway

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies are charged in whole units, no cents
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "XAF": {}, "XPF": {}, "CLP": {}, "KMF": {}, "DJF": {}, "GNF": {}, "JPY": {},
	"MGA": {}, "PYG": {}, "RWF": {}, "KRW": {}, "VUV": {}, "VND": {}, "XOF": {},
}

var hundred = decimal.NewFromInt(100)

// IsZeroDecimalCurrency reports whether currency (ISO 4217, any case) has no minor unit
func IsZeroDecimalCurrency(currency string) bool {
	_, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// ToMinorUnits converts an amount to the integer the gateway expects.
// Zero-decimal currencies: integer part of the amount, unchanged.
// Others: amount * 100, rounded to 2 places, then truncated.
//
// Example: 115.00 EUR -> 11500, 4700 JPY -> 4700, 10.005 USD -> 1000
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if IsZeroDecimalCurrency(currency) {
		return amount.IntPart()
	}
	return amount.Mul(hundred).Round(2).IntPart()
}
