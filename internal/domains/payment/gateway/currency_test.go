package gateway

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{name: "EUR cents", amount: "115.00", currency: "EUR", want: 11500},
		{name: "USD fraction", amount: "320.5", currency: "USD", want: 32050},
		{name: "half cent truncated", amount: "10.005", currency: "USD", want: 1000},
		{name: "JPY unchanged", amount: "4700", currency: "JPY", want: 4700},
		{name: "VND unchanged", amount: "250000", currency: "VND", want: 250000},
		{name: "lower case code", amount: "1500", currency: "krw", want: 1500},
		{name: "zero decimal drops fraction", amount: "99.9", currency: "XOF", want: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToMinorUnits(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsZeroDecimalCurrency(t *testing.T) {
	for _, code := range []string{"BIF", "XAF", "XPF", "CLP", "KMF", "DJF", "GNF", "JPY",
		"MGA", "PYG", "RWF", "KRW", "VUV", "VND", "XOF"} {
		assert.True(t, IsZeroDecimalCurrency(code), code)
	}

	for _, code := range []string{"EUR", "USD", "GBP", ""} {
		assert.False(t, IsZeroDecimalCurrency(code), code)
	}
}
