package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// fallbackPriceUSD is used for symbols missing from the table.
const fallbackPriceUSD = 1.0

// Prices is a static symbol to USD price table. It is not a market feed.
type Prices map[string]float64

// DefaultPrices returns the nominal prices used for USD estimation.
func DefaultPrices() Prices {
	return Prices{
		"SOL":  98.0,
		"USDC": 1.0,
		"USDT": 1.0,
		"BONK": 0.000025,
		"JUP":  0.85,
	}
}

// USD returns the unit price of symbol.
func (p Prices) USD(symbol string) float64 {
	if price, ok := p[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return price
	}
	return fallbackPriceUSD
}

// Estimate converts an amount of symbol into USD.
func (p Prices) Estimate(symbol string, amount float64) float64 {
	return amount * p.USD(symbol)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundUSD rounds a dollar figure to cents.
func RoundUSD(v float64) float64 {
	return Round(v, 2)
}
