package money

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultDecimals = 2
	fallbackSymbol  = "$"
)

// Currency mirrors the currency reference record served by the retail API.
type Currency struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Code     string  `json:"code,omitempty"`
	Symbol   string  `json:"symbol"`
	Decimals *int    `json:"decimals,omitempty"`
	Rounding float64 `json:"rounding"`
}

// FractionDigits returns the configured decimals, defaulting to 2.
func (c Currency) FractionDigits() int {
	if c.Decimals == nil || *c.Decimals < 0 {
		return defaultDecimals
	}
	return *c.Decimals
}

// USD is the currency used when no reference data could be loaded.
func USD() Currency {
	decimals := 2
	return Currency{
		ID:       "USD",
		Name:     "US Dollar",
		Code:     "USD",
		Symbol:   "$",
		Decimals: &decimals,
		Rounding: 0.01,
	}
}

var printer = message.NewPrinter(language.English)

// Sanitize coerces NaN and infinities to zero.
func Sanitize(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return amount
}

// Round snaps amount to the currency's rounding increment, half away from zero.
// A nil currency or a non-positive increment leaves the amount untouched.
func Round(amount float64, currency *Currency) float64 {
	amount = Sanitize(amount)
	if currency == nil || currency.Rounding <= 0 || math.IsNaN(currency.Rounding) {
		return amount
	}
	increment := decimal.NewFromFloat(currency.Rounding)
	steps := decimal.NewFromFloat(amount).Div(increment).Round(0)
	rounded, _ := steps.Mul(increment).Float64()
	return rounded
}

// Format renders amount for display: "<symbol> <grouped number>".
func Format(amount float64, currency *Currency) string {
	amount = Sanitize(amount)
	if currency == nil {
		return fallbackSymbol + " " + group(amount, defaultDecimals)
	}
	rounded := Round(amount, currency)
	return currency.Symbol + " " + group(rounded, currency.FractionDigits())
}

// FormatPtr formats an optional amount; nil renders as an empty string.
func FormatPtr(amount *float64, currency *Currency) string {
	if amount == nil {
		return ""
	}
	return Format(*amount, currency)
}

func group(amount float64, decimals int) string {
	// Fixing through decimal keeps 1.005-style inputs from drifting under %f.
	fixed, _ := decimal.NewFromFloat(amount).Round(int32(decimals)).Float64()
	if fixed == 0 {
		fixed = 0 // drop negative zero
	}
	return printer.Sprintf("%.*f", decimals, fixed)
}
