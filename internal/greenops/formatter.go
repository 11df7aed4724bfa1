package greenops

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer is the locale-aware message printer for number formatting.
// Uses English locale for consistent thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators.
// Example: FormatNumber(18248) returns "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatKg formats a kg CO2 amount with thousand separators and the given
// number of decimals. Example: FormatKg(1234.567, 1) returns "1,234.6 kg".
func FormatKg(kg float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df kg", precision), kg)
}

// FormatSignedKg formats a kg CO2 delta with an explicit sign.
// Example: FormatSignedKg(12.5, 1) returns "+12.5 kg".
func FormatSignedKg(delta float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	const base = 10
	multiplier := math.Pow(base, float64(precision))
	if math.Round(delta*multiplier) > 0 {
		return "+" + FormatKg(delta, precision)
	}
	return FormatKg(delta, precision)
}

// FormatLarge formats large numbers with abbreviated notation.
//
// Values at or above LargeNumberThreshold use "~X.X million" format and values
// at or above BillionThreshold use "~X.X billion".
func FormatLarge(n float64) string {
	if n >= BillionThreshold {
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	}
	if n >= LargeNumberThreshold {
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	}
	return FormatNumber(int64(math.Round(n)))
}
