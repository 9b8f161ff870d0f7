// Package numfmt converts amounts and measurements to and from the
// Vietnamese display convention, where "." groups thousands and "," marks
// decimals. Free-form user input may use either separator, so parsing
// resolves the ambiguity heuristically and never fails.
package numfmt

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var locale = language.Vietnamese

// ParseFormattedNumber parses locale-formatted numeric text.
// Unparsable input resolves to 0.
func ParseFormattedNumber(input string) float64 {
	if input == "" || input == "-" {
		return 0
	}

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, input)

	dots := strings.Count(cleaned, ".")
	commas := strings.Count(cleaned, ",")

	switch {
	case dots > 1 || commas > 1:
		cleaned = stripSeparators(cleaned)
	case dots == 1 && commas == 1:
		if strings.Index(cleaned, ",") > strings.Index(cleaned, ".") {
			cleaned = strings.Replace(strings.Replace(cleaned, ".", "", 1), ",", ".", 1)
		} else {
			cleaned = strings.Replace(cleaned, ",", "", 1)
		}
	case commas == 1:
		cleaned = resolveSingle(cleaned, ",")
	case dots == 1:
		cleaned = resolveSingle(cleaned, ".")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// resolveSingle treats a lone separator followed by one or two digits as the
// decimal mark and anything else as a thousands separator.
func resolveSingle(s, sep string) string {
	i := strings.Index(s, sep)
	suffix := s[i+1:]
	if len(suffix) >= 1 && len(suffix) <= 2 && isDigits(suffix) {
		return s[:i] + "." + suffix
	}
	return s[:i] + suffix
}

func stripSeparators(s string) string {
	return strings.NewReplacer(".", "", ",", "").Replace(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatNumber renders v with Vietnamese grouping and at most decimals
// fraction digits. NaN and infinities render as "0".
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	decimals = max(decimals, 0)
	p := message.NewPrinter(locale)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(decimals)))
}

// FormatDecimal renders v with exactly decimals fraction digits.
func FormatDecimal(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	decimals = max(decimals, 0)
	p := message.NewPrinter(locale)
	return p.Sprint(number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// FormatAny formats loosely typed values coming from external records.
// Strings are parsed first; anything non-numeric renders as "0".
func FormatAny(v any, decimals int) string {
	switch x := v.(type) {
	case float64:
		return FormatNumber(x, decimals)
	case float32:
		return FormatNumber(float64(x), decimals)
	case int:
		return FormatNumber(float64(x), decimals)
	case int64:
		return FormatNumber(float64(x), decimals)
	case string:
		return FormatNumber(ParseFormattedNumber(x), decimals)
	default:
		return "0"
	}
}

// RoundCurrency rounds an amount to whole currency units.
func RoundCurrency(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v)
}
