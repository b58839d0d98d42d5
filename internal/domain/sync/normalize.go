package sync

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// minorUnitsPerMajor is the conversion factor between the CRM's display
// currency and stored minor units.
const minorUnitsPerMajor = 100

// ParsePrice converts a CRM locale price string (e.g. "5 000 ₸",
// "1 500,50 ₸") into integer minor currency units. Thousands separators
// (regular, non-breaking and narrow non-breaking spaces) and currency
// symbols are stripped; a trailing comma fraction is treated as the
// decimal separator. Negative and non-numeric input is rejected with a
// ParseError on the price field.
func ParsePrice(text string) (int64, error) {
	cleaned := stripPriceNoise(text)
	if cleaned == "" {
		return 0, NewParseError("price", text)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, NewParseError("price", text)
	}
	if amount.IsNegative() {
		return 0, NewParseError("price", text)
	}

	minor := amount.Mul(decimal.NewFromInt(minorUnitsPerMajor))
	if !minor.IsInteger() {
		// Fractions below one minor unit cannot come from a valid CRM
		// price string.
		return 0, NewParseError("price", text)
	}
	return minor.IntPart(), nil
}

// stripPriceNoise removes separators and currency symbols, keeping
// digits, the sign and at most one decimal point
func stripPriceNoise(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',':
			// Locale decimal separator
			b.WriteRune('.')
		case r == ' ', r == ' ', r == ' ':
			// Thousands separators
		case unicode.IsSymbol(r) || unicode.IsLetter(r):
			// Currency symbols and unit names ("₸", "тг", "KZT")
		default:
		}
	}
	return b.String()
}

// ParseDimension extracts the leading numeric token from a CRM
// dimension string like "65 см" and returns it as an integer.
// Empty or non-numeric input is rejected with a ParseError.
func ParseDimension(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, NewParseError("size", text)
	}

	value, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return 0, NewParseError("size", text)
	}
	return value, nil
}

// EnabledFromFlag maps the CRM's availability flag onto the canonical
// enabled flag. Kept as an explicit function so the mapping stays in
// one place even though it is currently the identity.
func EnabledFromFlag(isAvailable bool) bool {
	return isAvailable
}

// FlagFromAny maps source-specific truthy encodings (bool, numeric,
// "1"/"true"/"yes") onto a canonical bool. Unknown encodings are
// rejected with a ParseError on the named field.
func FlagFromAny(field string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y":
			return true, nil
		case "0", "false", "no", "n", "":
			return false, nil
		}
	}
	return false, NewParseError(field, toParseInput(value))
}

func toParseInput(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
