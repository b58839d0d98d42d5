package sync

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// pricePrinter groups digits the way the CRM displays prices. Kazakh
// locale grouping uses a non-breaking space every three digits.
var pricePrinter = message.NewPrinter(language.Kazakh)

// FormatPrice renders integer minor currency units in the CRM's display
// convention ("5 000 ₸"). The inverse of ParsePrice for whole amounts;
// fractional amounts keep two decimals ("1 500,50 ₸").
func FormatPrice(minor int64) string {
	major := minor / minorUnitsPerMajor
	fraction := minor % minorUnitsPerMajor
	if fraction < 0 {
		fraction = -fraction
	}

	if fraction == 0 {
		return pricePrinter.Sprintf("%d ₸", major)
	}
	return pricePrinter.Sprintf("%d,%02d ₸", major, fraction)
}
