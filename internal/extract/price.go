package extract

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/law-makers/laptops/pkg/models"
)

// Reasons recorded on prices that could not be parsed
const (
	ReasonNoDigits     = "no digits"
	ReasonMultipleDots = "multiple decimal points"
	ReasonParseFailure = "parse error"
)

// NormalizePrice strips everything but digits and decimal points from raw and
// parses the remainder. Unparseable input is kept as text together with the
// reason, so callers can tell "Call for price" from a missing price.
//
// A dot directly after a letter ("Rs.") belongs to a currency abbreviation and
// is not a decimal point. Such a dot between two numbers means the text holds
// more than one price, which is not a number.
func NormalizePrice(raw Field) models.Price {
	if !raw.Present {
		return models.Price{}
	}

	var (
		stripped  strings.Builder
		candidate strings.Builder
		digits    bool
		currency  bool
		multiple  bool
		prev      rune
	)
	for _, r := range raw.Value {
		switch {
		case isDigit(r):
			if currency {
				multiple = true
			}
			digits = true
			stripped.WriteRune(r)
			candidate.WriteRune(r)
		case r == '.':
			stripped.WriteRune(r)
			if unicode.IsLetter(prev) {
				currency = currency || digits
			} else {
				candidate.WriteRune(r)
			}
		}
		prev = r
	}

	if !digits {
		return models.TextPrice(stripped.String(), ReasonNoDigits)
	}
	if multiple {
		return models.TextPrice(stripped.String(), ReasonMultipleDots)
	}
	num := strings.TrimRight(candidate.String(), ".")
	if strings.Count(num, ".") > 1 {
		return models.TextPrice(stripped.String(), ReasonMultipleDots)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return models.TextPrice(stripped.String(), ReasonParseFailure)
	}
	return models.NumericPrice(v)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
