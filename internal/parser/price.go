package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrPriceParse signals that a raw price string could not be reduced to a
// numeric amount. Callers skip the affected product instead of aborting the
// batch.
var ErrPriceParse = errors.New("unparseable price text")

// Currency tokens seen across the regional storefronts. Multi-character
// tokens are stripped before single-character ones so that "US$" never leaves
// a stray "US" behind.
var currencyTokens = []string{
	"US$", "USD", "SEK", "EUR", "GBP", "TRY",
	"TL", "kr", "₺", "$", "£", "€",
}

// PriceParser converts locale-formatted price strings into decimal amounts.
//
// The storefronts render prices with different separator conventions:
//
//	Turkey:  "299,99 TL"
//	US:      "$29.99"
//	UK:      "£29.99"
//	Germany: "1.299,99 €"
//	Sweden:  "299 kr"
type PriceParser struct{}

func NewPriceParser() *PriceParser {
	return &PriceParser{}
}

// Parse returns the decimal amount encoded in text, or an error wrapping
// ErrPriceParse when the text does not reduce to a non-negative number.
func (p *PriceParser) Parse(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty input", ErrPriceParse)
	}

	for _, token := range currencyTokens {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}

	// Whitespace (including the non-breaking kind the Swedish storefront uses
	// for digit grouping) carries no information once the tokens are gone.
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cleaned)

	cleaned = normalizeSeparators(cleaned)

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrPriceParse, text)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative amount in %q", ErrPriceParse, text)
	}

	return amount, nil
}

// normalizeSeparators rewrites locale separator conventions into a plain
// decimal literal. When both '.' and ',' are present the rightmost one is the
// decimal separator and the other is digit grouping ("1.299,99" -> "1299.99",
// "1,299.99" -> "1299.99"). A lone ',' is a decimal separator ("299,99");
// a lone '.' already is one.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	return s
}
