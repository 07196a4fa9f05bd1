// internal/domain/weight/parser.go
package weight

import (
	"regexp"
	"strconv"
	"strings"
)

// Measurement represents a parsed product size/weight value
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// DefaultUnit is assumed when a size string carries a bare number or
// nothing parsable at all.
const DefaultUnit = "g"

// Unit tokens ordered longest-first so the alternation never truncates a
// token ("grams" must win over "g").
var unitPattern = `fl\s*oz|kilograms?|kg|grams?|gm|g|millilitres?|milliliters?|ml|litres?|liters?|l|oz`

var (
	measureRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(` + unitPattern + `)\b`)
	numberRegex  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	spaceRegex   = regexp.MustCompile(`\s+`)
)

// Parse extracts a weight measurement from a free-text product size field
// such as "50ml", "1.5 KG" or "200gm".
//
// It never fails: the first number immediately followed by a recognized
// unit token wins; a bare number defaults to grams; anything else degrades
// to a zero measurement. A missing weight must not block checkout.
func Parse(raw string) Measurement {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Measurement{Value: 0, Unit: DefaultUnit}
	}

	if match := measureRegex.FindStringSubmatch(raw); match != nil {
		value, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			return Measurement{Value: value, Unit: normalizeUnit(match[2])}
		}
	}

	// No unit anywhere; fall back to the first bare number as grams.
	if num := numberRegex.FindString(raw); num != "" {
		if value, err := strconv.ParseFloat(num, 64); err == nil {
			return Measurement{Value: value, Unit: DefaultUnit}
		}
	}

	return Measurement{Value: 0, Unit: DefaultUnit}
}

// normalizeUnit lowercases a matched unit token and collapses internal
// whitespace so "FL  OZ" and "fl oz" key the same conversion factor.
func normalizeUnit(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	return spaceRegex.ReplaceAllString(token, " ")
}
