// internal/domain/weight/converter.go
package weight

// gramFactors maps every recognized unit token to its gram equivalent.
// Liquid volumes are density-approximated 1:1 for cosmetic products,
// which is a documented simplification rather than physical truth.
var gramFactors = map[string]float64{
	"g":           1,
	"gm":          1,
	"gram":        1,
	"grams":       1,
	"kg":          1000,
	"kilogram":    1000,
	"kilograms":   1000,
	"ml":          1,
	"milliliter":  1,
	"milliliters": 1,
	"millilitre":  1,
	"millilitres": 1,
	"l":           1000,
	"liter":       1000,
	"liters":      1000,
	"litre":       1000,
	"litres":      1000,
	"oz":          28.35,
	"fl oz":       29.57,
}

// Factor returns the gram conversion factor for a unit token.
// Unknown units convert 1:1, preserving the non-throwing contract.
func Factor(unit string) (float64, bool) {
	factor, ok := gramFactors[normalizeUnit(unit)]
	if !ok {
		return 1, false
	}
	return factor, true
}

// Grams converts the measurement to grams
func (m Measurement) Grams() float64 {
	factor, _ := Factor(m.Unit)
	return m.Value * factor
}
