// Package naming maps raw colors to the methodology's eye and hair color
// names.
//
// Each classifier is an ordered rule table evaluated top to bottom; the first
// matching rule wins. The tables are heuristics with no accuracy metric behind
// them, so the order and thresholds are kept exactly as defined.
package naming

import (
	"github.com/ironsheep/coloring-mcp/internal/colormath"
)

// Rule maps a predicate over a color to a name.
type Rule struct {
	Name  string
	Match func(colormath.Sample) bool
}

// pick returns the first matching rule's name.
func pick(rules []Rule, s colormath.Sample) string {
	for _, r := range rules {
		if r.Match(s) {
			return r.Name
		}
	}
	return ""
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// EyeRules is the eye color decision table. It branches on raw channel
// values. The final rule always matches.
var EyeRules = []Rule{
	{"amber", func(s colormath.Sample) bool {
		return s.R > 150 && s.G > 100 && s.B < 100
	}},
	{"jade", func(s colormath.Sample) bool {
		return greenDominant(s) && s.G > 150
	}},
	{"olive", greenDominant},
	{"sapphire", func(s colormath.Sample) bool {
		return blueDominant(s) && s.B > 150
	}},
	{"steel_blue", blueDominant},
	{"charcoal", func(s colormath.Sample) bool {
		return nearGray(s) && s.R < 100
	}},
	{"silver", nearGray},
	{"chocolate_brown", func(s colormath.Sample) bool {
		return s.R < 150
	}},
	{"golden_brown", func(colormath.Sample) bool { return true }},
}

func greenDominant(s colormath.Sample) bool { return s.G > s.R && s.G > s.B }
func blueDominant(s colormath.Sample) bool  { return s.B > s.R && s.B > s.G }

func nearGray(s colormath.Sample) bool {
	r, g, b := int(s.R), int(s.G), int(s.B)
	return absInt(r-g) < 30 && absInt(g-b) < 30
}

// hairBand is one luminance band of the hair table. Below the upper bound the
// warmth split picks between two names; a nil split always picks yes.
type hairBand struct {
	below float64
	split func(warmth float64) bool
	yes   string
	no    string
}

// hairBands is ordered darkest first; a color brighter than every bound falls
// through to the platinum/champagne rule.
var hairBands = []hairBand{
	{0.15, func(w float64) bool { return w < 0 }, "blue_black", "soft_black"},
	{0.25, nil, "espresso", ""},
	{0.35, func(w float64) bool { return w < 0.1 }, "dark_chocolate", "auburn"},
	{0.45, func(w float64) bool { return w < 0.15 }, "chestnut", "copper"},
	{0.55, func(w float64) bool { return w > 0.1 }, "caramel", "mousy_brown"},
	{0.7, func(w float64) bool { return w > 0.1 }, "golden_blonde", "ash_blonde"},
	{2, func(w float64) bool { return w < 0.05 }, "platinum", "champagne"},
}

// HairRules is the hair color decision table expanded to one rule per name.
var HairRules = buildHairRules(hairBands)

func buildHairRules(bands []hairBand) []Rule {
	rules := make([]Rule, 0, len(bands)*2)
	for _, b := range bands {
		if b.split == nil {
			rules = append(rules, Rule{b.yes, func(s colormath.Sample) bool {
				return s.Luminance() < b.below
			}})
			continue
		}
		rules = append(rules,
			Rule{b.yes, func(s colormath.Sample) bool {
				return s.Luminance() < b.below && b.split(s.Warmth())
			}},
			Rule{b.no, func(s colormath.Sample) bool {
				return s.Luminance() < b.below
			}},
		)
	}
	return rules
}

// ClassifyEye names an eye color.
func ClassifyEye(s colormath.Sample) string {
	return pick(EyeRules, s)
}

// ClassifyHair names a hair color.
func ClassifyHair(s colormath.Sample) string {
	return pick(HairRules, s)
}

// ClassifyEyeHex parses hex and names it as an eye color.
func ClassifyEyeHex(hex string) (string, error) {
	s, err := colormath.ParseHex(hex)
	if err != nil {
		return "", err
	}
	return ClassifyEye(s), nil
}

// ClassifyHairHex parses hex and names it as a hair color.
func ClassifyHairHex(hex string) (string, error) {
	s, err := colormath.ParseHex(hex)
	if err != nil {
		return "", err
	}
	return ClassifyHair(s), nil
}
