package features

import (
	"math"

	"github.com/ironsheep/coloring-mcp/internal/taxonomy"
)

// Bin cut points. One consistent set is used everywhere; see DESIGN.md for
// why the alternate ingestion-analyzer set was not merged in.
const (
	warmAbove        = 0.12
	coolBelow        = -0.05
	warmNeutralAbove = 0.05
	coolNeutralBelow = -0.02

	neutralBandConfidence = 0.6
	neutralConfidence     = 0.7

	depthLight       = 0.75
	depthLightMedium = 0.62
	depthMedium      = 0.48
	depthMediumDeep  = 0.32

	contrastHigh       = 0.5
	contrastMediumHigh = 0.38
	contrastMedium     = 0.25
	contrastLowMedium  = 0.12
)

// ClassifyUndertone bins a warmth value. The warm and cool checks run before
// the neutral sub-bands because the ranges overlap at the edges.
func ClassifyUndertone(warmth float64) (taxonomy.Undertone, float64) {
	switch {
	case warmth > warmAbove:
		return taxonomy.Warm, math.Min(warmth*2, 1)
	case warmth < coolBelow:
		return taxonomy.Cool, math.Min(math.Abs(warmth)*2, 1)
	case warmth > warmNeutralAbove:
		return taxonomy.WarmNeutral, neutralBandConfidence
	case warmth < coolNeutralBelow:
		return taxonomy.CoolNeutral, neutralBandConfidence
	default:
		return taxonomy.Neutral, neutralConfidence
	}
}

// ClassifyDepth bins a skin luminance value.
func ClassifyDepth(luminance float64) taxonomy.Depth {
	switch {
	case luminance > depthLight:
		return taxonomy.Light
	case luminance > depthLightMedium:
		return taxonomy.LightMedium
	case luminance > depthMedium:
		return taxonomy.Medium
	case luminance > depthMediumDeep:
		return taxonomy.MediumDeep
	default:
		return taxonomy.Deep
	}
}

// ClassifyContrast bins the absolute skin/hair luminance difference.
func ClassifyContrast(value float64) taxonomy.Contrast {
	value = math.Abs(value)
	switch {
	case value > contrastHigh:
		return taxonomy.HighContrast
	case value > contrastMediumHigh:
		return taxonomy.MediumHighContrast
	case value > contrastMedium:
		return taxonomy.MediumContrast
	case value > contrastLowMedium:
		return taxonomy.LowMediumContrast
	default:
		return taxonomy.LowContrast
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
