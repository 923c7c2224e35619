// Package facebox decides where the skin and hair sampling regions sit in a
// portrait.
//
// The default Fixed locator always returns the canonical boxes. Vision asks
// an Ollama vision model for the face bounding box and derives the regions
// from it, falling back to another locator when the model is unavailable or
// finds no face.
package facebox

import (
	"context"
	"image"

	"github.com/ironsheep/coloring-mcp/internal/features"
)

// Box is a normalized (0-1) bounding box: top-left corner plus size.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Regions are the sampling boxes chosen for one image.
type Regions struct {
	Skin   features.RegionBox `json:"skin"`
	Hair   features.RegionBox `json:"hair"`
	Source string             `json:"source"` // "fixed" or "vision"
	Face   *Box               `json:"face,omitempty"`
}

// Extractor returns a feature extractor sampling these regions.
func (r Regions) Extractor() features.Extractor {
	return features.Extractor{Skin: r.Skin, Hair: r.Hair}
}

// Locator picks the sampling regions for an image.
type Locator interface {
	Locate(ctx context.Context, img image.Image) (Regions, error)
}

// Fixed returns the same regions for every image. The zero value uses the
// canonical boxes.
type Fixed struct {
	Skin features.RegionBox
	Hair features.RegionBox
}

// Locate implements Locator.
func (f Fixed) Locate(context.Context, image.Image) (Regions, error) {
	skin, hair := f.Skin, f.Hair
	if skin.IsZero() {
		skin = features.SkinBox
	}
	if hair.IsZero() {
		hair = features.HairBox
	}
	return Regions{Skin: skin, Hair: hair, Source: "fixed"}, nil
}

// Fractions of the face box used for each region.
const (
	skinLeft, skinRight = 0.25, 0.75
	skinTop, skinBottom = 0.40, 0.75

	hairLeft, hairRight = 0.20, 0.80
	hairAbove           = 0.15 // band starts this far above the face top
	hairInto            = 0.05 // and ends this far inside it
)

// RegionsFromFace derives skin and hair boxes from a detected face: the skin
// box is the cheek band inside the face and the hair box straddles the top of
// the face. Both are clamped to the image.
func RegionsFromFace(face Box) Regions {
	face = face.clamped()

	skin := features.RegionBox{
		Left:   face.X + skinLeft*face.W,
		Top:    face.Y + skinTop*face.H,
		Right:  face.X + skinRight*face.W,
		Bottom: face.Y + skinBottom*face.H,
	}
	hair := features.RegionBox{
		Left:   face.X + hairLeft*face.W,
		Top:    clamp(face.Y-hairAbove*face.H, 0, 1),
		Right:  face.X + hairRight*face.W,
		Bottom: face.Y + hairInto*face.H,
	}

	return Regions{Skin: skin, Hair: hair, Source: "vision", Face: &face}
}

// Valid reports whether the box has positive area inside the unit square.
func (b Box) Valid() bool {
	c := b.clamped()
	return c.W > 0 && c.H > 0
}

func (b Box) clamped() Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
