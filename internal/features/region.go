package features

import (
	"errors"
	"fmt"
	"image"
)

// ErrEmptyRegion is matched by every EmptyRegionError via errors.Is.
var ErrEmptyRegion = errors.New("empty region")

// EmptyRegionError reports a region that resolved to zero pixels, which
// happens for images too small for the fractional box.
type EmptyRegionError struct {
	Region string          // "skin" or "hair"
	Rect   image.Rectangle // resolved pixel rectangle
	Width  int             // image width
	Height int             // image height
}

func (e *EmptyRegionError) Error() string {
	return fmt.Sprintf("%s region %v is empty in %dx%d image", e.Region, e.Rect, e.Width, e.Height)
}

// Is lets errors.Is(err, ErrEmptyRegion) match any EmptyRegionError.
func (e *EmptyRegionError) Is(target error) bool {
	return target == ErrEmptyRegion
}

// RegionBox is a fractional (0-1) bounding box within an image.
//
// Left/Top are inclusive and Right/Bottom exclusive once resolved, matching
// the image.Rectangle convention.
type RegionBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Canonical boxes. These are heuristic approximations of where skin and hair
// sit in a centered portrait, not landmark-derived.
var (
	// SkinBox is the central face band.
	SkinBox = RegionBox{Left: 0.30, Top: 0.30, Right: 0.70, Bottom: 0.65}
	// HairBox is the top-of-head band.
	HairBox = RegionBox{Left: 0.25, Top: 0.00, Right: 0.75, Bottom: 0.15}
)

// Resolve converts the box to pixel coordinates for a width x height image.
// Fractions are truncated toward zero and clamped to the image.
func (b RegionBox) Resolve(width, height int) image.Rectangle {
	x0 := clampInt(int(b.Left*float64(width)), 0, width)
	y0 := clampInt(int(b.Top*float64(height)), 0, height)
	x1 := clampInt(int(b.Right*float64(width)), 0, width)
	y1 := clampInt(int(b.Bottom*float64(height)), 0, height)
	return image.Rect(x0, y0, x1, y1)
}

// Validate checks that the fractions lie in [0,1] and describe a
// non-inverted box.
func (b RegionBox) Validate() error {
	for _, v := range []float64{b.Left, b.Top, b.Right, b.Bottom} {
		if v < 0 || v > 1 {
			return fmt.Errorf("region fractions must be between 0 and 1, got %+v", b)
		}
	}
	if b.Left >= b.Right || b.Top >= b.Bottom {
		return fmt.Errorf("region must satisfy left < right and top < bottom, got %+v", b)
	}
	return nil
}

// IsZero reports whether the box is unset.
func (b RegionBox) IsZero() bool {
	return b == RegionBox{}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
