// Package colormath provides the numeric color conversions used by the
// coloring pipeline: hex encoding and parsing, perceived luminance, and the
// red-minus-blue warmth signal.
//
// All functions are pure and safe for concurrent use.
package colormath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrFormat is matched by every FormatError via errors.Is.
var ErrFormat = errors.New("invalid hex color")

// FormatError reports a hex color string that could not be parsed.
type FormatError struct {
	Input string
	Msg   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid hex color %q: %s", e.Input, e.Msg)
}

// Is lets errors.Is(err, ErrFormat) match any FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Sample is an RGB color with 8-bit components.
type Sample struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL space, rounded for display.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// RGB builds a Sample from three channel values.
func RGB(r, g, b uint8) Sample {
	return Sample{R: r, G: g, B: b}
}

// Hex returns the 6-digit lowercase hex form without a leading '#'.
func (s Sample) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", s.R, s.G, s.B)
}

// HexWithHash returns the "#rrggbb" form used for storage and display.
func (s Sample) HexWithHash() string {
	return "#" + s.Hex()
}

// Slice returns the channels as [r, g, b].
func (s Sample) Slice() []int {
	return []int{int(s.R), int(s.G), int(s.B)}
}

// Luminance returns the perceived luminance in [0,1].
func (s Sample) Luminance() float64 {
	return Luminance(s)
}

// Warmth returns the warmth signal in [-1,1]; positive is warm.
func (s Sample) Warmth() float64 {
	return Warmth(s)
}

// HSL converts the sample to HSL using go-colorful.
func (s Sample) HSL() HSLColor {
	h, sat, l := s.colorful().Hsl()
	return HSLColor{H: int(h + 0.5), S: int(sat*100 + 0.5), L: int(l*100 + 0.5)}
}

func (s Sample) colorful() colorful.Color {
	return colorful.Color{R: float64(s.R) / 255.0, G: float64(s.G) / 255.0, B: float64(s.B) / 255.0}
}

// Luminance weights the channels 0.299/0.587/0.114 and normalizes to [0,1].
func Luminance(s Sample) float64 {
	return (0.299*float64(s.R) + 0.587*float64(s.G) + 0.114*float64(s.B)) / 255.0
}

// Warmth is (R-B)/255.
func Warmth(s Sample) float64 {
	return (float64(s.R) - float64(s.B)) / 255.0
}

// Distance returns the CIE76 distance between two samples in Lab space.
func Distance(a, b Sample) float64 {
	return a.colorful().DistanceLab(b.colorful())
}

// ParseHex parses "rrggbb" or "#rrggbb" (any case) into a Sample.
func ParseHex(s string) (Sample, error) {
	digits := strings.TrimPrefix(s, "#")
	if len(digits) != 6 {
		return Sample{}, &FormatError{Input: s, Msg: "expected 6 hex digits"}
	}

	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Sample{}, &FormatError{Input: s, Msg: "non-hex digit"}
	}

	return Sample{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustParseHex is ParseHex for literals known to be valid. It panics otherwise.
func MustParseHex(s string) Sample {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}
