// Package features derives coloring features from a portrait.
//
// Two fractional regions are resolved against the image: a central skin band
// and a top-of-head hair band. Each region is reduced to its dominant color
// (the per-channel mean, rounded), and the skin and hair colors are then
// binned into undertone, depth and contrast labels using fixed thresholds.
//
// Extraction is a pure function of its inputs and is safe for concurrent use.
package features

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"

	"github.com/ironsheep/coloring-mcp/internal/colormath"
	"github.com/ironsheep/coloring-mcp/internal/taxonomy"
)

// ErrPixelBuffer reports a pixel buffer whose size does not match its
// declared dimensions.
var ErrPixelBuffer = errors.New("pixel buffer does not match dimensions")

// Pixels is a packed 8-bit pixel buffer. Channels is 3 (RGB) or 4 (RGBA,
// alpha ignored). Stride is the byte length of one row; zero means
// Width*Channels.
type Pixels struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
	Stride   int
}

func (p Pixels) stride() int {
	if p.Stride > 0 {
		return p.Stride
	}
	return p.Width * p.Channels
}

func (p Pixels) validate() error {
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrPixelBuffer, p.Width, p.Height)
	}
	if p.Channels != 3 && p.Channels != 4 {
		return fmt.Errorf("%w: unsupported channel count %d", ErrPixelBuffer, p.Channels)
	}
	if p.Height == 0 || p.Width == 0 {
		return nil
	}
	need := (p.Height-1)*p.stride() + p.Width*p.Channels
	if len(p.Pix) < need {
		return fmt.Errorf("%w: have %d bytes, need %d for %dx%d", ErrPixelBuffer, len(p.Pix), need, p.Width, p.Height)
	}
	return nil
}

// RegionColor is the dominant color of one region plus its derived values.
type RegionColor struct {
	Hex       string           `json:"hex"`
	RGB       []int            `json:"rgb"`
	Luminance float64          `json:"luminance"`
	Warmth    float64          `json:"warmth"`
	Rect      image.Rectangle  `json:"-"`
	Sample    colormath.Sample `json:"-"`
}

// FeatureSet is the extractor output consumed by the classifier.
type FeatureSet struct {
	SkinHex             string             `json:"skin_hex"`
	SkinRGB             []int              `json:"skin_rgb"`
	HairHex             string             `json:"hair_hex"`
	HairRGB             []int              `json:"hair_rgb"`
	Undertone           taxonomy.Undertone `json:"undertone"`
	UndertoneConfidence float64            `json:"undertone_confidence"`
	WarmthScore         float64            `json:"warmth_score"`
	Depth               taxonomy.Depth     `json:"depth"`
	Luminance           float64            `json:"luminance"`
	ContrastLevel       taxonomy.Contrast  `json:"contrast_level"`
	ContrastValue       float64            `json:"contrast_value"`
	SkinLuminance       float64            `json:"skin_luminance"`
	HairLuminance       float64            `json:"hair_luminance"`
	// SkinHairDeltaE is the CIE76 Lab distance between skin and hair. Unlike
	// ContrastValue it also registers hue differences at equal lightness.
	SkinHairDeltaE float64 `json:"skin_hair_delta_e"`

	Skin RegionColor `json:"-"`
	Hair RegionColor `json:"-"`
}

// Extractor computes a FeatureSet using configurable region boxes. The zero
// value uses SkinBox and HairBox.
type Extractor struct {
	Skin RegionBox
	Hair RegionBox
}

func (e Extractor) boxes() (RegionBox, RegionBox) {
	skin, hair := e.Skin, e.Hair
	if skin.IsZero() {
		skin = SkinBox
	}
	if hair.IsZero() {
		hair = HairBox
	}
	return skin, hair
}

// Extract runs the pipeline on a pixel buffer.
func (e Extractor) Extract(p Pixels) (*FeatureSet, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	skinBox, hairBox := e.boxes()

	skin, err := regionColor(p, "skin", skinBox)
	if err != nil {
		return nil, err
	}
	hair, err := regionColor(p, "hair", hairBox)
	if err != nil {
		return nil, err
	}

	return build(skin, hair), nil
}

// ExtractImage converts img to RGBA and runs Extract on it.
func (e Extractor) ExtractImage(img image.Image) (*FeatureSet, error) {
	return e.Extract(PixelsFromImage(img))
}

// Extract runs the default extractor on p.
func Extract(p Pixels) (*FeatureSet, error) {
	return Extractor{}.Extract(p)
}

// ExtractRGB runs the default extractor on a packed 3-channel RGB buffer of
// width*height pixels.
func ExtractRGB(pix []uint8, width, height int) (*FeatureSet, error) {
	return Extractor{}.Extract(Pixels{Pix: pix, Width: width, Height: height, Channels: 3})
}

// ExtractImage runs the default extractor on a decoded image.
func ExtractImage(img image.Image) (*FeatureSet, error) {
	return Extractor{}.ExtractImage(img)
}

// PixelsFromImage copies any image.Image into a 4-channel buffer.
func PixelsFromImage(img image.Image) Pixels {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	return Pixels{
		Pix:      rgba.Pix,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: 4,
		Stride:   rgba.Stride,
	}
}

// DominantColor returns the rounded per-channel mean of the pixels inside
// rect. It fails with *EmptyRegionError when rect has no area.
func DominantColor(p Pixels, rect image.Rectangle) (colormath.Sample, error) {
	rect = rect.Intersect(image.Rect(0, 0, p.Width, p.Height))
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return colormath.Sample{}, &EmptyRegionError{Rect: rect, Width: p.Width, Height: p.Height}
	}

	var sumR, sumG, sumB uint64
	stride := p.stride()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		i := y*stride + rect.Min.X*p.Channels
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sumR += uint64(p.Pix[i])
			sumG += uint64(p.Pix[i+1])
			sumB += uint64(p.Pix[i+2])
			i += p.Channels
		}
	}

	n := float64(rect.Dx() * rect.Dy())
	return colormath.Sample{
		R: uint8(math.Round(float64(sumR) / n)),
		G: uint8(math.Round(float64(sumG) / n)),
		B: uint8(math.Round(float64(sumB) / n)),
	}, nil
}

func regionColor(p Pixels, name string, box RegionBox) (RegionColor, error) {
	rect := box.Resolve(p.Width, p.Height)
	s, err := DominantColor(p, rect)
	if err != nil {
		var empty *EmptyRegionError
		if errors.As(err, &empty) {
			empty.Region = name
		}
		return RegionColor{}, err
	}
	return RegionColor{
		Hex:       s.HexWithHash(),
		RGB:       s.Slice(),
		Luminance: s.Luminance(),
		Warmth:    s.Warmth(),
		Rect:      rect,
		Sample:    s,
	}, nil
}

func build(skin, hair RegionColor) *FeatureSet {
	undertone, confidence := ClassifyUndertone(skin.Warmth)
	contrast := math.Abs(skin.Luminance - hair.Luminance)

	return &FeatureSet{
		SkinHex:             skin.Hex,
		SkinRGB:             skin.RGB,
		HairHex:             hair.Hex,
		HairRGB:             hair.RGB,
		Undertone:           undertone,
		UndertoneConfidence: round3(confidence),
		WarmthScore:         round3(skin.Warmth),
		Depth:               ClassifyDepth(skin.Luminance),
		Luminance:           round3(skin.Luminance),
		ContrastLevel:       ClassifyContrast(contrast),
		ContrastValue:       round3(contrast),
		SkinLuminance:       round3(skin.Luminance),
		HairLuminance:       round3(hair.Luminance),
		SkinHairDeltaE:      round3(colormath.Distance(skin.Sample, hair.Sample)),
		Skin:                skin,
		Hair:                hair,
	}
}

// Features computes the labels for already-known skin and hair colors, for
// callers that sampled the colors themselves.
func Features(skin, hair colormath.Sample) *FeatureSet {
	mk := func(s colormath.Sample) RegionColor {
		return RegionColor{Hex: s.HexWithHash(), RGB: s.Slice(), Luminance: s.Luminance(), Warmth: s.Warmth(), Sample: s}
	}
	return build(mk(skin), mk(hair))
}
