package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/coloring-mcp/internal/colormath"
)

// ColorResult contains a color value in the representations tool output uses.
type ColorResult struct {
	Hex       string             `json:"hex"` // "#rrggbb"
	RGB       []int              `json:"rgb"`
	HSL       colormath.HSLColor `json:"hsl"`
	Luminance float64            `json:"luminance"`
	Warmth    float64            `json:"warmth"`
}

// NewColorResult describes s.
func NewColorResult(s colormath.Sample) ColorResult {
	return ColorResult{
		Hex:       s.HexWithHash(),
		RGB:       s.Slice(),
		HSL:       s.HSL(),
		Luminance: math.Round(s.Luminance()*1000) / 1000,
		Warmth:    math.Round(s.Warmth()*1000) / 1000,
	}
}

// SamplePoint averages the pixels within radius of (x, y), clipped to the
// image. Used to pick an eye color off a portrait.
//
// Parameters:
//   - img: Source image.
//   - x, y: Center of the sample in the image's own coordinate space.
//   - radius: Half-width of the square sampled around (x, y). 0 reads the
//     single pixel.
//
// Returns:
//   - colormath.Sample: The rounded per-channel mean of the sampled pixels.
//   - error: Non-nil if the center is outside the image or radius is negative.
//
// # Errors
//
//   - Returns error if (x, y) lies outside img.Bounds()
//   - Returns error if radius is negative
func SamplePoint(img image.Image, x, y, radius int) (colormath.Sample, error) {
	bounds := img.Bounds()
	if !image.Pt(x, y).In(bounds) {
		return colormath.Sample{}, fmt.Errorf("coordinates (%d, %d) outside image bounds %v", x, y, bounds)
	}
	if radius < 0 {
		return colormath.Sample{}, fmt.Errorf("radius must not be negative, got %d", radius)
	}

	area := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1).Intersect(bounds)

	var sumR, sumG, sumB, n uint64
	for py := area.Min.Y; py < area.Max.Y; py++ {
		for px := area.Min.X; px < area.Max.X; px++ {
			r, g, b, _ := img.At(px, py).RGBA()
			sumR += uint64(r >> 8)
			sumG += uint64(g >> 8)
			sumB += uint64(b >> 8)
			n++
		}
	}

	avg := func(sum uint64) uint8 { return uint8(math.Round(float64(sum) / float64(n))) }
	return colormath.RGB(avg(sumR), avg(sumG), avg(sumB)), nil
}

// PaletteEntry is one quantized color and its share of a region.
type PaletteEntry struct {
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"`
}

// Palette returns the count most frequent colors in rect, quantized to 16
// levels per channel, most frequent first. Ties are broken by hex so the
// output is stable.
func Palette(img image.Image, rect image.Rectangle, count int) []PaletteEntry {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() || count <= 0 {
		return nil
	}

	counts := make(map[colormath.Sample]int)
	total := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			q := colormath.RGB(uint8((r>>8)/16*16), uint8((g>>8)/16*16), uint8((b>>8)/16*16))
			counts[q]++
			total++
		}
	}

	entries := make([]PaletteEntry, 0, len(counts))
	for s, n := range counts {
		entries = append(entries, PaletteEntry{
			Hex:        s.HexWithHash(),
			Percentage: math.Round(float64(n)/float64(total)*10000) / 100,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		return entries[i].Hex < entries[j].Hex
	})

	if len(entries) > count {
		entries = entries[:count]
	}
	return entries
}
