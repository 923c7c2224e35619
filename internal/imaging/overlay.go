package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/coloring-mcp/internal/colormath"
)

// OverlayRegion is one rectangle to outline on a preview, with the color
// sampled from it.
type OverlayRegion struct {
	Name    string
	Rect    image.Rectangle // in image coordinates relative to Bounds().Min
	Outline colormath.Sample
	Fill    colormath.Sample // drawn as a swatch in the region's top-left corner
}

// swatchSize is the edge length of the sampled-color swatch.
const swatchSize = 12

// RegionOverlay draws each region's outline and a swatch of its sampled color
// onto a copy of img and returns it as base64 PNG.
func RegionOverlay(img image.Image, regions []OverlayRegion) (*CropResult, error) {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for _, r := range regions {
		rect := r.Rect.Add(bounds.Min).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		outline := toRGBA(r.Outline)
		drawRect(result, rect, outline)

		sw := image.Rect(rect.Min.X+2, rect.Min.Y+2, rect.Min.X+2+swatchSize, rect.Min.Y+2+swatchSize).Intersect(rect)
		draw.Draw(result, sw, image.NewUniform(toRGBA(r.Fill)), image.Point{}, draw.Src)
		drawRect(result, sw, outline)
	}

	return encodePNG(result)
}

// drawRect outlines rect with a 1px border.
func drawRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetRGBA(x, rect.Min.Y, c)
		img.SetRGBA(x, rect.Max.Y-1, c)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetRGBA(rect.Min.X, y, c)
		img.SetRGBA(rect.Max.X-1, y, c)
	}
}

func toRGBA(s colormath.Sample) color.RGBA {
	return color.RGBA{R: s.R, G: s.G, B: s.B, A: 255}
}
