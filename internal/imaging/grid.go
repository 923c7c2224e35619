package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/ironsheep/coloring-mcp/internal/colormath"
)

// DefaultGridSpacing is the grid pitch used when the caller passes none.
const DefaultGridSpacing = 50

// GridResult is a gridded copy of an image, encoded as base64 PNG.
type GridResult struct {
	*CropResult
	GridSpacing int `json:"grid_spacing"`
}

// GridOverlay draws a coordinate grid over a copy of img so a caller can read
// off pixel positions, for example the iris point passed to eye sampling.
//
// Parameters:
//   - img: source image; it is not modified
//   - spacing: distance in pixels between grid lines, measured from the
//     image's top-left corner
//   - showCoordinates: label every intersection with its "x,y" position
//   - line: grid line color
//   - alpha: grid line opacity, 0 (invisible) to 255 (opaque)
//
// Returns the gridded image as PNG. Coordinates in labels are relative to
// Bounds().Min, matching what SamplePoint and Crop callers pass.
//
// # Errors
//
// Returns an error if spacing is not positive or PNG encoding fails.
func GridOverlay(img image.Image, spacing int, showCoordinates bool, line colormath.Sample, alpha uint8) (*GridResult, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("grid spacing must be positive, got %d", spacing)
	}

	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	ink := image.NewUniform(color.NRGBA{R: line.R, G: line.G, B: line.B, A: alpha})
	for x := spacing; x < bounds.Dx(); x += spacing {
		col := image.Rect(bounds.Min.X+x, bounds.Min.Y, bounds.Min.X+x+1, bounds.Max.Y)
		draw.Draw(result, col, ink, image.Point{}, draw.Over)
	}
	for y := spacing; y < bounds.Dy(); y += spacing {
		row := image.Rect(bounds.Min.X, bounds.Min.Y+y, bounds.Max.X, bounds.Min.Y+y+1)
		draw.Draw(result, row, ink, image.Point{}, draw.Over)
	}

	if showCoordinates {
		for y := spacing; y < bounds.Dy(); y += spacing {
			for x := spacing; x < bounds.Dx(); x += spacing {
				label := strconv.Itoa(x) + "," + strconv.Itoa(y)
				drawLabel(result, bounds.Min.X+x+2, bounds.Min.Y+y+2, label)
			}
		}
	}

	encoded, err := encodePNG(result)
	if err != nil {
		return nil, err
	}
	return &GridResult{CropResult: encoded, GridSpacing: spacing}, nil
}

// 3x5 bitmaps, one row per byte, high bit on the left.
var glyphs = map[rune][5]uint8{
	'0': {0b111, 0b101, 0b101, 0b101, 0b111},
	'1': {0b010, 0b110, 0b010, 0b010, 0b111},
	'2': {0b111, 0b001, 0b111, 0b100, 0b111},
	'3': {0b111, 0b001, 0b111, 0b001, 0b111},
	'4': {0b101, 0b101, 0b111, 0b001, 0b001},
	'5': {0b111, 0b100, 0b111, 0b001, 0b111},
	'6': {0b111, 0b100, 0b111, 0b101, 0b111},
	'7': {0b111, 0b001, 0b001, 0b001, 0b001},
	'8': {0b111, 0b101, 0b111, 0b101, 0b111},
	'9': {0b111, 0b101, 0b111, 0b001, 0b111},
	',': {0b000, 0b000, 0b000, 0b010, 0b010},
}

const (
	glyphAdvance = 4
	labelHeight  = 7
)

var (
	labelInk        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelBackground = image.NewUniform(color.NRGBA{A: 180})
)

// drawLabel writes text with its top-left corner at (x, y) on a dark backing
// box. Runes without a glyph leave a blank cell.
func drawLabel(img *image.RGBA, x, y int, text string) {
	box := image.Rect(x-1, y-1, x+len(text)*glyphAdvance, y+labelHeight).Intersect(img.Bounds())
	draw.Draw(img, box, labelBackground, image.Point{}, draw.Over)

	for i, ch := range text {
		g, ok := glyphs[ch]
		if !ok {
			continue
		}
		cx := x + i*glyphAdvance
		for row, bits := range g {
			for col := 0; col < 3; col++ {
				if bits&(0b100>>col) == 0 {
					continue
				}
				p := image.Pt(cx+col, y+row)
				if p.In(img.Bounds()) {
					img.SetRGBA(p.X, p.Y, labelInk)
				}
			}
		}
	}
}
