package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func decodeResult(t *testing.T, r *CropResult) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, image.Rect(0, 0, 50, 50), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	// Top-left quadrant is red.
	r, g, b, _ := decodeResult(t, result).At(25, 25).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("expected red crop, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestCrop_Scale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name  string
		rect  image.Rectangle
		scale float64
		w, h  int
	}{
		{"up 2x", image.Rect(0, 0, 50, 50), 2.0, 100, 100},
		{"down 0.5x", image.Rect(0, 0, 100, 100), 0.5, 50, 50},
		{"ignored zero", image.Rect(10, 10, 30, 20), 0, 20, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Crop(img, tt.rect, tt.scale)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			if result.Width != tt.w || result.Height != tt.h {
				t.Errorf("got %dx%d, want %dx%d", result.Width, result.Height, tt.w, tt.h)
			}
		})
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name string
		rect image.Rectangle
	}{
		{"outside", image.Rect(50, 50, 150, 150)},
		{"negative", image.Rect(-10, 0, 10, 10)},
		{"empty", image.Rect(10, 10, 10, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.rect, 1.0); err == nil {
				t.Error("Crop should fail")
			}
		})
	}
}

func TestThumbnail(t *testing.T) {
	big := createInMemoryImage(800, 400, color.White)
	thumb := Thumbnail(big, 256)
	if thumb.Bounds().Dx() != 256 || thumb.Bounds().Dy() != 128 {
		t.Errorf("thumbnail: got %v, want 256x128", thumb.Bounds())
	}

	small := createInMemoryImage(100, 50, color.White)
	if got := Thumbnail(small, 256).Bounds(); got.Dx() != 100 || got.Dy() != 50 {
		t.Errorf("small images must not be upscaled, got %v", got)
	}
}

func TestEncode(t *testing.T) {
	img := createInMemoryImage(8, 8, color.White)
	for _, format := range []string{"png", "jpeg", "JPG"} {
		if data, err := Encode(img, format); err != nil || len(data) == 0 {
			t.Errorf("Encode(%s): %v", format, err)
		}
	}
	if _, err := Encode(img, "bmp"); err == nil {
		t.Error("Encode should reject unknown formats")
	}
}
