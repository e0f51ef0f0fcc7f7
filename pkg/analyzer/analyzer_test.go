package analyzer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/car-studio/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill with a gradient pattern
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}

	return img
}

func TestNew(t *testing.T) {
	analyzer := New()
	if analyzer == nil {
		t.Fatal("New() returned nil")
	}

	if analyzer.config.MaxPixels != DefaultMaxPixels {
		t.Errorf("Expected max pixels %d, got %d", DefaultMaxPixels, analyzer.config.MaxPixels)
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := Config{
		SupportedFormats: []string{"png"},
		MinImageSize:     200,
		MaxPixels:        1000,
	}

	analyzer := NewWithConfig(cfg)
	if analyzer.config.MinImageSize != 200 {
		t.Errorf("Expected min size 200, got %d", analyzer.config.MinImageSize)
	}
	if analyzer.IsFormatSupported("jpeg") {
		t.Error("jpeg should not be supported by a png-only analyzer")
	}
}

func TestGetImageInfo(t *testing.T) {
	analyzer := New()
	info := analyzer.GetImageInfo(createTestImage(400, 300))

	if info.Width != 400 || info.Height != 300 {
		t.Errorf("Expected 400x300, got %dx%d", info.Width, info.Height)
	}
	if info.Area != 120000 {
		t.Errorf("Expected area 120000, got %d", info.Area)
	}
	if info.AspectRatio != 400.0/300.0 {
		t.Errorf("Expected aspect ratio %f, got %f", 400.0/300.0, info.AspectRatio)
	}
}

func TestValidateImage(t *testing.T) {
	analyzer := NewWithConfig(Config{MinImageSize: 100, MaxPixels: 500 * 500})

	if err := analyzer.ValidateImage(createTestImage(200, 200)); err != nil {
		t.Errorf("Valid image should pass validation: %v", err)
	}

	if err := analyzer.ValidateImage(createTestImage(50, 200)); !errors.Is(err, types.ErrImageBounds) {
		t.Errorf("Small image should fail with ErrImageBounds, got %v", err)
	}

	if err := analyzer.ValidateDimensions(600, 500); !errors.Is(err, types.ErrImageBounds) {
		t.Errorf("Oversized image should fail with ErrImageBounds, got %v", err)
	}
}

func TestValidateDimensionsUnbounded(t *testing.T) {
	analyzer := NewWithConfig(Config{MinImageSize: 1})
	if err := analyzer.ValidateDimensions(100000, 100000); err != nil {
		t.Errorf("MaxPixels 0 should disable the upper bound: %v", err)
	}
}

func TestValidateFormat(t *testing.T) {
	analyzer := New()

	for _, format := range []string{"jpeg", "PNG", "webp"} {
		if err := analyzer.ValidateFormat(format); err != nil {
			t.Errorf("%s should be supported: %v", format, err)
		}
	}
	if err := analyzer.ValidateFormat("heic"); !errors.Is(err, types.ErrImageLoad) {
		t.Errorf("heic should fail with ErrImageLoad, got %v", err)
	}
}
