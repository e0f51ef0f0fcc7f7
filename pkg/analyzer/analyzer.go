package analyzer

import (
	"fmt"
	"image"
	"strings"

	"github.com/menta2k/car-studio/pkg/types"
)

// ImageAnalyzer guards the pipeline against inputs that are too small, too
// large to process safely or in an unexpected format.
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	MaxPixels        int
}

// DefaultMaxPixels bounds a single decoded input to 64 megapixels
const DefaultMaxPixels = 64_000_000

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "webp", "bmp", "tiff", "gif"},
			MinImageSize:     1,
			MaxPixels:        DefaultMaxPixels,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// GetImageInfo returns basic information about an image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ValidateImage checks a decoded image against the configured bounds
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	b := img.Bounds()
	return a.ValidateDimensions(b.Dx(), b.Dy())
}

// ValidateDimensions checks width and height before or after decoding
func (a *ImageAnalyzer) ValidateDimensions(width, height int) error {
	if width < a.config.MinImageSize || height < a.config.MinImageSize {
		return fmt.Errorf("%w: image too small: %dx%d (minimum: %d)",
			types.ErrImageBounds, width, height, a.config.MinImageSize)
	}
	if a.config.MaxPixels > 0 && width*height > a.config.MaxPixels {
		return fmt.Errorf("%w: image too large: %dx%d exceeds %d pixels",
			types.ErrImageBounds, width, height, a.config.MaxPixels)
	}
	return nil
}

// IsFormatSupported reports whether a decoder format name is accepted.
// An empty allow-list accepts everything.
func (a *ImageAnalyzer) IsFormatSupported(format string) bool {
	if len(a.config.SupportedFormats) == 0 {
		return true
	}
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateFormat returns an error for formats outside the allow-list
func (a *ImageAnalyzer) ValidateFormat(format string) error {
	if !a.IsFormatSupported(format) {
		return fmt.Errorf("%w: unsupported image format: %s", types.ErrImageLoad, format)
	}
	return nil
}
