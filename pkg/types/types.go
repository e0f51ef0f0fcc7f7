package types

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"
)

// DefaultCarHeight is the height, in pixels, the foreground is resampled to
// before the zoom factor is applied. It keeps the apparent car size
// independent of the source resolution.
const DefaultCarHeight = 600

// DefaultMaxCarPixels caps the area of the rescaled car. 40 megapixels is
// 160 MB of NRGBA.
const DefaultMaxCarPixels = 40_000_000

// BoundingBox is an integer rectangle, half-open on the right and bottom edges.
type BoundingBox struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// Width returns the horizontal extent of the box
func (b BoundingBox) Width() int {
	return b.Right - b.Left
}

// Height returns the vertical extent of the box
func (b BoundingBox) Height() int {
	return b.Bottom - b.Top
}

// Empty reports whether the box encloses no pixel
func (b BoundingBox) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// Rect converts the box to an image.Rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Point is a position in normalized [0,1] coordinates
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// PlacementParams controls where and how large the car lands in the viewport.
// CarPosition.X is accepted but horizontal placement is always centered.
// A zero MaxCarPixels means DefaultMaxCarPixels.
type PlacementParams struct {
	CarPosition    Point   `json:"car_position" yaml:"car_position"`
	CarZoom        float64 `json:"car_zoom" yaml:"car_zoom"`
	ViewportCenter Point   `json:"viewport_center" yaml:"viewport_center"`
	ViewportZoom   float64 `json:"viewport_zoom" yaml:"viewport_zoom"`
	CarHeight      int     `json:"car_height" yaml:"car_height"`
	MaxCarPixels   int     `json:"max_car_pixels" yaml:"max_car_pixels"`
}

// DefaultPlacementParams returns the studio framing used for every batch item
func DefaultPlacementParams() PlacementParams {
	return PlacementParams{
		CarPosition:    Point{X: 0.5, Y: 0.8},
		CarZoom:        1.25,
		ViewportCenter: Point{X: 0.5, Y: 0.65},
		ViewportZoom:   1.25,
		CarHeight:      DefaultCarHeight,
		MaxCarPixels:   DefaultMaxCarPixels,
	}
}

// Validate checks zoom factors, car height and normalized coordinates
func (p PlacementParams) Validate() error {
	if !positiveFinite(p.CarZoom) {
		return fmt.Errorf("%w: car zoom must be positive, got %v", ErrInvalidParameter, p.CarZoom)
	}
	if !positiveFinite(p.ViewportZoom) {
		return fmt.Errorf("%w: viewport zoom must be positive, got %v", ErrInvalidParameter, p.ViewportZoom)
	}
	if p.CarHeight <= 0 {
		return fmt.Errorf("%w: car height must be positive, got %d", ErrInvalidParameter, p.CarHeight)
	}
	if p.MaxCarPixels < 0 {
		return fmt.Errorf("%w: max car pixels must not be negative, got %d", ErrInvalidParameter, p.MaxCarPixels)
	}
	if !p.CarPosition.normalized() {
		return fmt.Errorf("%w: car position %v outside [0,1]", ErrInvalidParameter, p.CarPosition)
	}
	if !p.ViewportCenter.normalized() {
		return fmt.Errorf("%w: viewport center %v outside [0,1]", ErrInvalidParameter, p.ViewportCenter)
	}
	return nil
}

// CarPixelLimit returns the effective cap on the rescaled car area
func (p PlacementParams) CarPixelLimit() int {
	if p.MaxCarPixels == 0 {
		return DefaultMaxCarPixels
	}
	return p.MaxCarPixels
}

func (p Point) normalized() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Item is one entry of a batch descriptor. ShadowMask is accepted for
// compatibility with existing descriptors and is never read.
type Item struct {
	Car        string `json:"car" yaml:"car"`
	Mask       string `json:"mask" yaml:"mask"`
	Floor      string `json:"floor" yaml:"floor"`
	Wall       string `json:"wall" yaml:"wall"`
	ShadowMask string `json:"shadow_mask,omitempty" yaml:"shadow_mask,omitempty"`
}

// Name returns the base name of the car image without its extension
func (it Item) Name() string {
	base := filepath.Base(strings.ReplaceAll(it.Car, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Classification is the label returned by the vision model for an image
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Accepted   bool    `json:"accepted"`
}
