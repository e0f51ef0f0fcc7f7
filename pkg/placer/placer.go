// Package placer frames a viewport out of the studio background and places
// the rescaled car inside it.
package placer

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/car-studio/pkg/types"
)

// Layout is the geometry computed for one placement. Viewport is expressed
// in background coordinates, CarOffset in viewport coordinates.
type Layout struct {
	Viewport  image.Rectangle
	CarSize   image.Point
	CarOffset image.Point
}

// CarRect returns the placed car rectangle in background coordinates
func (l Layout) CarRect() image.Rectangle {
	origin := l.Viewport.Min.Add(l.CarOffset)
	return image.Rectangle{Min: origin, Max: origin.Add(l.CarSize)}
}

// Place crops the viewport out of bg, resizes fg to the configured height
// times CarZoom (keeping its aspect ratio) and blends it onto the viewport.
// The result has exactly the viewport's size.
func Place(fg, bg image.Image, params types.PlacementParams) (*image.NRGBA, error) {
	layout, err := ComputeLayout(fg.Bounds().Size(), bg.Bounds().Size(), params)
	if err != nil {
		return nil, err
	}
	return Render(fg, bg, layout), nil
}

// Render draws fg onto bg following a precomputed layout
func Render(fg, bg image.Image, layout Layout) *image.NRGBA {
	viewport := imaging.Crop(bg, layout.Viewport.Add(bg.Bounds().Min))
	car := imaging.Resize(fg, layout.CarSize.X, layout.CarSize.Y, imaging.Lanczos)
	return imaging.Overlay(viewport, car, layout.CarOffset, 1.0)
}

// ComputeLayout validates params and resolves the viewport, car size and
// car offset for the given foreground and background sizes.
func ComputeLayout(fg, bg image.Point, params types.PlacementParams) (Layout, error) {
	if err := params.Validate(); err != nil {
		return Layout{}, err
	}
	if fg.X <= 0 || fg.Y <= 0 || bg.X <= 0 || bg.Y <= 0 {
		return Layout{}, fmt.Errorf("%w: empty image (foreground %v, background %v)", types.ErrInvalidParameter, fg, bg)
	}

	vp := Viewport(bg.X, bg.Y, params.ViewportCenter, params.ViewportZoom)
	if vp.Empty() {
		return Layout{}, fmt.Errorf("%w: viewport zoom %v leaves an empty viewport on a %dx%d background",
			types.ErrInvalidParameter, params.ViewportZoom, bg.X, bg.Y)
	}

	// Checked in float before the int conversion so an oversized zoom
	// cannot overflow.
	w, h := scaledExtent(fg.X, fg.Y, params.CarHeight, params.CarZoom)
	if limit := params.CarPixelLimit(); w*h > float64(limit) {
		return Layout{}, fmt.Errorf("%w: car zoom %v scales a %dx%d car to %.0fx%.0f, over the %d pixel limit",
			types.ErrInvalidParameter, params.CarZoom, fg.X, fg.Y, w, h, limit)
	}

	size := ScaledSize(fg.X, fg.Y, params.CarHeight, params.CarZoom)
	if size.X < 1 || size.Y < 1 {
		return Layout{}, fmt.Errorf("%w: car zoom %v scales a %dx%d car to %dx%d",
			types.ErrInvalidParameter, params.CarZoom, fg.X, fg.Y, size.X, size.Y)
	}

	return Layout{
		Viewport:  vp,
		CarSize:   size,
		CarOffset: Offset(vp.Size(), size, params.CarPosition),
	}, nil
}

// Viewport returns the rectangle of a bgW x bgH background centered on the
// normalized center, with half extents of bg/zoom/2, clamped to the background.
// Larger zoom values give a tighter viewport.
func Viewport(bgW, bgH int, center types.Point, zoom float64) image.Rectangle {
	cx := math.Floor(float64(bgW) * center.X)
	cy := math.Floor(float64(bgH) * center.Y)
	hw := math.Floor(math.Floor(float64(bgW)/zoom) / 2)
	hh := math.Floor(math.Floor(float64(bgH)/zoom) / 2)

	left := math.Max(0, cx-hw)
	top := math.Max(0, cy-hh)
	right := math.Min(float64(bgW), cx+hw)
	bottom := math.Min(float64(bgH), cy+hh)
	if right < left {
		right = left
	}
	if bottom < top {
		bottom = top
	}
	return image.Rect(int(left), int(top), int(right), int(bottom))
}

// ScaledSize returns the car size after resampling to carHeight and
// applying zoom. The width follows the source aspect ratio.
func ScaledSize(fgW, fgH, carHeight int, zoom float64) image.Point {
	w, h := scaledExtent(fgW, fgH, carHeight, zoom)
	return image.Pt(int(w), int(h))
}

func scaledExtent(fgW, fgH, carHeight int, zoom float64) (float64, float64) {
	w := math.Floor(float64(fgW) / float64(fgH) * float64(carHeight))
	return w * zoom, float64(carHeight) * zoom
}

// Offset centers the car horizontally and places it vertically at
// carPosition.Y of the free space. carPosition.X does not move the car.
func Offset(viewport, car image.Point, carPosition types.Point) image.Point {
	x := floorDiv(viewport.X-car.X, 2)
	y := int(float64(viewport.Y-car.Y) * carPosition.Y)
	return image.Pt(x, y)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
