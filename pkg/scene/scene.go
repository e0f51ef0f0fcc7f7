// Package scene assembles the studio background from a wall layer and a
// floor layer.
package scene

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/car-studio/pkg/types"
)

// DefaultFloorStartHeight is the row at which the floor layer begins
const DefaultFloorStartHeight = 300

// BuildBackground layers wall at the origin and floor at (0, floorStartHeight)
// onto a transparent canvas the size of wall. Both layers blend through their
// own alpha; floor pixels falling outside the canvas are dropped.
func BuildBackground(wall, floor image.Image, floorStartHeight int) (*image.NRGBA, error) {
	if floorStartHeight < 0 {
		return nil, fmt.Errorf("%w: floor start height must not be negative, got %d",
			types.ErrInvalidParameter, floorStartHeight)
	}

	size := wall.Bounds().Size()
	canvas := imaging.New(size.X, size.Y, color.NRGBA{})
	canvas = imaging.Overlay(canvas, wall, image.Pt(0, 0), 1.0)
	canvas = imaging.Overlay(canvas, floor, image.Pt(0, floorStartHeight), 1.0)
	return canvas, nil
}
