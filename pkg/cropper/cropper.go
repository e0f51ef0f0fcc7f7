// Package cropper trims images to the rectangle that encloses their visible
// (non-transparent) pixels.
package cropper

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/car-studio/pkg/types"
)

// ContentBounds returns the smallest box, relative to the image origin, that
// contains every pixel with alpha > 0.
func ContentBounds(img image.Image) (types.BoundingBox, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	alphaAt := alphaReader(img)
	box := types.BoundingBox{Left: w, Top: h, Right: 0, Bottom: 0}
	found := false
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if alphaAt(b.Min.X+x, b.Min.Y+y) == 0 {
				continue
			}
			found = true
			if x < box.Left {
				box.Left = x
			}
			if x+1 > box.Right {
				box.Right = x + 1
			}
			if y < box.Top {
				box.Top = y
			}
			box.Bottom = y + 1
		}
	}

	if !found {
		return types.BoundingBox{}, fmt.Errorf("%w: %dx%d image is fully transparent", types.ErrEmptyContent, w, h)
	}
	return box, nil
}

// CropToContent crops img to its ContentBounds. Cropping an already tight
// image returns an identical copy.
func CropToContent(img image.Image) (*image.NRGBA, error) {
	box, err := ContentBounds(img)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, box.Rect().Add(img.Bounds().Min)), nil
}

// alphaReader returns a fast alpha accessor for the common pixel formats
func alphaReader(img image.Image) func(x, y int) uint32 {
	switch src := img.(type) {
	case *image.NRGBA:
		return func(x, y int) uint32 { return uint32(src.Pix[src.PixOffset(x, y)+3]) }
	case *image.RGBA:
		return func(x, y int) uint32 { return uint32(src.Pix[src.PixOffset(x, y)+3]) }
	case *image.Gray, *image.YCbCr:
		return func(int, int) uint32 { return 0xffff }
	default:
		return func(x, y int) uint32 {
			_, _, _, a := img.At(x, y).RGBA()
			return a
		}
	}
}
