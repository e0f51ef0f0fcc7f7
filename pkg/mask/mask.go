// Package mask cleans segmentation masks and installs them as the alpha
// channel of a foreground image.
package mask

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/car-studio/pkg/types"
)

// DefaultMedianSize is the side of the square median window
const DefaultMedianSize = 5

// smoothMore is a 5x5 low-pass kernel that softens staircase edges left by
// thresholded segmentation.
var smoothMore = [25]float64{
	1, 1, 1, 1, 1,
	1, 5, 5, 5, 1,
	1, 5, 44, 5, 1,
	1, 5, 5, 5, 1,
	1, 1, 1, 1, 1,
}

// Apply filters rawMask and returns a copy of fg whose alpha channel is the
// filtered mask. Neither input is modified.
func Apply(fg, rawMask image.Image) (*image.NRGBA, error) {
	return ApplyWithSize(fg, rawMask, DefaultMedianSize)
}

// ApplyWithSize is Apply with an explicit median window size
func ApplyWithSize(fg, rawMask image.Image, medianSize int) (*image.NRGBA, error) {
	fb, mb := fg.Bounds(), rawMask.Bounds()
	if fb.Dx() != mb.Dx() || fb.Dy() != mb.Dy() {
		return nil, fmt.Errorf("%w: mask %dx%d, foreground %dx%d",
			types.ErrDimensionMismatch, mb.Dx(), mb.Dy(), fb.Dx(), fb.Dy())
	}

	// Median first so the smoothing pass does not spread speckles into blotches.
	denoised, err := MedianFilter(Luminance(rawMask), medianSize)
	if err != nil {
		return nil, err
	}
	alpha := Smooth(denoised)

	out := imaging.Clone(fg)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	for y := 0; y < h; y++ {
		src := alpha.Pix[y*alpha.Stride : y*alpha.Stride+w]
		row := out.Pix[y*out.Stride : y*out.Stride+4*w]
		for x, a := range src {
			row[4*x+3] = a
		}
	}
	return out, nil
}

// Luminance converts img to an 8-bit grayscale image anchored at the origin.
// Color is weighted with ITU-R 601-2 luma coefficients; alpha is ignored.
func Luminance(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], g.Pix[off:off+w])
		}
		return dst
	}

	src := imaging.Clone(img)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+4*w]
		for x := 0; x < w; x++ {
			r, g, bl := uint32(row[4*x]), uint32(row[4*x+1]), uint32(row[4*x+2])
			dst.Pix[y*dst.Stride+x] = uint8((r*19595 + g*38470 + bl*7471 + 0x8000) >> 16)
		}
	}
	return dst
}

// Smooth runs the 5x5 smoothing kernel over src
func Smooth(src *image.Gray) *image.Gray {
	convolved := imaging.Convolve5x5(src, smoothMore, &imaging.ConvolveOptions{Normalize: true})

	w, h := convolved.Bounds().Dx(), convolved.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := convolved.Pix[y*convolved.Stride : y*convolved.Stride+4*w]
		for x := 0; x < w; x++ {
			dst.Pix[y*dst.Stride+x] = row[4*x]
		}
	}
	return dst
}
