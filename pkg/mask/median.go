package mask

import (
	"fmt"
	"image"

	"github.com/menta2k/car-studio/pkg/types"
)

// MedianFilter replaces every pixel with the median of its size x size
// neighbourhood. Pixels beyond the border are replicated from the edge.
// The window slides along each row, updating a 256-bin histogram one
// column at a time.
func MedianFilter(src *image.Gray, size int) (*image.Gray, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: median size must be a positive odd number, got %d", types.ErrInvalidParameter, size)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst, nil
	}

	r := size / 2
	rank := size * size / 2

	at := func(x, y int) uint8 {
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
		return src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
	}

	var hist [256]int
	column := func(x, y, delta int) {
		for dy := -r; dy <= r; dy++ {
			hist[at(x, y+dy)] += delta
		}
	}

	for y := 0; y < h; y++ {
		hist = [256]int{}
		for dx := -r; dx <= r; dx++ {
			column(dx, y, 1)
		}
		for x := 0; x < w; x++ {
			dst.Pix[y*dst.Stride+x] = histogramRank(&hist, rank)
			if x+1 < w {
				column(x-r, y, -1)
				column(x+r+1, y, 1)
			}
		}
	}
	return dst, nil
}

// histogramRank returns the smallest value whose cumulative count exceeds rank
func histogramRank(hist *[256]int, rank int) uint8 {
	seen := 0
	for v, n := range hist {
		seen += n
		if seen > rank {
			return uint8(v)
		}
	}
	return 255
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
