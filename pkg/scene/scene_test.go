package scene

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/car-studio/pkg/types"
)

var (
	wallColor  = color.NRGBA{200, 190, 180, 255}
	floorColor = color.NRGBA{60, 60, 70, 255}
)

func createSolid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// createFloor creates a floor whose left half is opaque and right half transparent
func createFloor(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width/2; x++ {
			img.SetNRGBA(x, y, floorColor)
		}
	}
	return img
}

func TestBuildBackgroundLayers(t *testing.T) {
	wall := createSolid(800, 600, wallColor)
	floor := createFloor(800, 300)

	bg, err := BuildBackground(wall, floor, DefaultFloorStartHeight)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 800, 600), bg.Bounds())

	for _, y := range []int{0, 150, 299} {
		assert.Equal(t, wallColor, bg.NRGBAAt(100, y), "row %d left", y)
		assert.Equal(t, wallColor, bg.NRGBAAt(700, y), "row %d right", y)
	}
	for _, y := range []int{300, 450, 599} {
		assert.Equal(t, floorColor, bg.NRGBAAt(100, y), "row %d floor", y)
		assert.Equal(t, wallColor, bg.NRGBAAt(700, y), "row %d wall shows through", y)
	}
}

func TestBuildBackgroundSizeFollowsWall(t *testing.T) {
	tests := []struct {
		name          string
		wall, floor   image.Point
		floorStartRow int
	}{
		{"larger floor", image.Pt(320, 240), image.Pt(1000, 1000), 0},
		{"smaller floor", image.Pt(320, 240), image.Pt(10, 10), 100},
		{"floor below canvas", image.Pt(320, 240), image.Pt(320, 100), 500},
		{"wide wall", image.Pt(1024, 200), image.Pt(300, 300), 199},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wall := createSolid(tt.wall.X, tt.wall.Y, wallColor)
			floor := createSolid(tt.floor.X, tt.floor.Y, floorColor)

			bg, err := BuildBackground(wall, floor, tt.floorStartRow)
			require.NoError(t, err)
			assert.Equal(t, tt.wall, bg.Bounds().Size())
		})
	}
}

func TestBuildBackgroundClipsFloor(t *testing.T) {
	wall := createSolid(100, 100, wallColor)
	floor := createSolid(100, 300, floorColor)

	bg, err := BuildBackground(wall, floor, 60)
	require.NoError(t, err)
	assert.Equal(t, wallColor, bg.NRGBAAt(50, 59))
	assert.Equal(t, floorColor, bg.NRGBAAt(50, 60))
	assert.Equal(t, floorColor, bg.NRGBAAt(99, 99))
}

func TestBuildBackgroundNegativeHeight(t *testing.T) {
	wall := createSolid(10, 10, wallColor)
	floor := createSolid(10, 5, floorColor)

	_, err := BuildBackground(wall, floor, -1)
	require.ErrorIs(t, err, types.ErrInvalidParameter)
}

func TestBuildBackgroundDoesNotMutateInputs(t *testing.T) {
	wall := createSolid(40, 40, wallColor)
	floor := createFloor(40, 20)
	wallPix := append([]uint8(nil), wall.Pix...)
	floorPix := append([]uint8(nil), floor.Pix...)

	_, err := BuildBackground(wall, floor, 20)
	require.NoError(t, err)
	assert.Equal(t, wallPix, wall.Pix)
	assert.Equal(t, floorPix, floor.Pix)
}
