package placer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/car-studio/pkg/types"
)

var (
	carColor = color.NRGBA{220, 20, 30, 255}
	bgColor  = color.NRGBA{128, 128, 128, 255}
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

func TestViewportDefaults(t *testing.T) {
	vp := Viewport(800, 600, types.Point{X: 0.5, Y: 0.65}, 1.25)

	// Centered at (400,390) with half extents 320x240, clipped at the bottom.
	assert.Equal(t, image.Rect(80, 150, 720, 600), vp)
	assert.Equal(t, image.Pt(640, 450), vp.Size())
}

func TestViewportClamping(t *testing.T) {
	tests := []struct {
		name   string
		center types.Point
		zoom   float64
		want   image.Rectangle
	}{
		{"full frame", types.Point{X: 0.5, Y: 0.5}, 1, image.Rect(0, 0, 800, 600)},
		{"zoomed out", types.Point{X: 0.5, Y: 0.5}, 0.5, image.Rect(0, 0, 800, 600)},
		{"top left corner", types.Point{X: 0, Y: 0}, 2, image.Rect(0, 0, 200, 150)},
		{"bottom right corner", types.Point{X: 1, Y: 1}, 2, image.Rect(600, 450, 800, 600)},
		{"tight", types.Point{X: 0.25, Y: 0.75}, 4, image.Rect(100, 375, 300, 525)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Viewport(800, 600, tt.center, tt.zoom)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Viewport mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScaledSizePreservesAspectRatio(t *testing.T) {
	tests := []struct {
		fgW, fgH int
		zoom     float64
	}{
		{300, 260, 1.25},
		{1920, 1080, 1},
		{640, 480, 0.5},
		{120, 400, 2},
	}
	for _, tt := range tests {
		got := ScaledSize(tt.fgW, tt.fgH, types.DefaultCarHeight, tt.zoom)
		assert.Equal(t, int(types.DefaultCarHeight*tt.zoom), got.Y)

		want := float64(tt.fgW) / float64(tt.fgH)
		ratio := float64(got.X) / float64(got.Y)
		assert.InDelta(t, want, ratio, 0.01, "%dx%d zoom %v", tt.fgW, tt.fgH, tt.zoom)
	}
}

func TestScaledSizeKnownValue(t *testing.T) {
	// floor(300/260*600) = 692, then x1.25
	assert.Equal(t, image.Pt(865, 750), ScaledSize(300, 260, 600, 1.25))
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name     string
		viewport image.Point
		car      image.Point
		position types.Point
		want     image.Point
	}{
		{"smaller car", image.Pt(640, 450), image.Pt(300, 150), types.Point{X: 0.5, Y: 0.8}, image.Pt(170, 240)},
		{"larger car floors negative", image.Pt(640, 450), image.Pt(865, 750), types.Point{X: 0.5, Y: 0.8}, image.Pt(-113, -240)},
		{"horizontal position ignored", image.Pt(640, 450), image.Pt(300, 150), types.Point{X: 0, Y: 0.8}, image.Pt(170, 240)},
		{"top aligned", image.Pt(100, 100), image.Pt(50, 50), types.Point{X: 0.5, Y: 0}, image.Pt(25, 0)},
		{"bottom aligned", image.Pt(101, 100), image.Pt(50, 50), types.Point{X: 0.5, Y: 1}, image.Pt(25, 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Offset(tt.viewport, tt.car, tt.position))
		})
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 2, floorDiv(5, 2))
	assert.Equal(t, -3, floorDiv(-5, 2))
	assert.Equal(t, -2, floorDiv(-4, 2))
	assert.Equal(t, 0, floorDiv(0, 2))
}

func TestPlaceOutputMatchesViewport(t *testing.T) {
	fg := createSolid(300, 260, carColor)
	bg := createSolid(800, 600, bgColor)

	tests := []types.PlacementParams{
		types.DefaultPlacementParams(),
		{CarPosition: types.Point{X: 0.5, Y: 0.5}, CarZoom: 0.3, ViewportCenter: types.Point{X: 0.1, Y: 0.9}, ViewportZoom: 3, CarHeight: 600},
		{CarPosition: types.Point{X: 1, Y: 1}, CarZoom: 2, ViewportCenter: types.Point{X: 0.5, Y: 0.5}, ViewportZoom: 1, CarHeight: 100},
		{CarPosition: types.Point{X: 0, Y: 0}, CarZoom: 0.01, ViewportCenter: types.Point{X: 1, Y: 0}, ViewportZoom: 0.75, CarHeight: 600},
	}
	for i, params := range tests {
		out, err := Place(fg, bg, params)
		require.NoError(t, err, "case %d", i)

		want := Viewport(800, 600, params.ViewportCenter, params.ViewportZoom)
		assert.Equal(t, want.Size(), out.Bounds().Size(), "case %d", i)
		assert.Equal(t, image.Point{}, out.Bounds().Min, "case %d", i)
	}
}

func TestPlaceDefaultScene(t *testing.T) {
	fg := createSolid(300, 260, carColor)
	bg := createSolid(800, 600, bgColor)

	out, err := Place(fg, bg, types.DefaultPlacementParams())
	require.NoError(t, err)
	assert.Equal(t, image.Pt(640, 450), out.Bounds().Size())
}

func TestPlaceBlendsCar(t *testing.T) {
	fg := createSolid(100, 50, carColor)
	bg := createSolid(800, 600, bgColor)
	params := types.DefaultPlacementParams()
	params.CarZoom = 0.25

	layout, err := ComputeLayout(fg.Bounds().Size(), bg.Bounds().Size(), params)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(300, 150), layout.CarSize)
	assert.Equal(t, image.Pt(170, 240), layout.CarOffset)
	assert.Equal(t, image.Rect(250, 390, 550, 540), layout.CarRect())

	out := Render(fg, bg, layout)
	center := out.NRGBAAt(320, 315)
	assert.InDelta(t, float64(carColor.R), float64(center.R), 2)
	assert.InDelta(t, float64(carColor.G), float64(center.G), 2)
	assert.Equal(t, uint8(255), center.A)
	assert.Equal(t, bgColor, out.NRGBAAt(20, 20))
	assert.Equal(t, bgColor, out.NRGBAAt(620, 430))
}

func TestPlaceTransparentCarLeavesBackground(t *testing.T) {
	fg := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	fg.SetNRGBA(20, 20, color.NRGBA{255, 0, 0, 255})
	bg := createSolid(400, 300, bgColor)
	params := types.DefaultPlacementParams()
	params.CarZoom = 0.1

	out, err := Place(fg, bg, params)
	require.NoError(t, err)
	assert.Equal(t, bgColor, out.NRGBAAt(0, 0))
}

func TestPlaceInvalidParams(t *testing.T) {
	fg := createSolid(30, 20, carColor)
	bg := createSolid(80, 60, bgColor)

	mutate := map[string]func(*types.PlacementParams){
		"zero car zoom":            func(p *types.PlacementParams) { p.CarZoom = 0 },
		"negative car zoom":        func(p *types.PlacementParams) { p.CarZoom = -1 },
		"nan car zoom":             func(p *types.PlacementParams) { p.CarZoom = math.NaN() },
		"zero viewport zoom":       func(p *types.PlacementParams) { p.ViewportZoom = 0 },
		"infinite viewport zoom":   func(p *types.PlacementParams) { p.ViewportZoom = math.Inf(1) },
		"zero car height":          func(p *types.PlacementParams) { p.CarHeight = 0 },
		"center outside":           func(p *types.PlacementParams) { p.ViewportCenter.X = 1.5 },
		"position outside":         func(p *types.PlacementParams) { p.CarPosition.Y = -0.1 },
		"viewport collapses":       func(p *types.PlacementParams) { p.ViewportZoom = 1000 },
		"car scaled below 1 pixel": func(p *types.PlacementParams) { p.CarZoom = 0.0001 },
		"negative max car pixels":  func(p *types.PlacementParams) { p.MaxCarPixels = -1 },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			params := types.DefaultPlacementParams()
			fn(&params)
			_, err := Place(fg, bg, params)
			require.ErrorIs(t, err, types.ErrInvalidParameter)
		})
	}
}

func TestComputeLayoutCarPixelLimit(t *testing.T) {
	bg := image.Pt(800, 600)

	tests := []struct {
		name   string
		fg     image.Point
		mutate func(*types.PlacementParams)
	}{
		// floor(2000/1*600)*1.25 x 750 is over a gigapixel
		{"wide sliver at default zoom", image.Pt(2000, 1), func(*types.PlacementParams) {}},
		{"huge car zoom", image.Pt(300, 260), func(p *types.PlacementParams) { p.CarZoom = 200 }},
		{"zoom past int range", image.Pt(300, 260), func(p *types.PlacementParams) { p.CarZoom = 1e300 }},
		{"custom limit", image.Pt(300, 260), func(p *types.PlacementParams) { p.MaxCarPixels = 600_000 }},
		{"zero limit uses default", image.Pt(2000, 1), func(p *types.PlacementParams) { p.MaxCarPixels = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := types.DefaultPlacementParams()
			tt.mutate(&params)
			_, err := ComputeLayout(tt.fg, bg, params)
			require.ErrorIs(t, err, types.ErrInvalidParameter)
		})
	}

	// 865x750 = 648750 pixels fits exactly
	params := types.DefaultPlacementParams()
	params.MaxCarPixels = 648_750
	layout, err := ComputeLayout(image.Pt(300, 260), bg, params)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(865, 750), layout.CarSize)
}

func TestPlaceDoesNotMutateInputs(t *testing.T) {
	fg := createSolid(30, 20, carColor)
	bg := createSolid(80, 60, bgColor)
	bgPix := append([]uint8(nil), bg.Pix...)

	params := types.DefaultPlacementParams()
	params.CarZoom = 0.05
	_, err := Place(fg, bg, params)
	require.NoError(t, err)
	assert.Equal(t, bgPix, bg.Pix)
}

func BenchmarkPlace(b *testing.B) {
	fg := createSolid(800, 500, carColor)
	bg := createSolid(1920, 1080, bgColor)
	params := types.DefaultPlacementParams()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Place(fg, bg, params)
	}
}
