// Package pipeline sequences the compositing steps for a single item:
// scene assembly, mask cleanup, content crop and placement.
package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/car-studio/internal/logging"
	"github.com/menta2k/car-studio/pkg/cropper"
	"github.com/menta2k/car-studio/pkg/mask"
	"github.com/menta2k/car-studio/pkg/placer"
	"github.com/menta2k/car-studio/pkg/scene"
	"github.com/menta2k/car-studio/pkg/types"
)

// Input holds the decoded images for one item. ShadowMask is accepted for
// descriptor compatibility and not used by any step.
type Input struct {
	Car        image.Image
	Mask       image.Image
	Wall       image.Image
	Floor      image.Image
	ShadowMask image.Image
}

// Params groups every tunable of the pipeline
type Params struct {
	Placement        types.PlacementParams
	FloorStartHeight int
	MedianSize       int
}

// DefaultParams returns the studio defaults
func DefaultParams() Params {
	return Params{
		Placement:        types.DefaultPlacementParams(),
		FloorStartHeight: scene.DefaultFloorStartHeight,
		MedianSize:       mask.DefaultMedianSize,
	}
}

// Result carries the final composite together with the intermediate images
// and the placement geometry.
type Result struct {
	Image      *image.NRGBA
	Background *image.NRGBA
	Car        *image.NRGBA
	Layout     placer.Layout
}

// Composite runs the pipeline and returns only the final image
func Composite(ctx context.Context, in Input, params Params) (*image.NRGBA, error) {
	res, err := Run(ctx, in, params)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// Run builds the background, cuts the car out with its cleaned mask, crops
// it to its visible content and places it in the viewport. The first error
// is returned; ctx is checked between steps.
func Run(ctx context.Context, in Input, params Params) (Result, error) {
	if in.Car == nil || in.Mask == nil || in.Wall == nil || in.Floor == nil {
		return Result{}, fmt.Errorf("%w: car, mask, wall and floor images are required", types.ErrInvalidParameter)
	}
	log := logging.Logger()

	background, err := scene.BuildBackground(in.Wall, in.Floor, params.FloorStartHeight)
	if err != nil {
		return Result{}, fmt.Errorf("build background: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	masked, err := mask.ApplyWithSize(in.Car, in.Mask, params.MedianSize)
	if err != nil {
		return Result{}, fmt.Errorf("apply mask: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	car, err := cropper.CropToContent(masked)
	if err != nil {
		return Result{}, fmt.Errorf("crop to content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	layout, err := placer.ComputeLayout(car.Bounds().Size(), background.Bounds().Size(), params.Placement)
	if err != nil {
		return Result{}, fmt.Errorf("place car: %w", err)
	}
	log.Debug("placement computed",
		"car", car.Bounds().Size(),
		"viewport", layout.Viewport,
		"scaled", layout.CarSize,
		"offset", layout.CarOffset)

	return Result{
		Image:      placer.Render(car, background, layout),
		Background: background,
		Car:        car,
		Layout:     layout,
	}, nil
}
