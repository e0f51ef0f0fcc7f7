// Package carstudio composites car photos into a virtual studio.
//
// A segmented car photo and its mask are combined into a transparent
// cutout, cropped to its visible content and placed inside a framed view
// of a background assembled from a wall and a floor image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		carstudio "github.com/menta2k/car-studio"
//	)
//
//	func main() {
//		studio := carstudio.New()
//
//		img, err := studio.CompositeFiles(context.Background(), carstudio.Files{
//			Car:   "car.jpg",
//			Mask:  "car_mask.png",
//			Wall:  "wall.png",
//			Floor: "floor.png",
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := studio.SaveImage(img, "car_studio.png"); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these main components:
//
// 1. Mask (pkg/mask): cleans the raw mask and applies it as the alpha channel
// 2. Cropper (pkg/cropper): crops the cutout to its non-transparent content
// 3. Scene (pkg/scene): stacks the floor over the wall
// 4. Placer (pkg/placer): frames the viewport and places the resized car
// 5. Pipeline (pkg/pipeline): runs the steps above in order for one item
//
// Batch processing, vision model classification and the command line tool
// live in pkg/batch, pkg/classify and cmd/car-studio.
package carstudio

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/menta2k/car-studio/internal/utils"
	"github.com/menta2k/car-studio/pkg/analyzer"
	"github.com/menta2k/car-studio/pkg/pipeline"
	"github.com/menta2k/car-studio/pkg/processing"
)

// Version of the car studio library
const Version = "1.0.0"

// Studio provides a high-level interface for compositing single items
type Studio struct {
	analyzer  *analyzer.ImageAnalyzer
	processor *processing.Processor
	params    pipeline.Params
}

// Files names the inputs of one composite. ShadowMask is optional and unused.
type Files struct {
	Car        string
	Mask       string
	Wall       string
	Floor      string
	ShadowMask string
}

// New creates a new Studio with the default parameters
func New() *Studio {
	return NewWithConfig(analyzer.New(), pipeline.DefaultParams())
}

// NewWithConfig creates a new Studio with a custom input guard and parameters
func NewWithConfig(guard *analyzer.ImageAnalyzer, params pipeline.Params) *Studio {
	return &Studio{
		analyzer:  guard,
		processor: processing.NewProcessor(),
		params:    params,
	}
}

// Params returns the pipeline parameters used by the studio
func (s *Studio) Params() pipeline.Params {
	return s.params
}

// LoadImage loads an image from a file path or URL and checks it against
// the input guard
func (s *Studio) LoadImage(source string) (image.Image, error) {
	img, err := s.processor.LoadImageSmart(source)
	if err != nil {
		return nil, err
	}
	if err := s.analyzer.ValidateImage(img); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return img, nil
}

// SaveImage saves an image, picking the format from the file extension.
// Unknown extensions are written as PNG.
func (s *Studio) SaveImage(img image.Image, path string) error {
	format := utils.GetFileExtension(path)
	switch format {
	case "png", "webp", "jpg", "jpeg":
	default:
		format = "png"
	}
	return s.processor.SaveImage(img, path, format, 90, true)
}

// Composite runs the pipeline on decoded images
func (s *Studio) Composite(ctx context.Context, in pipeline.Input) (*image.NRGBA, error) {
	return pipeline.Composite(ctx, in, s.params)
}

// CompositeFiles loads the inputs and runs the pipeline
func (s *Studio) CompositeFiles(ctx context.Context, files Files) (*image.NRGBA, error) {
	in, err := s.load(files)
	if err != nil {
		return nil, err
	}
	return s.Composite(ctx, in)
}

// ProcessFiles composites one item and writes the result into outputDir as
// <car name>.png, returning the written path
func (s *Studio) ProcessFiles(ctx context.Context, files Files, outputDir string) (string, error) {
	img, err := s.CompositeFiles(ctx, files)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(outputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	out := utils.GenerateOutputFilename(files.Car, outputDir, "", "", "png")
	if err := s.SaveImage(img, out); err != nil {
		return "", err
	}
	return out, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

func (s *Studio) load(files Files) (pipeline.Input, error) {
	var in pipeline.Input
	targets := []struct {
		path string
		dst  *image.Image
	}{
		{files.Car, &in.Car},
		{files.Mask, &in.Mask},
		{files.Wall, &in.Wall},
		{files.Floor, &in.Floor},
	}
	for _, t := range targets {
		img, err := s.LoadImage(t.path)
		if err != nil {
			return in, fmt.Errorf("failed to load %s: %w", filepath.Base(t.path), err)
		}
		*t.dst = img
	}
	return in, nil
}
