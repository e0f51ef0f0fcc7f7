package carstudio

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/car-studio/pkg/analyzer"
	"github.com/menta2k/car-studio/pkg/pipeline"
	"github.com/menta2k/car-studio/pkg/types"
)

// createTestImage creates a solid test image
func createTestImage(width, height int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createTestMask creates a mask that is white inside r
func createTestMask(width, height int, r image.Rectangle) image.Image {
	m := image.NewGray(image.Rect(0, 0, width, height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return m
}

func writeTestFiles(t *testing.T) Files {
	t.Helper()
	dir := t.TempDir()
	files := Files{
		Car:   filepath.Join(dir, "car.png"),
		Mask:  filepath.Join(dir, "mask.png"),
		Wall:  filepath.Join(dir, "wall.png"),
		Floor: filepath.Join(dir, "floor.png"),
	}
	images := map[string]image.Image{
		files.Car:   createTestImage(160, 120, color.NRGBA{180, 20, 20, 255}),
		files.Mask:  createTestMask(160, 120, image.Rect(10, 10, 150, 110)),
		files.Wall:  createTestImage(800, 600, color.NRGBA{235, 235, 230, 255}),
		files.Floor: createTestImage(800, 300, color.NRGBA{80, 80, 85, 255}),
	}
	for path, img := range images {
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	return files
}

func TestNew(t *testing.T) {
	studio := New()
	if studio == nil {
		t.Fatal("New() returned nil")
	}
	if studio.analyzer == nil {
		t.Error("analyzer component is nil")
	}
	if studio.processor == nil {
		t.Error("processor component is nil")
	}
	if studio.Params() != pipeline.DefaultParams() {
		t.Errorf("expected default params, got %+v", studio.Params())
	}
}

func TestComposite(t *testing.T) {
	studio := New()
	in := pipeline.Input{
		Car:   createTestImage(160, 120, color.NRGBA{180, 20, 20, 255}),
		Mask:  createTestMask(160, 120, image.Rect(10, 10, 150, 110)),
		Wall:  createTestImage(800, 600, color.NRGBA{235, 235, 230, 255}),
		Floor: createTestImage(800, 300, color.NRGBA{80, 80, 85, 255}),
	}

	img, err := studio.Composite(context.Background(), in)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(640, 450) {
		t.Errorf("expected 640x450 output, got %v", got)
	}
}

func TestProcessFiles(t *testing.T) {
	studio := New()
	files := writeTestFiles(t)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := studio.ProcessFiles(context.Background(), files, outDir)
	if err != nil {
		t.Fatalf("ProcessFiles failed: %v", err)
	}
	if out != filepath.Join(outDir, "car.png") {
		t.Errorf("unexpected output path %s", out)
	}

	img, err := studio.LoadImage(out)
	if err != nil {
		t.Fatalf("failed to reload output: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(640, 450) {
		t.Errorf("expected 640x450 output, got %v", got)
	}
}

func TestCompositeFilesGuard(t *testing.T) {
	studio := NewWithConfig(analyzer.NewWithConfig(analyzer.Config{MinImageSize: 200}), pipeline.DefaultParams())
	files := writeTestFiles(t)

	_, err := studio.CompositeFiles(context.Background(), files)
	if !errors.Is(err, types.ErrImageBounds) {
		t.Errorf("expected ErrImageBounds for a 160x120 car, got %v", err)
	}
}

func TestCompositeFilesMissingInput(t *testing.T) {
	studio := New()
	files := writeTestFiles(t)
	files.Floor = filepath.Join(t.TempDir(), "missing.png")

	_, err := studio.CompositeFiles(context.Background(), files)
	if !errors.Is(err, types.ErrImageLoad) {
		t.Errorf("expected ErrImageLoad, got %v", err)
	}
}

func TestSaveImageFallsBackToPNG(t *testing.T) {
	studio := New()
	path := filepath.Join(t.TempDir(), "out.unknown")
	if err := studio.SaveImage(createTestImage(4, 4, color.White), path); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.DecodeConfig(f); err != nil {
		t.Errorf("expected PNG output: %v", err)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("expected version %s, got %s", Version, GetVersion())
	}
}
