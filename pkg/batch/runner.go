// Package batch runs the compositing pipeline over a list of items on a
// bounded worker pool and writes one output file per item.
package batch

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/car-studio/internal/logging"
	"github.com/menta2k/car-studio/internal/utils"
	"github.com/menta2k/car-studio/pkg/analyzer"
	"github.com/menta2k/car-studio/pkg/pipeline"
	"github.com/menta2k/car-studio/pkg/placer"
	"github.com/menta2k/car-studio/pkg/processing"
	"github.com/menta2k/car-studio/pkg/types"
)

// Options controls where and how results are written
type Options struct {
	OutputDir   string
	Format      string
	Quality     int
	Lossless    bool
	Prefix      string
	Suffix      string
	Debug       bool
	DebugFormat string
	Workers     int
	ItemTimeout time.Duration
}

// Result describes the outcome of one item
type Result struct {
	Item     types.Item
	Output   string
	Debug    string
	Layout   placer.Layout
	Duration time.Duration
	Err      error
}

// Summary is returned by Run. Results are in input order.
type Summary struct {
	RunID     string
	Results   []Result
	Succeeded int
	Failed    int
}

// Runner composites batch items
type Runner struct {
	processor *processing.Processor
	guard     *analyzer.ImageAnalyzer
	params    pipeline.Params
	opts      Options
}

// NewRunner creates a runner. Zero Workers means one worker per CPU.
func NewRunner(params pipeline.Params, guard analyzer.Config, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Format == "" {
		opts.Format = "png"
	}
	if opts.DebugFormat == "" {
		opts.DebugFormat = "jpg"
	}
	if opts.Quality <= 0 {
		opts.Quality = 90
	}
	return &Runner{
		processor: processing.NewProcessor(),
		guard:     analyzer.NewWithConfig(guard),
		params:    params,
		opts:      opts,
	}
}

// Run processes every item. A failing item is recorded in its Result and
// does not stop the others. The returned error is only set when the batch
// could not start at all.
func (r *Runner) Run(ctx context.Context, items []types.Item) (Summary, error) {
	summary := Summary{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(items)),
	}
	log := logging.Logger().With("run_id", summary.RunID)

	if err := utils.EnsureDir(r.opts.OutputDir); err != nil {
		return summary, fmt.Errorf("%w: create output directory: %v", types.ErrIO, err)
	}

	log.Info("batch started", "items", len(items), "workers", r.opts.Workers, "output_dir", r.opts.OutputDir)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, item := range items {
		g.Go(func() error {
			path := utils.GenerateOutputFilename(item.Car, r.opts.OutputDir, r.opts.Prefix, r.opts.Suffix, r.opts.Format)
			summary.Results[i] = r.runItem(ctx, log, item, path)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range summary.Results {
		if res.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	log.Info("batch finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return summary, nil
}

// ProcessItem composites a single item into an explicit output path. The
// debug overlay, when enabled, is written next to it with a _debug suffix.
func (r *Runner) ProcessItem(ctx context.Context, item types.Item, output string) Result {
	return r.runItem(ctx, logging.Logger(), item, output)
}

func (r *Runner) runItem(ctx context.Context, log *slog.Logger, item types.Item, output string) Result {
	start := time.Now()
	res := Result{Item: item}
	log = log.With("item", item.Name())

	if r.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ItemTimeout)
		defer cancel()
	}

	res.Err = r.process(ctx, item, output, &res)
	res.Duration = time.Since(start)
	if res.Err != nil {
		log.Error("item failed", "error", res.Err, "elapsed", res.Duration.Round(time.Millisecond))
		return res
	}

	attrs := []any{"output", res.Output, "elapsed", res.Duration.Round(time.Millisecond)}
	if info, err := os.Stat(res.Output); err == nil {
		attrs = append(attrs, "size", utils.FormatFileSize(info.Size()))
	}
	log.Info("item done", attrs...)
	return res
}

func (r *Runner) process(ctx context.Context, item types.Item, path string, res *Result) error {
	in, err := r.load(ctx, item)
	if err != nil {
		return err
	}

	out, err := pipeline.Run(ctx, in, r.params)
	if err != nil {
		return err
	}
	res.Layout = out.Layout

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: create output directory: %v", types.ErrIO, err)
	}
	if err := r.processor.SaveImage(out.Image, path, r.opts.Format, r.opts.Quality, r.opts.Lossless); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	res.Output = path

	if r.opts.Debug {
		overlay := r.processor.CreateDebugOverlay(out.Background, out.Layout)
		debugPath := strings.TrimSuffix(path, filepath.Ext(path)) + "_debug." + strings.ToLower(r.opts.DebugFormat)
		if err := r.processor.SaveImage(overlay, debugPath, r.opts.DebugFormat, r.opts.Quality, false); err != nil {
			return fmt.Errorf("save %s: %w", debugPath, err)
		}
		res.Debug = debugPath
	}
	return nil
}

func (r *Runner) load(ctx context.Context, item types.Item) (pipeline.Input, error) {
	if item.ShadowMask != "" {
		logging.Logger().Debug("shadow mask ignored", "item", item.Name(), "path", item.ShadowMask)
	}

	var in pipeline.Input
	targets := []struct {
		name string
		path string
		dst  *image.Image
	}{
		{"car", item.Car, &in.Car},
		{"mask", item.Mask, &in.Mask},
		{"wall", item.Wall, &in.Wall},
		{"floor", item.Floor, &in.Floor},
	}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return in, err
		}
		img, err := r.loadChecked(t.path)
		if err != nil {
			return in, fmt.Errorf("load %s: %w", t.name, err)
		}
		*t.dst = img
	}
	return in, nil
}

// loadChecked probes the header and enforces the input guard before
// decoding the full image
func (r *Runner) loadChecked(path string) (image.Image, error) {
	cfg, format, err := r.processor.DecodeConfig(path)
	if err != nil {
		return nil, err
	}
	if err := r.guard.ValidateFormat(format); err != nil {
		return nil, err
	}
	if err := r.guard.ValidateDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	return r.processor.LoadImage(path)
}
