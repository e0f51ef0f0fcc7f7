package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/car-studio/internal/logging"
	"github.com/menta2k/car-studio/internal/utils"
	"github.com/menta2k/car-studio/pkg/batch"
	"github.com/menta2k/car-studio/pkg/types"
)

func newCompositeCmd(g *globalOptions) *cobra.Command {
	var item types.Item
	var out string

	cmd := &cobra.Command{
		Use:   "composite",
		Short: "Composite a single car into the studio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			format := strings.ToLower(utils.GetFileExtension(out))
			if format != "png" && format != "webp" {
				return fmt.Errorf("%w: --out must end in .png or .webp", types.ErrInvalidParameter)
			}

			runner := batch.NewRunner(cfg.PipelineParams(), cfg.AnalyzerConfig(), batch.Options{
				OutputDir:   filepath.Dir(out),
				Format:      format,
				Quality:     cfg.Output.Quality,
				Lossless:    cfg.Output.Lossless,
				Debug:       cfg.Output.Debug,
				DebugFormat: cfg.Output.DebugFormat,
				Workers:     1,
				ItemTimeout: cfg.Batch.ItemTimeout,
			})

			res := runner.ProcessItem(cmd.Context(), item, out)
			if res.Err != nil {
				return res.Err
			}
			logging.Logger().Debug("layout", "viewport", res.Layout.Viewport, "car", res.Layout.CarRect())
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			if res.Debug != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Debug)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&item.Car, "car", "", "car photo")
	f.StringVar(&item.Mask, "mask", "", "car segmentation mask")
	f.StringVar(&item.Wall, "wall", "", "studio wall image")
	f.StringVar(&item.Floor, "floor", "", "studio floor image")
	f.StringVar(&item.ShadowMask, "shadow-mask", "", "shadow mask (accepted, not used)")
	f.StringVar(&out, "out", "", "output file (.png or .webp)")
	for _, name := range []string{"car", "mask", "wall", "floor", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
