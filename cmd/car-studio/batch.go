package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/car-studio/pkg/batch"
)

func newBatchCmd(g *globalOptions) *cobra.Command {
	var descriptor, outDir string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Composite every item listed in a descriptor file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Output.Dir = outDir
			}
			if cmd.Flags().Changed("workers") {
				cfg.Batch.Workers = workers
			}

			d, err := batch.LoadDescriptor(descriptor)
			if err != nil {
				return err
			}
			if err := d.Validate(); err != nil {
				return err
			}

			runner := batch.NewRunner(cfg.PipelineParams(), cfg.AnalyzerConfig(), batch.Options{
				OutputDir:   cfg.Output.Dir,
				Format:      cfg.Output.Format,
				Quality:     cfg.Output.Quality,
				Lossless:    cfg.Output.Lossless,
				Prefix:      cfg.Output.Prefix,
				Suffix:      cfg.Output.Suffix,
				Debug:       cfg.Output.Debug,
				DebugFormat: cfg.Output.DebugFormat,
				Workers:     cfg.Batch.Workers,
				ItemTimeout: cfg.Batch.ItemTimeout,
			})

			summary, err := runner.Run(cmd.Context(), d.Items)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, res := range summary.Results {
				if res.Err != nil {
					fmt.Fprintf(w, "FAIL %s: %v\n", res.Item.Car, res.Err)
					continue
				}
				fmt.Fprintf(w, "ok   %s -> %s\n", res.Item.Car, res.Output)
			}
			fmt.Fprintf(w, "run %s: %d succeeded, %d failed\n", summary.RunID, summary.Succeeded, summary.Failed)

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d items failed", summary.Failed, len(summary.Results))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&descriptor, "descriptor", "", "batch descriptor file (YAML or JSON)")
	f.StringVar(&outDir, "out", "", "output directory (overrides output.dir)")
	f.IntVar(&workers, "workers", 0, "parallel workers, 0 = one per CPU (overrides batch.workers)")
	_ = cmd.MarkFlagRequired("descriptor")
	return cmd
}
