package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/car-studio/internal/logging"
	"github.com/menta2k/car-studio/pkg/classify"
	"github.com/menta2k/car-studio/pkg/client"
	"github.com/menta2k/car-studio/pkg/llamacpp"
	"github.com/menta2k/car-studio/pkg/ollama"
	"github.com/menta2k/car-studio/pkg/processing"
	"github.com/menta2k/car-studio/pkg/types"
)

func newClassifyCmd(g *globalOptions) *cobra.Command {
	var in, backend, url, model string
	var labels []string
	var testVision bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a car image with a vision model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("backend") {
				cfg.Classifier.Backend = backend
			}
			if flags.Changed("url") {
				cfg.Classifier.URL = url
			}
			if flags.Changed("model") {
				cfg.Classifier.Model = model
			}

			vc, err := newVisionClient(cfg.Classifier.Backend, cfg.Classifier.URL)
			if err != nil {
				return err
			}
			classifier, err := classify.New(vc,
				classify.WithThreshold(cfg.Classifier.Threshold),
				classify.WithLabels(labels...))
			if err != nil {
				return err
			}

			processor := processing.NewProcessor()
			img, err := processor.LoadImageSmart(in)
			if err != nil {
				return err
			}
			imgB64, err := processor.PrepareImageForModel(img, "jpg", cfg.Classifier.SendSize, cfg.Classifier.SendQuality)
			if err != nil {
				return err
			}

			start := time.Now()
			if testVision {
				answer, err := classifier.TestVision(cmd.Context(), cfg.Classifier.Model, imgB64)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			}

			res, err := classifier.Classify(cmd.Context(), cfg.Classifier.Model, imgB64)
			if err != nil {
				return err
			}
			logging.Logger().Info("classified", "image", in, "label", res.Label, "confidence", res.Confidence,
				"accepted", res.Accepted, "elapsed", time.Since(start).Round(time.Millisecond))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in, "in", "", "input image path or URL")
	f.StringVar(&backend, "backend", "", "backend: ollama|llamacpp (overrides classifier.backend)")
	f.StringVar(&url, "url", "", "model server URL (overrides classifier.url)")
	f.StringVar(&model, "model", "", "model name (overrides classifier.model)")
	f.StringSliceVar(&labels, "labels", nil, "restrict answers to these labels")
	f.BoolVar(&testVision, "test-vision", false, "ask the model to describe the image instead of classifying it")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newVisionClient(backend, url string) (client.VisionClient, error) {
	switch backend {
	case "ollama":
		return ollama.NewClient(url)
	case "llamacpp":
		return llamacpp.NewClient(url)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q (use ollama or llamacpp)", types.ErrInvalidParameter, backend)
	}
}
