// Command car-studio composites car photos into a virtual studio and
// classifies car images through a vision model server.
package main

import (
	"os"

	"github.com/spf13/cobra"

	carstudio "github.com/menta2k/car-studio"
	"github.com/menta2k/car-studio/internal/config"
	"github.com/menta2k/car-studio/internal/logging"
	"github.com/menta2k/car-studio/internal/utils"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	configPath string
	logLevel   string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "car-studio",
		Short:         "Composite car photos into a virtual studio",
		Version:       carstudio.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetLogger(logging.NewText(logging.ParseLevel(opts.logLevel)))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file, YAML or JSON (default "+config.GetConfigPath()+" when present)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	flags.BoolVar(&opts.debug, "debug", false, "also write debug overlays showing the viewport and car placement")

	root.AddCommand(
		newCompositeCmd(opts),
		newBatchCmd(opts),
		newClassifyCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// loadConfig reads the configuration file, or the default one when it
// exists, and applies the global overrides
func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if p := config.GetConfigPath(); utils.FileExists(p) {
			path = p
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		logging.Logger().Debug("configuration loaded", "path", path)
	}
	if o.debug {
		cfg.Output.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
