package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/car-studio/pkg/analyzer"
	"github.com/menta2k/car-studio/pkg/mask"
	"github.com/menta2k/car-studio/pkg/pipeline"
	"github.com/menta2k/car-studio/pkg/scene"
	"github.com/menta2k/car-studio/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Placement  types.PlacementParams `yaml:"placement"`
	Scene      SceneConfig           `yaml:"scene"`
	Mask       MaskConfig            `yaml:"mask"`
	Batch      BatchConfig           `yaml:"batch"`
	Output     OutputConfig          `yaml:"output"`
	Classifier ClassifierConfig      `yaml:"classifier"`
}

// SceneConfig holds configuration for background assembly
type SceneConfig struct {
	FloorStartHeight int `yaml:"floor_start_height"`
}

// MaskConfig holds configuration for mask cleanup
type MaskConfig struct {
	MedianSize int `yaml:"median_size"`
}

// BatchConfig holds configuration for the batch runner
type BatchConfig struct {
	Workers          int           `yaml:"workers"`
	ItemTimeout      time.Duration `yaml:"item_timeout"`
	MaxPixels        int           `yaml:"max_pixels"`
	MinImageSize     int           `yaml:"min_image_size"`
	SupportedFormats []string      `yaml:"supported_formats"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Format      string `yaml:"format"`
	Quality     int    `yaml:"quality"`
	Lossless    bool   `yaml:"lossless"`
	Prefix      string `yaml:"prefix"`
	Suffix      string `yaml:"suffix"`
	Debug       bool   `yaml:"debug"`
	DebugFormat string `yaml:"debug_format"`
}

// ClassifierConfig holds configuration for the vision model backend
type ClassifierConfig struct {
	Backend     string  `yaml:"backend"`
	URL         string  `yaml:"url"`
	Model       string  `yaml:"model"`
	Threshold   float64 `yaml:"threshold"`
	SendSize    int     `yaml:"send_size"`
	SendQuality int     `yaml:"send_quality"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Placement: types.DefaultPlacementParams(),
		Scene: SceneConfig{
			FloorStartHeight: scene.DefaultFloorStartHeight,
		},
		Mask: MaskConfig{
			MedianSize: mask.DefaultMedianSize,
		},
		Batch: BatchConfig{
			Workers:          0,
			ItemTimeout:      2 * time.Minute,
			MaxPixels:        analyzer.DefaultMaxPixels,
			MinImageSize:     1,
			SupportedFormats: []string{"jpeg", "png", "webp", "bmp", "tiff"},
		},
		Output: OutputConfig{
			Dir:         "./output",
			Format:      "png",
			Quality:     90,
			Lossless:    true,
			Prefix:      "",
			Suffix:      "",
			Debug:       false,
			DebugFormat: "jpg",
		},
		Classifier: ClassifierConfig{
			Backend:     "ollama",
			URL:         "http://localhost:11434",
			Model:       "llava",
			Threshold:   0.8,
			SendSize:    320,
			SendQuality: 85,
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file. Keys missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Placement.Validate(); err != nil {
		return fmt.Errorf("placement: %w", err)
	}

	if c.Scene.FloorStartHeight < 0 {
		return fmt.Errorf("%w: scene.floor_start_height must not be negative", types.ErrInvalidParameter)
	}

	if c.Mask.MedianSize < 1 || c.Mask.MedianSize%2 == 0 {
		return fmt.Errorf("%w: mask.median_size must be a positive odd number", types.ErrInvalidParameter)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: batch.workers must not be negative", types.ErrInvalidParameter)
	}

	if c.Batch.ItemTimeout < 0 {
		return fmt.Errorf("%w: batch.item_timeout must not be negative", types.ErrInvalidParameter)
	}

	if c.Batch.MinImageSize < 1 {
		return fmt.Errorf("%w: batch.min_image_size must be positive", types.ErrInvalidParameter)
	}

	if c.Batch.MaxPixels < 0 {
		return fmt.Errorf("%w: batch.max_pixels must not be negative", types.ErrInvalidParameter)
	}

	switch strings.ToLower(c.Output.Format) {
	case "png", "webp":
	default:
		return fmt.Errorf("%w: output.format must be png or webp, got %q", types.ErrInvalidParameter, c.Output.Format)
	}

	switch strings.ToLower(c.Output.DebugFormat) {
	case "png", "webp", "jpg", "jpeg":
	default:
		return fmt.Errorf("%w: output.debug_format %q is not supported", types.ErrInvalidParameter, c.Output.DebugFormat)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("%w: output.quality must be between 1 and 100", types.ErrInvalidParameter)
	}

	switch c.Classifier.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("%w: classifier.backend must be ollama or llamacpp, got %q", types.ErrInvalidParameter, c.Classifier.Backend)
	}

	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 1 {
		return fmt.Errorf("%w: classifier.threshold must be between 0 and 1", types.ErrInvalidParameter)
	}

	if c.Classifier.SendQuality < 1 || c.Classifier.SendQuality > 100 {
		return fmt.Errorf("%w: classifier.send_quality must be between 1 and 100", types.ErrInvalidParameter)
	}

	return nil
}

// PipelineParams returns the pipeline tunables held by the configuration
func (c *Config) PipelineParams() pipeline.Params {
	return pipeline.Params{
		Placement:        c.Placement,
		FloorStartHeight: c.Scene.FloorStartHeight,
		MedianSize:       c.Mask.MedianSize,
	}
}

// AnalyzerConfig returns the input guard settings held by the configuration
func (c *Config) AnalyzerConfig() analyzer.Config {
	return analyzer.Config{
		SupportedFormats: c.Batch.SupportedFormats,
		MinImageSize:     c.Batch.MinImageSize,
		MaxPixels:        c.Batch.MaxPixels,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "car-studio", "config.yaml")
}
