// Package config loads the outliner YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/outliner"
	"github.com/tsawler/outliner/export"
)

// Config holds the full outliner configuration.
type Config struct {
	Input          []string      `yaml:"input"`
	OutputDir      string        `yaml:"output_dir"`
	Model          string        `yaml:"model"`
	Workers        int           `yaml:"workers"`
	OCR            OCRConfig     `yaml:"ocr"`
	Merge          MergeConfig   `yaml:"merge"`
	Fusion         FusionConfig  `yaml:"fusion"`
	Outline        OutlineConfig `yaml:"outline"`
	Ledger         string        `yaml:"ledger"`
	Index          string        `yaml:"index"`
	Format         string        `yaml:"format"`
	ValidateOutput bool          `yaml:"validate_output"`
	MaxFileSize    int64         `yaml:"max_file_size"`
	Server         ServerConfig  `yaml:"server"`
}

// OCRConfig configures text recognition for pages without a text layer.
type OCRConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

// MergeConfig configures the line merger.
type MergeConfig struct {
	FontSizeTolerance float64 `yaml:"font_size_tolerance"`
	VerticalFactor    float64 `yaml:"vertical_factor"`
	RepeatThreshold   int     `yaml:"repeat_threshold"`
}

// FusionConfig configures how classifier labels and style levels combine.
type FusionConfig struct {
	HighConfidence float64 `yaml:"high_confidence"`
	MinConfidence  float64 `yaml:"min_confidence"`
}

// OutlineConfig configures outline assembly.
type OutlineConfig struct {
	MergeDistance     float64 `yaml:"merge_distance"`
	MinTextLength     int     `yaml:"min_text_length"`
	TitleFromMetadata bool    `yaml:"title_from_metadata"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	pipeline := outliner.DefaultConfig()
	return &Config{
		OutputDir: "output",
		Workers:   1,
		OCR: OCRConfig{
			Language: "eng",
		},
		Merge: MergeConfig{
			FontSizeTolerance: pipeline.Merge.FontSizeTolerance,
			VerticalFactor:    pipeline.Merge.VerticalFactor,
			RepeatThreshold:   pipeline.Merge.RepeatThreshold,
		},
		Fusion: FusionConfig{
			HighConfidence: pipeline.Fusion.HighConfidence,
			MinConfidence:  pipeline.Fusion.MinConfidence,
		},
		Outline: OutlineConfig{
			MergeDistance: pipeline.Outline.MergeDistance,
			MinTextLength: pipeline.Fusion.MinTextLength,
		},
		Format:      "json",
		MaxFileSize: 100 << 20,
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Load reads a YAML file over Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.Merge.FontSizeTolerance <= 0 {
		errs = append(errs, errors.New("merge.font_size_tolerance must be > 0"))
	}
	if c.Merge.VerticalFactor <= 0 {
		errs = append(errs, errors.New("merge.vertical_factor must be > 0"))
	}
	if c.Merge.RepeatThreshold <= 0 {
		errs = append(errs, errors.New("merge.repeat_threshold must be > 0"))
	}
	if c.Fusion.HighConfidence <= 0 || c.Fusion.HighConfidence > 1 {
		errs = append(errs, fmt.Errorf("fusion.high_confidence must be in (0, 1], got %v", c.Fusion.HighConfidence))
	}
	if c.Fusion.MinConfidence <= 0 || c.Fusion.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("fusion.min_confidence must be in (0, 1], got %v", c.Fusion.MinConfidence))
	}
	if c.Outline.MergeDistance <= 0 {
		errs = append(errs, errors.New("outline.merge_distance must be > 0"))
	}
	if c.Outline.MinTextLength <= 0 {
		errs = append(errs, errors.New("outline.min_text_length must be > 0"))
	}
	if c.MaxFileSize < 0 {
		errs = append(errs, errors.New("max_file_size must be >= 0"))
	}
	if _, err := export.ParseFormat(c.Format); err != nil {
		errs = append(errs, fmt.Errorf("format: %w", err))
	}
	return errors.Join(errs...)
}

// PipelineConfig converts the thresholds to the pipeline's configuration.
func (c *Config) PipelineConfig() outliner.Config {
	pc := outliner.DefaultConfig()
	pc.Merge.FontSizeTolerance = c.Merge.FontSizeTolerance
	pc.Merge.VerticalFactor = c.Merge.VerticalFactor
	pc.Merge.RepeatThreshold = c.Merge.RepeatThreshold
	pc.Fusion.HighConfidence = c.Fusion.HighConfidence
	pc.Fusion.MinConfidence = c.Fusion.MinConfidence
	pc.Fusion.MinTextLength = c.Outline.MinTextLength
	pc.Outline.MergeDistance = c.Outline.MergeDistance
	return pc
}

// ExportConfig returns the exporter settings.
func (c *Config) ExportConfig() (export.ExportConfig, error) {
	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return export.ExportConfig{}, err
	}
	ec := export.DefaultExportConfig()
	ec.Format = format
	ec.Validate = c.ValidateOutput
	return ec, nil
}
