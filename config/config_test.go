package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/outliner"
	"github.com/tsawler/outliner/export"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outliner.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}

	if cfg.Workers != 1 || cfg.OutputDir != "output" || cfg.OCR.Language != "eng" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("server defaults = %+v", cfg.Server)
	}

	if pc := cfg.PipelineConfig(); pc != outliner.DefaultConfig() {
		t.Errorf("PipelineConfig() = %+v, want pipeline defaults", pc)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
input: [docs, extra/report.pdf]
output_dir: out
workers: 4
ocr:
  enabled: true
merge:
  vertical_factor: 1.5
fusion:
  min_confidence: 0.7
outline:
  merge_distance: 12
  title_from_metadata: true
format: csv
server:
  write_timeout: 2m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Input) != 2 || cfg.OutputDir != "out" || cfg.Workers != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.OCR.Enabled || cfg.OCR.Language != "eng" {
		t.Errorf("ocr = %+v, language default should survive", cfg.OCR)
	}
	if !cfg.Outline.TitleFromMetadata {
		t.Error("title_from_metadata not loaded")
	}
	if cfg.Server.WriteTimeout != 2*time.Minute || cfg.Server.Addr != ":8080" {
		t.Errorf("server = %+v", cfg.Server)
	}

	pc := cfg.PipelineConfig()
	if pc.Merge.VerticalFactor != 1.5 || pc.Merge.FontSizeTolerance != 1.0 {
		t.Errorf("merge = %+v", pc.Merge)
	}
	if pc.Fusion.MinConfidence != 0.7 || pc.Fusion.HighConfidence != 0.9 {
		t.Errorf("fusion = %+v", pc.Fusion)
	}
	if pc.Outline.MergeDistance != 12 {
		t.Errorf("outline = %+v", pc.Outline)
	}

	ec, err := cfg.ExportConfig()
	if err != nil || ec.Format != export.ExportFormatCSV {
		t.Errorf("ExportConfig() = %+v, %v", ec, err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"negative workers", "workers: -1", "workers"},
		{"confidence above one", "fusion:\n  high_confidence: 1.5", "fusion.high_confidence"},
		{"zero confidence", "fusion:\n  min_confidence: 0", "fusion.min_confidence"},
		{"zero tolerance", "merge:\n  font_size_tolerance: 0", "merge.font_size_tolerance"},
		{"negative distance", "outline:\n  merge_distance: -3", "outline.merge_distance"},
		{"unknown format", "format: xml", "format"},
		{"bad yaml", "workers: [", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Workers = -2
	cfg.Merge.RepeatThreshold = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	if !strings.Contains(err.Error(), "workers") || !strings.Contains(err.Error(), "repeat_threshold") {
		t.Errorf("Validate() error = %v", err)
	}
}
