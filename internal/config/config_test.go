package config

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/keagraha/Cluster-Research-Stuff/internal/partition"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func ptr(v float64) *float64 { return &v }

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
catalog:
  path: "./data/clusters.csv"
  columns:
    richness: "LAMBDA_CHISQ"

splits:
  redshift_split_low: 0.29
  redshift_split_high: 0.44
  richness_split_low: 91
  richness_split_high: 114.7

charts:
  render_charts: false
  bins: 20

report:
  format: "yaml"

logging:
  level: "debug"
  format: "json"
`)

	// Test Load
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Catalog.Path != "./data/clusters.csv" {
		t.Errorf("Unexpected catalog path: %s", cfg.Catalog.Path)
	}
	if cfg.Catalog.Columns.Richness != "LAMBDA_CHISQ" {
		t.Errorf("Unexpected richness column: %s", cfg.Catalog.Columns.Richness)
	}
	if cfg.Catalog.Columns.Redshift != "Redshift" {
		t.Errorf("Expected default redshift column, got %s", cfg.Catalog.Columns.Redshift)
	}
	if cfg.Charts.RenderCharts {
		t.Error("Expected render_charts false")
	}
	if cfg.Charts.Bins != 20 {
		t.Errorf("Unexpected bins: %d", cfg.Charts.Bins)
	}
	if cfg.Splits.RedshiftSplit != nil {
		t.Errorf("Expected unset redshift_split, got %v", *cfg.Splits.RedshiftSplit)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	th, err := cfg.Splits.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds failed: %v", err)
	}
	if diff := cmp.Diff(partition.DefaultThreeWay(), th); diff != "" {
		t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed on defaults: %v", err)
	}

	th, err := cfg.Splits.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds failed: %v", err)
	}
	if diff := cmp.Diff(partition.DefaultTwoWay(), th); diff != "" {
		t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Charts.RenderCharts {
		t.Error("Expected render_charts to default to true")
	}
	if cfg.Report.Format != "text" {
		t.Errorf("Unexpected report format: %s", cfg.Report.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml", nil); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	path := writeConfig(t, `
splits:
  redshift_split: 0.5
  ratio_split: 0.8
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("redshift-split", 0.45, "")
	flags.Float64("ratio-split", 0.9, "")
	flags.Bool("render-charts", true, "")
	if err := flags.Parse([]string{"--redshift-split=0.6", "--render-charts=false"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Splits.RedshiftSplit == nil || *cfg.Splits.RedshiftSplit != 0.6 {
		t.Errorf("Expected redshift_split 0.6 from flag, got %v", cfg.Splits.RedshiftSplit)
	}
	// Unchanged flags must not override the file.
	if cfg.Splits.RatioSplit == nil || *cfg.Splits.RatioSplit != 0.8 {
		t.Errorf("Expected ratio_split 0.8 from file, got %v", cfg.Splits.RatioSplit)
	}
	if cfg.Charts.RenderCharts {
		t.Error("Expected render_charts false from flag")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HISTOGRAM_MAKER_SPLITS_RICHNESS_SPLIT", "120")
	t.Setenv("HISTOGRAM_MAKER_LOGGING_LEVEL", "warn")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Splits.RichnessSplit == nil || *cfg.Splits.RichnessSplit != 120 {
		t.Errorf("Expected richness_split 120 from env, got %v", cfg.Splits.RichnessSplit)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected logging level warn from env, got %s", cfg.Logging.Level)
	}
}

func TestSplitsThresholds(t *testing.T) {
	tests := []struct {
		name    string
		splits  SplitsConfig
		want    partition.Thresholds
		wantErr bool
	}{
		{
			name:   "defaults are two-way",
			splits: SplitsConfig{},
			want:   partition.DefaultTwoWay(),
		},
		{
			name:   "explicit single splits",
			splits: SplitsConfig{RedshiftSplit: ptr(0.3), RichnessSplit: ptr(80), RatioSplit: ptr(0.75)},
			want: partition.Thresholds{
				Redshift: partition.TwoWay(0.3),
				Richness: partition.TwoWay(80),
				Ratio:    0.75,
			},
		},
		{
			name:   "three-way on one axis switches ratio default",
			splits: SplitsConfig{RedshiftSplitLow: ptr(0.2), RedshiftSplitHigh: ptr(0.5)},
			want: partition.Thresholds{
				Redshift: partition.ThreeWay(0.2, 0.5),
				Richness: partition.TwoWay(100),
				Ratio:    0.7,
			},
		},
		{
			name:    "only low split",
			splits:  SplitsConfig{RichnessSplitLow: ptr(91)},
			wantErr: true,
		},
		{
			name:    "single with low and high",
			splits:  SplitsConfig{RedshiftSplit: ptr(0.4), RedshiftSplitLow: ptr(0.2), RedshiftSplitHigh: ptr(0.5)},
			wantErr: true,
		},
		{
			name:    "negative ratio",
			splits:  SplitsConfig{RatioSplit: ptr(-1)},
			wantErr: true,
		},
		{
			name:    "inverted three-way",
			splits:  SplitsConfig{RichnessSplitLow: ptr(120), RichnessSplitHigh: ptr(90)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.splits.Thresholds()
			if tt.wantErr {
				if !errors.Is(err, partition.ErrInvalidConfiguration) {
					t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Thresholds failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: "catalog.fits",
			HDU:  1,
			Columns: ColumnsConfig{
				Redshift:        "Redshift",
				Richness:        "lambda",
				CoreTemperature: "core_temperature",
				R500Temperature: "r500_core_cropped_temperature",
			},
		},
		Charts: ChartsConfig{
			RenderCharts: true,
			OutputDir:    "./charts",
			Format:       "png",
			Bins:         10,
			WidthInches:  6.4,
			HeightInches: 4.8,
			Workers:      2,
		},
		Report:  ReportConfig{Format: "text", Style: "plain"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing catalog path", mutate: func(c *Config) { c.Catalog.Path = "" }, wantErr: true},
		{name: "unknown catalog format", mutate: func(c *Config) { c.Catalog.Format = "parquet" }, wantErr: true},
		{name: "empty column name", mutate: func(c *Config) { c.Catalog.Columns.Richness = "" }, wantErr: true},
		{name: "negative split", mutate: func(c *Config) { c.Splits.RedshiftSplit = ptr(-0.45) }, wantErr: true},
		{name: "zero bins", mutate: func(c *Config) { c.Charts.Bins = 0 }, wantErr: true},
		{name: "bad chart format", mutate: func(c *Config) { c.Charts.Format = "gif" }, wantErr: true},
		{name: "chart format ignored when not rendering", mutate: func(c *Config) {
			c.Charts.RenderCharts = false
			c.Charts.Format = "gif"
		}, wantErr: false},
		{name: "bad report format", mutate: func(c *Config) { c.Report.Format = "xml" }, wantErr: true},
		{name: "bad report style", mutate: func(c *Config) { c.Report.Style = "fancy" }, wantErr: true},
		{name: "missing telegram token when enabled", mutate: func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.ChatID = "42"
		}, wantErr: true},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.example.yaml", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example config does not validate: %v", err)
	}

	th, err := cfg.Splits.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds failed: %v", err)
	}
	if diff := cmp.Diff(partition.DefaultTwoWay(), th); diff != "" {
		t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSplitPrecedence(t *testing.T) {
	fileSingle := `
splits:
  redshift_split: 0.45
  richness_split: 100
`
	filePair := `
splits:
  redshift_split_low: 0.29
  redshift_split_high: 0.44
`

	tests := []struct {
		name      string
		file      string
		env       map[string]string
		args      []string
		wantCuts  []float64
		wantError bool
	}{
		{
			name:     "flag pair overrides file single",
			file:     fileSingle,
			args:     []string{"--redshift-split-low=0.2", "--redshift-split-high=0.6"},
			wantCuts: []float64{0.2, 0.6},
		},
		{
			name:     "flag single overrides file pair",
			file:     filePair,
			args:     []string{"--redshift-split=0.5"},
			wantCuts: []float64{0.5},
		},
		{
			name:     "env pair overrides file single",
			file:     fileSingle,
			env:      map[string]string{"HISTOGRAM_MAKER_SPLITS_REDSHIFT_SPLIT_LOW": "0.3", "HISTOGRAM_MAKER_SPLITS_REDSHIFT_SPLIT_HIGH": "0.5"},
			wantCuts: []float64{0.3, 0.5},
		},
		{
			name: "single and pair in the same file",
			file: `
splits:
  redshift_split: 0.45
  redshift_split_low: 0.29
  redshift_split_high: 0.44
`,
			wantError: true,
		},
		{
			name:      "single and pair as flags",
			args:      []string{"--redshift-split=0.45", "--redshift-split-low=0.2", "--redshift-split-high=0.6"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.Float64("redshift-split", 0.45, "")
			flags.Float64("redshift-split-low", 0.29, "")
			flags.Float64("redshift-split-high", 0.44, "")
			if err := flags.Parse(tt.args); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(path, flags)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			th, err := cfg.Splits.Thresholds()
			if tt.wantError {
				if !errors.Is(err, partition.ErrInvalidConfiguration) {
					t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Thresholds failed: %v", err)
			}
			if diff := cmp.Diff(tt.wantCuts, th.Redshift.Cuts); diff != "" {
				t.Errorf("redshift cuts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
