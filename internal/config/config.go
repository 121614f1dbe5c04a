package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/keagraha/Cluster-Research-Stuff/internal/models"
	"github.com/keagraha/Cluster-Research-Stuff/internal/partition"
)

// Config represents the complete application configuration
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Splits   SplitsConfig   `mapstructure:"splits"`
	Charts   ChartsConfig   `mapstructure:"charts"`
	Report   ReportConfig   `mapstructure:"report"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CatalogConfig describes where the cluster catalog is read from
type CatalogConfig struct {
	Path    string        `mapstructure:"path"`
	Format  string        `mapstructure:"format"` // csv, fits or sqlite; empty = from extension
	Table   string        `mapstructure:"table"`  // sqlite table
	HDU     int           `mapstructure:"hdu"`    // fits HDU index, 0 = first table
	Columns ColumnsConfig `mapstructure:"columns"`
}

// ColumnsConfig maps catalog column names to the fields the analysis needs
type ColumnsConfig struct {
	Redshift        string `mapstructure:"redshift"`
	Richness        string `mapstructure:"richness"`
	CoreTemperature string `mapstructure:"core_temperature"`
	R500Temperature string `mapstructure:"r500_core_cropped_temperature"`
}

// SplitsConfig holds the partition thresholds. Unset values are nil so that
// the number of cuts per axis follows from what the user supplied.
type SplitsConfig struct {
	RedshiftSplit     *float64 `mapstructure:"redshift_split"`
	RedshiftSplitLow  *float64 `mapstructure:"redshift_split_low"`
	RedshiftSplitHigh *float64 `mapstructure:"redshift_split_high"`
	RichnessSplit     *float64 `mapstructure:"richness_split"`
	RichnessSplitLow  *float64 `mapstructure:"richness_split_low"`
	RichnessSplitHigh *float64 `mapstructure:"richness_split_high"`
	RatioSplit        *float64 `mapstructure:"ratio_split"`
}

// ChartsConfig holds histogram rendering configuration
type ChartsConfig struct {
	RenderCharts bool    `mapstructure:"render_charts"`
	OutputDir    string  `mapstructure:"output_dir"`
	Format       string  `mapstructure:"format"`
	Bins         int     `mapstructure:"bins"`
	WidthInches  float64 `mapstructure:"width_inches"`
	HeightInches float64 `mapstructure:"height_inches"`
	Workers      int     `mapstructure:"workers"`
}

// ReportConfig holds summary report configuration
type ReportConfig struct {
	Format       string `mapstructure:"format"`
	Style        string `mapstructure:"style"`
	Distribution bool   `mapstructure:"distribution"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	SendCharts     bool          `mapstructure:"send_charts"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envPrefix prefixes every environment variable override.
const envPrefix = "HISTOGRAM_MAKER"

// splitKeys are the threshold keys; they have no defaults and are bound to the
// environment explicitly so an unset key stays nil.
var splitKeys = []string{
	"splits.redshift_split",
	"splits.redshift_split_low",
	"splits.redshift_split_high",
	"splits.richness_split",
	"splits.richness_split_low",
	"splits.richness_split_high",
	"splits.ratio_split",
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"catalog":             "catalog.path",
	"catalog-format":      "catalog.format",
	"redshift-split":      "splits.redshift_split",
	"redshift-split-low":  "splits.redshift_split_low",
	"redshift-split-high": "splits.redshift_split_high",
	"richness-split":      "splits.richness_split",
	"richness-split-low":  "splits.richness_split_low",
	"richness-split-high": "splits.richness_split_high",
	"ratio-split":         "splits.ratio_split",
	"render-charts":       "charts.render_charts",
	"output-dir":          "charts.output_dir",
	"report-format":       "report.format",
	"log-level":           "logging.level",
}

// Load reads configuration from file, environment variables and flags.
// An empty path skips the config file. Only flags that were set on the
// command line override other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range splitKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind changed flags
	fromFlags := make(map[string]bool)
	if flags != nil {
		var bindErr error
		flags.Visit(func(f *pflag.Flag) {
			key, ok := FlagKeys[f.Name]
			if !ok || bindErr != nil {
				return
			}
			fromFlags[key] = true
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Splits.dropShadowed(func(key string) int { return sourceRank(v, fromFlags, key) })

	return &cfg, nil
}

// sourceRank orders the sources a key can come from, following viper's
// precedence: 3 flag, 2 environment, 1 config file, 0 unset.
func sourceRank(v *viper.Viper, fromFlags map[string]bool, key string) int {
	switch {
	case fromFlags[key]:
		return 3
	case os.Getenv(envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))) != "":
		return 2
	case v.InConfig(key):
		return 1
	default:
		return 0
	}
}

// dropShadowed resolves an axis that has both a single split and a low/high
// pair by keeping whichever came from the higher-precedence source. A flag
// pair thus overrides a single split from the config file and vice versa.
// Ties are left in place and rejected by Thresholds.
func (s *SplitsConfig) dropShadowed(rank func(key string) int) {
	for _, axis := range []struct {
		prefix    string
		single    **float64
		low, high **float64
	}{
		{"splits.redshift_split", &s.RedshiftSplit, &s.RedshiftSplitLow, &s.RedshiftSplitHigh},
		{"splits.richness_split", &s.RichnessSplit, &s.RichnessSplitLow, &s.RichnessSplitHigh},
	} {
		if *axis.single == nil || *axis.low == nil || *axis.high == nil {
			continue
		}
		single := rank(axis.prefix)
		pair := max(rank(axis.prefix+"_low"), rank(axis.prefix+"_high"))
		switch {
		case pair > single:
			*axis.single = nil
		case single > pair:
			*axis.low, *axis.high = nil, nil
		}
	}
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Catalog defaults
	v.SetDefault("catalog.path", "y3a2-6.4.22+2_merged_and_filteredforealsies.fits")
	v.SetDefault("catalog.format", "")
	v.SetDefault("catalog.table", "clusters")
	v.SetDefault("catalog.hdu", 1)
	v.SetDefault("catalog.columns.redshift", models.ColumnRedshift)
	v.SetDefault("catalog.columns.richness", models.ColumnRichness)
	v.SetDefault("catalog.columns.core_temperature", models.ColumnCoreTemperature)
	v.SetDefault("catalog.columns.r500_core_cropped_temperature", models.ColumnR500Temperature)

	// Chart defaults
	v.SetDefault("charts.render_charts", true)
	v.SetDefault("charts.output_dir", "./charts")
	v.SetDefault("charts.format", "png")
	v.SetDefault("charts.bins", 10)
	v.SetDefault("charts.width_inches", 6.4)
	v.SetDefault("charts.height_inches", 4.8)
	v.SetDefault("charts.workers", 4)

	// Report defaults
	v.SetDefault("report.format", "text")
	v.SetDefault("report.style", "plain")
	v.SetDefault("report.distribution", false)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.send_charts", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Thresholds resolves the configured splits into partition thresholds.
// Supplying both a low and a high split on an axis selects the three-way
// variant; otherwise the single split (or its default) gives two buckets.
// When ratio_split is unset it defaults to 0.7 if any axis is three-way and
// to 0.9 otherwise.
func (s SplitsConfig) Thresholds() (partition.Thresholds, error) {
	redshift, err := resolveSplit("redshift", s.RedshiftSplit, s.RedshiftSplitLow, s.RedshiftSplitHigh, partition.DefaultRedshiftSplit)
	if err != nil {
		return partition.Thresholds{}, err
	}
	richness, err := resolveSplit("richness", s.RichnessSplit, s.RichnessSplitLow, s.RichnessSplitHigh, partition.DefaultRichnessSplit)
	if err != nil {
		return partition.Thresholds{}, err
	}

	ratio := partition.DefaultRatioSplit
	if redshift.Ways() == 3 || richness.Ways() == 3 {
		ratio = partition.DefaultRatioSplitBinned
	}
	if s.RatioSplit != nil {
		ratio = *s.RatioSplit
	}

	th := partition.Thresholds{Redshift: redshift, Richness: richness, Ratio: ratio}
	if err := th.Validate(); err != nil {
		return partition.Thresholds{}, err
	}
	return th, nil
}

func resolveSplit(axis string, single, low, high *float64, def float64) (partition.Split, error) {
	switch {
	case low != nil && high != nil:
		if single != nil {
			return partition.Split{}, fmt.Errorf("%w: %s_split cannot be combined with %s_split_low/%s_split_high",
				partition.ErrInvalidConfiguration, axis, axis, axis)
		}
		return partition.ThreeWay(*low, *high), nil
	case low != nil || high != nil:
		return partition.Split{}, fmt.Errorf("%w: %s_split_low and %s_split_high must be set together",
			partition.ErrInvalidConfiguration, axis, axis)
	case single != nil:
		return partition.TwoWay(*single), nil
	default:
		return partition.TwoWay(def), nil
	}
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Catalog config
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	validCatalogFormats := map[string]bool{"": true, "csv": true, "fits": true, "sqlite": true}
	if !validCatalogFormats[strings.ToLower(c.Catalog.Format)] {
		return fmt.Errorf("catalog.format must be one of: csv, fits, sqlite")
	}
	if c.Catalog.HDU < 0 {
		return fmt.Errorf("catalog.hdu must not be negative")
	}
	cols := c.Catalog.Columns
	if cols.Redshift == "" || cols.Richness == "" || cols.CoreTemperature == "" || cols.R500Temperature == "" {
		return fmt.Errorf("catalog.columns must name all four columns")
	}

	// Validate Splits config
	if _, err := c.Splits.Thresholds(); err != nil {
		return err
	}

	// Validate Charts config
	if c.Charts.RenderCharts {
		if c.Charts.OutputDir == "" {
			return fmt.Errorf("charts.output_dir is required when render_charts is enabled")
		}
		validChartFormats := map[string]bool{"png": true, "svg": true, "pdf": true, "jpg": true}
		if !validChartFormats[strings.ToLower(c.Charts.Format)] {
			return fmt.Errorf("charts.format must be one of: png, svg, pdf, jpg")
		}
		if c.Charts.WidthInches <= 0 || c.Charts.HeightInches <= 0 {
			return fmt.Errorf("charts.width_inches and charts.height_inches must be positive")
		}
		if c.Charts.Workers < 1 {
			return fmt.Errorf("charts.workers must be at least 1")
		}
	}
	if c.Charts.Bins < 1 {
		return fmt.Errorf("charts.bins must be at least 1")
	}

	// Validate Report config
	validReportFormats := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validReportFormats[c.Report.Format] {
		return fmt.Errorf("report.format must be one of: text, json, yaml")
	}
	validStyles := map[string]bool{"plain": true, "styled": true}
	if !validStyles[c.Report.Style] {
		return fmt.Errorf("report.style must be one of: plain, styled")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
