// Package report formats partition summaries for people and for tools.
//
// The text format reproduces the catalog summary line by line; json and yaml
// carry the same numbers plus the thresholds and an optional ratio
// distribution for each ratio scope.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/keagraha/Cluster-Research-Stuff/internal/charts"
	"github.com/keagraha/Cluster-Research-Stuff/internal/partition"
)

// Output formats and text styles.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"

	StylePlain  = "plain"
	StyleStyled = "styled"
)

const separator = "------------------------------------------------------"

// Distribution is the binned ratio distribution of one ratio scope.
type Distribution struct {
	Scope string       `json:"scope" yaml:"scope"`
	Bins  []charts.Bin `json:"bins" yaml:"bins"`
}

// Report is everything printed for one analysis run.
type Report struct {
	RunID         string               `json:"run_id" yaml:"run_id"`
	GeneratedAt   time.Time            `json:"generated_at" yaml:"generated_at"`
	Catalog       string               `json:"catalog" yaml:"catalog"`
	Thresholds    partition.Thresholds `json:"thresholds" yaml:"thresholds"`
	Summary       partition.Summary    `json:"summary" yaml:"summary"`
	Distributions []Distribution       `json:"distributions,omitempty" yaml:"distributions,omitempty"`
	Charts        []string             `json:"charts,omitempty" yaml:"charts,omitempty"`
}

// New builds a report for res. When bins > 0 the ratio distribution of every
// ratio scope is included.
func New(catalog string, res *partition.Result, bins int) (Report, error) {
	r := Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Catalog:     catalog,
		Thresholds:  res.Thresholds,
		Summary:     res.Summary(),
	}
	if bins <= 0 {
		return r, nil
	}

	for _, scope := range []struct {
		name   string
		bucket string
	}{
		{"all", ""},
		{partition.BucketCoolCore, partition.BucketCoolCore},
		{partition.BucketNonCoolCore, partition.BucketNonCoolCore},
	} {
		mask, err := res.Subset(partition.Selector{Ratio: scope.bucket})
		if err != nil {
			return Report{}, err
		}
		r.Distributions = append(r.Distributions, Distribution{
			Scope: scope.name,
			Bins:  charts.Histogram(res.Ratios(mask), bins),
		})
	}
	return r, nil
}

// Options controls how a report is written.
type Options struct {
	Format string
	Style  string
}

// Write renders the report to w in the requested format.
func Write(w io.Writer, r Report, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		_, err := io.WriteString(w, Text(r, opts.Style == StyleStyled))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format: %s", opts.Format)
	}
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// Text returns the human-readable summary. styled adds terminal emphasis.
func Text(r Report, styled bool) string {
	heading := func(s string) string { return s }
	muted := heading
	if styled {
		heading = func(s string) string { return headingStyle.Render(s) }
		muted = func(s string) string { return mutedStyle.Render(s) }
	}

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	s := r.Summary
	line("%s", heading(fmt.Sprintf("The number of clusters in the inputted table is %d.", s.Total)))
	line("%s", muted(fmt.Sprintf("Splits: redshift %s, richness %s, ratio %.2f",
		formatCuts(r.Thresholds.Redshift), formatCuts(r.Thresholds.Richness), r.Thresholds.Ratio)))

	for _, axis := range []struct {
		name   string
		counts []partition.BucketCount
	}{
		{"redshift", s.Redshift},
		{"richness", s.Richness},
	} {
		line("%s", muted(separator))
		for _, c := range axis.counts {
			line("The number of clusters with %s %s is %d.", c.Name, axis.name, c.Count)
		}
	}

	line("%s", muted(separator))
	line("The number of clusters with cool cores is %d.", partition.Count(s.Ratio, partition.BucketCoolCore))
	line("The number of clusters with non-cool cores is %d.", partition.Count(s.Ratio, partition.BucketNonCoolCore))
	if s.RatioExcluded > 0 {
		line("The number of clusters with an undefined temperature ratio is %d.", s.RatioExcluded)
	}

	for _, d := range r.Distributions {
		line("%s", muted(separator))
		line("%s", heading(fmt.Sprintf("Ratio distribution (%s):", d.Scope)))
		if len(d.Bins) == 0 {
			line("  no data")
			continue
		}
		for _, bin := range d.Bins {
			line("  [%.3f, %.3f) %d", bin.From, bin.To, bin.Count)
		}
	}

	if len(r.Charts) > 0 {
		line("%s", muted(separator))
		line("%s", heading(fmt.Sprintf("Charts written (%d):", len(r.Charts))))
		for _, path := range r.Charts {
			line("  %s", path)
		}
	}

	return b.String()
}

func formatCuts(s partition.Split) string {
	parts := make([]string, len(s.Cuts))
	for i, c := range s.Cuts {
		parts[i] = fmt.Sprintf("%.2f", c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
