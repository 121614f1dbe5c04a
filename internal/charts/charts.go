// Package charts turns partition results into labelled ratio histograms.
//
// Charts are declared as data: each Chart lists the groups to overlay, and
// each Group is a mask over the shared ratio column. Plan builds the standard
// set of charts from one table of scopes and groupings instead of one block
// of drawing code per figure.
package charts

import (
	"fmt"
	"image/color"

	"github.com/keagraha/Cluster-Research-Stuff/internal/partition"
)

// Axis labels shared by every ratio histogram.
const (
	RatioLabel     = "Ratio of Core Temp to r500 Core Cropped Temp"
	FrequencyLabel = "Frequency"
)

// Bucket colours, drawn at 25% opacity so overlaid groups stay visible.
var (
	ColorHigh   = color.NRGBA{R: 255, A: 64}
	ColorMedium = color.NRGBA{G: 128, A: 64}
	ColorLow    = color.NRGBA{B: 255, A: 64}
	ColorSingle = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
)

var bucketColors = map[string]color.Color{
	partition.BucketHigh:   ColorHigh,
	partition.BucketMedium: ColorMedium,
	partition.BucketLow:    ColorLow,
}

// Group is one overlaid histogram within a chart.
type Group struct {
	Label string // legend entry; empty means no legend
	Mask  partition.Mask
	Color color.Color
}

// Chart is a declarative histogram: the values to bin and the row groups to draw.
type Chart struct {
	Name   string // file stem
	Title  string
	XLabel string
	YLabel string
	Values []float64
	Groups []Group
}

// GroupValues returns the values selected by g.
func (c Chart) GroupValues(g Group) []float64 {
	return g.Mask.Select(c.Values)
}

// scope restricts a chart to one ratio bucket (or none).
type scope struct {
	name         string
	bucket       string
	title        string // title of the ungrouped chart
	groupedTitle string // title when split by an axis; %s is the axis title
}

// Plan builds the standard chart set: for each ratio scope (all rows,
// cool-core, non-cool-core) one ungrouped histogram and one per axis split.
func Plan(res *partition.Result) ([]Chart, error) {
	ratio := res.Thresholds.Ratio
	scopes := []scope{
		{
			name:         "ratio_all",
			title:        "Histogram of " + RatioLabel,
			groupedTitle: "Histogram of " + RatioLabel + " with Bins of %s",
		},
		{
			name:         "ratio_cool_core",
			bucket:       partition.BucketCoolCore,
			title:        fmt.Sprintf("Histogram of %s Less Than %.2f", RatioLabel, ratio),
			groupedTitle: "Histogram of Cool Core Clusters with Bins of %s",
		},
		{
			name:         "ratio_non_cool_core",
			bucket:       partition.BucketNonCoolCore,
			title:        fmt.Sprintf("Histogram of %s Greater Than %.2f", RatioLabel, ratio),
			groupedTitle: "Histogram of Non-Cool Core Clusters with Bins of %s",
		},
	}
	var groupings []partition.Partition
	for _, axis := range []partition.Axis{partition.AxisRedshift, partition.AxisRichness} {
		p, err := res.Partition(axis)
		if err != nil {
			return nil, err
		}
		groupings = append(groupings, p)
	}

	var charts []Chart
	for _, sc := range scopes {
		base, err := res.Subset(partition.Selector{Ratio: sc.bucket})
		if err != nil {
			return nil, err
		}
		base = base.And(res.Finite)

		charts = append(charts, Chart{
			Name:   sc.name,
			Title:  sc.title,
			XLabel: RatioLabel,
			YLabel: FrequencyLabel,
			Values: res.RatioValues,
			Groups: []Group{{Mask: base, Color: ColorSingle}},
		})

		for _, p := range groupings {
			groups := make([]Group, 0, len(p.Buckets))
			for _, b := range p.Buckets {
				groups = append(groups, Group{
					Label: b.Label,
					Mask:  base.And(b.Mask),
					Color: bucketColors[b.Name],
				})
			}
			charts = append(charts, Chart{
				Name:   fmt.Sprintf("%s_by_%s", sc.name, p.Axis),
				Title:  fmt.Sprintf(sc.groupedTitle, p.Axis.Title()),
				XLabel: RatioLabel,
				YLabel: FrequencyLabel,
				Values: res.RatioValues,
				Groups: groups,
			})
		}
	}

	return charts, nil
}
