package charts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/keagraha/Cluster-Research-Stuff/internal/logger"
)

// ErrEmptyChart is returned when none of a chart's groups selects any rows.
var ErrEmptyChart = errors.New("chart has no data")

// Renderer draws a chart and returns where it was written.
type Renderer interface {
	Render(ctx context.Context, chart Chart) (string, error)
}

// PlotRenderer renders overlaid histograms with gonum/plot.
type PlotRenderer struct {
	dir    string
	format string
	bins   int
	width  vg.Length
	height vg.Length
}

// NewPlotRenderer creates a renderer that writes dir/<chart name>.<format>.
// format is any extension gonum/plot can save (png, svg, pdf, jpg).
func NewPlotRenderer(dir, format string, bins int, widthInches, heightInches float64) *PlotRenderer {
	if bins <= 0 {
		bins = 10
	}
	if format == "" {
		format = "png"
	}
	return &PlotRenderer{
		dir:    dir,
		format: strings.ToLower(format),
		bins:   bins,
		width:  vg.Length(widthInches) * vg.Inch,
		height: vg.Length(heightInches) * vg.Inch,
	}
}

// Render draws every non-empty group of the chart as a histogram.
func (r *PlotRenderer) Render(ctx context.Context, chart Chart) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.X.Label.Text = chart.XLabel
	p.Y.Label.Text = chart.YLabel
	p.Legend.Top = true

	drawn := 0
	for _, g := range chart.Groups {
		values := chart.GroupValues(g)
		if len(values) == 0 {
			logger.Debug("Chart %s: group %q is empty, skipping", chart.Name, g.Label)
			continue
		}

		h, err := plotter.NewHist(plotter.Values(values), r.bins)
		if err != nil {
			return "", fmt.Errorf("failed to bin group %q: %w", g.Label, err)
		}
		h.FillColor = g.Color
		h.LineStyle.Color = g.Color
		p.Add(h)
		if g.Label != "" {
			p.Legend.Add(g.Label, h)
		}
		drawn++
	}
	if drawn == 0 {
		return "", ErrEmptyChart
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(r.dir, chart.Name+"."+r.format)
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", fmt.Errorf("failed to save chart: %w", err)
	}
	return path, nil
}

// RenderAll renders charts with up to workers concurrent renders. Empty
// charts are skipped with a warning. Returned paths follow chart order.
func RenderAll(ctx context.Context, r Renderer, charts []Chart, workers int) ([]string, error) {
	if workers < 1 {
		workers = 1
	}

	paths := make([]string, len(charts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, chart := range charts {
		i, chart := i, chart
		g.Go(func() error {
			path, err := r.Render(ctx, chart)
			if errors.Is(err, ErrEmptyChart) {
				logger.Warn("Skipping chart %s: no rows to plot", chart.Name)
				return nil
			}
			if err != nil {
				logger.Error("Failed to render chart %s: %v", chart.Name, err)
				return fmt.Errorf("chart %s: %w", chart.Name, err)
			}
			logger.Debug("Rendered chart %s to %s", chart.Name, path)
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rendered := paths[:0]
	for _, p := range paths {
		if p != "" {
			rendered = append(rendered, p)
		}
	}
	return rendered, nil
}
