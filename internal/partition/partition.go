// Package partition splits a cluster catalog into buckets along three axes and
// counts them.
//
// Redshift and richness are split by one or two cut points into half-open
// intervals:
//
//	two-way:   low = [0, cut)       high = [cut, ∞)
//	three-way: low = [0, lower)     medium = [lower, upper)     high = [upper, ∞)
//
// The ratio axis classifies each row by core_temperature / r500_core_cropped_temperature:
// cool-core below the ratio split, non-cool-core at or above it. Rows whose ratio is
// not finite are excluded from both ratio buckets and returned as anomalies.
//
// Every bucket is a Mask over the catalog rows. Masks are computed once per Compute
// call and intersected by Subset, so downstream consumers never copy the catalog.
package partition

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/keagraha/Cluster-Research-Stuff/internal/logger"
	"github.com/keagraha/Cluster-Research-Stuff/internal/models"
)

// Axis identifies one partition dimension.
type Axis int

const (
	AxisRedshift Axis = iota
	AxisRichness
	AxisRatio
)

func (a Axis) String() string {
	switch a {
	case AxisRedshift:
		return "redshift"
	case AxisRichness:
		return "richness"
	case AxisRatio:
		return "ratio"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Title returns the axis name as used in chart and report labels.
func (a Axis) Title() string {
	switch a {
	case AxisRedshift:
		return "Redshift"
	case AxisRichness:
		return "Richness"
	case AxisRatio:
		return "Ratio"
	default:
		return a.String()
	}
}

// Bucket names.
const (
	BucketLow         = "low"
	BucketMedium      = "medium"
	BucketHigh        = "high"
	BucketCoolCore    = "cool_core"
	BucketNonCoolCore = "non_cool_core"
)

// Bucket is one cell of a partition.
type Bucket struct {
	Name  string
	Label string
	Mask  Mask
}

// Partition is the ordered set of buckets for one axis.
// For redshift and richness the order is high, medium, low.
type Partition struct {
	Axis    Axis
	Buckets []Bucket
}

// Bucket returns the bucket with the given name.
func (p Partition) Bucket(name string) (Bucket, bool) {
	for _, b := range p.Buckets {
		if b.Name == name {
			return b, true
		}
	}
	return Bucket{}, false
}

// Counts returns the number of rows in each bucket, in bucket order.
func (p Partition) Counts() []BucketCount {
	counts := make([]BucketCount, len(p.Buckets))
	for i, b := range p.Buckets {
		counts[i] = BucketCount{Name: b.Name, Label: b.Label, Count: b.Mask.Count()}
	}
	return counts
}

// ErrDivisionAnomaly marks a row whose temperature ratio is not finite.
var ErrDivisionAnomaly = errors.New("non-finite temperature ratio")

// RowAnomaly is a non-fatal per-row problem found while partitioning.
type RowAnomaly struct {
	Row   int
	Ratio float64
	Err   error
}

func (a RowAnomaly) Error() string {
	return fmt.Sprintf("row %d: %v (ratio=%v)", a.Row, a.Err, a.Ratio)
}

func (a RowAnomaly) Unwrap() error {
	return a.Err
}

// Result holds the partitions of one catalog under one set of thresholds.
type Result struct {
	Thresholds Thresholds
	Total      int
	Redshift   Partition
	Richness   Partition
	Ratio      Partition

	// RatioValues holds the per-row temperature ratio; excluded rows are NaN or ±Inf.
	RatioValues []float64
	// Finite marks the rows whose ratio is finite.
	Finite Mask
}

// Compute partitions the catalog. It returns ErrInvalidConfiguration for bad
// thresholds and models.ErrMissingColumn when a required column is absent.
// Rows with a non-finite ratio are reported as anomalies and left out of
// the ratio buckets; the returned result is still complete.
func Compute(catalog *models.Catalog, thresholds Thresholds) (*Result, []RowAnomaly, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, nil, err
	}
	if catalog == nil {
		return nil, nil, errors.New("catalog must not be nil")
	}

	var missing []string
	for _, name := range models.RequiredColumns {
		if !catalog.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s (catalog has: %s)", models.ErrMissingColumn,
			strings.Join(missing, ", "), strings.Join(catalog.ColumnNames(), ", "))
	}

	columns := make(map[string][]float64, len(models.RequiredColumns))
	for _, name := range models.RequiredColumns {
		values, err := catalog.Column(name)
		if err != nil {
			return nil, nil, err
		}
		columns[name] = values
	}

	n := catalog.Len()
	result := &Result{
		Thresholds: thresholds,
		Total:      n,
		Redshift:   splitAxis(AxisRedshift, columns[models.ColumnRedshift], thresholds.Redshift),
		Richness:   splitAxis(AxisRichness, columns[models.ColumnRichness], thresholds.Richness),
	}

	var anomalies []RowAnomaly
	result.Ratio, result.RatioValues, result.Finite, anomalies = splitRatio(
		columns[models.ColumnCoreTemperature],
		columns[models.ColumnR500Temperature],
		thresholds.Ratio,
	)

	logger.Debug("Partitioned %d rows: redshift=%v richness=%v ratio=%v excluded=%d",
		n, result.Redshift.Counts(), result.Richness.Counts(), result.Ratio.Counts(), len(anomalies))

	return result, anomalies, nil
}

func splitAxis(axis Axis, values []float64, split Split) Partition {
	n := len(values)
	high := make(Mask, n)
	low := make(Mask, n)
	name := axis.Title()

	if len(split.Cuts) == 1 {
		cut := split.Cuts[0]
		for i, v := range values {
			high[i] = v >= cut
			low[i] = !high[i]
		}
		return Partition{
			Axis: axis,
			Buckets: []Bucket{
				{Name: BucketHigh, Label: fmt.Sprintf("%s >= %.2f", name, cut), Mask: high},
				{Name: BucketLow, Label: fmt.Sprintf("%s < %.2f", name, cut), Mask: low},
			},
		}
	}

	lower, upper := split.Cuts[0], split.Cuts[1]
	medium := make(Mask, n)
	for i, v := range values {
		high[i] = v >= upper
		medium[i] = v >= lower && v < upper
		low[i] = !high[i] && !medium[i]
	}
	return Partition{
		Axis: axis,
		Buckets: []Bucket{
			{Name: BucketHigh, Label: fmt.Sprintf("%s >= %.2f", name, upper), Mask: high},
			{Name: BucketMedium, Label: fmt.Sprintf("%.2f =< %s < %.2f", lower, name, upper), Mask: medium},
			{Name: BucketLow, Label: fmt.Sprintf("%s < %.2f", name, lower), Mask: low},
		},
	}
}

func splitRatio(core, r500 []float64, split float64) (Partition, []float64, Mask, []RowAnomaly) {
	n := len(core)
	ratios := make([]float64, n)
	finite := make(Mask, n)
	cool := make(Mask, n)
	nonCool := make(Mask, n)
	var anomalies []RowAnomaly

	for i := range core {
		c := models.Cluster{CoreTemperature: core[i], R500CoreCroppedTemperature: r500[i]}
		r := c.Ratio()
		ratios[i] = r
		if math.IsNaN(r) || math.IsInf(r, 0) {
			anomalies = append(anomalies, RowAnomaly{Row: i, Ratio: r, Err: ErrDivisionAnomaly})
			continue
		}
		finite[i] = true
		nonCool[i] = r >= split
		cool[i] = !nonCool[i]
	}

	p := Partition{
		Axis: AxisRatio,
		Buckets: []Bucket{
			{Name: BucketCoolCore, Label: fmt.Sprintf("Ratio < %.2f", split), Mask: cool},
			{Name: BucketNonCoolCore, Label: fmt.Sprintf("Ratio >= %.2f", split), Mask: nonCool},
		},
	}
	return p, ratios, finite, anomalies
}

// Partition returns the partition for an axis.
func (r *Result) Partition(axis Axis) (Partition, error) {
	switch axis {
	case AxisRedshift:
		return r.Redshift, nil
	case AxisRichness:
		return r.Richness, nil
	case AxisRatio:
		return r.Ratio, nil
	default:
		return Partition{}, fmt.Errorf("unknown axis: %v", axis)
	}
}

// Selector picks at most one bucket per axis. An empty name means any bucket.
type Selector struct {
	Redshift string
	Richness string
	Ratio    string
}

// Subset returns the rows that fall into every selected bucket.
// An empty selector selects all rows.
func (r *Result) Subset(sel Selector) (Mask, error) {
	var masks []Mask
	for _, pick := range []struct {
		p    Partition
		name string
	}{
		{r.Redshift, sel.Redshift},
		{r.Richness, sel.Richness},
		{r.Ratio, sel.Ratio},
	} {
		if pick.name == "" {
			continue
		}
		b, ok := pick.p.Bucket(pick.name)
		if !ok {
			return nil, fmt.Errorf("unknown %s bucket: %s", pick.p.Axis, pick.name)
		}
		masks = append(masks, b.Mask)
	}

	if len(masks) == 0 {
		return fullMask(r.Total), nil
	}
	return masks[0].And(masks[1:]...), nil
}

// Ratios returns the finite ratio values of the rows set in mask.
func (r *Result) Ratios(mask Mask) []float64 {
	return mask.And(r.Finite).Select(r.RatioValues)
}
