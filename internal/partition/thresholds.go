package partition

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned when thresholds cannot define a partition.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Split holds the cut points for one axis. One cut gives a two-way
// {low, high} partition; two ascending cuts give {low, medium, high}.
type Split struct {
	Cuts []float64 `json:"cuts" yaml:"cuts"`
}

// TwoWay returns a single-cut split.
func TwoWay(cut float64) Split {
	return Split{Cuts: []float64{cut}}
}

// ThreeWay returns a split with a lower and upper cut.
func ThreeWay(lower, upper float64) Split {
	return Split{Cuts: []float64{lower, upper}}
}

// Ways returns the number of buckets the split produces.
func (s Split) Ways() int {
	return len(s.Cuts) + 1
}

func (s Split) validate(axis string) error {
	switch len(s.Cuts) {
	case 1, 2:
	default:
		return fmt.Errorf("%w: %s needs one or two cuts, got %d", ErrInvalidConfiguration, axis, len(s.Cuts))
	}
	for _, cut := range s.Cuts {
		if math.IsNaN(cut) || math.IsInf(cut, 0) {
			return fmt.Errorf("%w: %s cut must be finite", ErrInvalidConfiguration, axis)
		}
		if cut < 0 {
			return fmt.Errorf("%w: %s cut %g is negative", ErrInvalidConfiguration, axis, cut)
		}
	}
	if len(s.Cuts) == 2 && s.Cuts[0] >= s.Cuts[1] {
		return fmt.Errorf("%w: %s lower cut %g must be below upper cut %g",
			ErrInvalidConfiguration, axis, s.Cuts[0], s.Cuts[1])
	}
	return nil
}

// Thresholds configures all three axes of a partition run.
type Thresholds struct {
	Redshift Split   `json:"redshift" yaml:"redshift"`
	Richness Split   `json:"richness" yaml:"richness"`
	Ratio    float64 `json:"ratio" yaml:"ratio"`
}

// Defaults for the two-way and three-way variants of the analysis.
const (
	DefaultRedshiftSplit     = 0.45
	DefaultRedshiftSplitLow  = 0.29
	DefaultRedshiftSplitHigh = 0.44
	DefaultRichnessSplit     = 100
	DefaultRichnessSplitLow  = 91
	DefaultRichnessSplitHigh = 114.7
	DefaultRatioSplit        = 0.9
	DefaultRatioSplitBinned  = 0.7
)

// DefaultTwoWay returns the thresholds of the two-way analysis.
func DefaultTwoWay() Thresholds {
	return Thresholds{
		Redshift: TwoWay(DefaultRedshiftSplit),
		Richness: TwoWay(DefaultRichnessSplit),
		Ratio:    DefaultRatioSplit,
	}
}

// DefaultThreeWay returns the thresholds of the three-way analysis.
func DefaultThreeWay() Thresholds {
	return Thresholds{
		Redshift: ThreeWay(DefaultRedshiftSplitLow, DefaultRedshiftSplitHigh),
		Richness: ThreeWay(DefaultRichnessSplitLow, DefaultRichnessSplitHigh),
		Ratio:    DefaultRatioSplitBinned,
	}
}

// Validate checks that every threshold is finite and non-negative and that
// three-way cuts are strictly ascending.
func (t Thresholds) Validate() error {
	if err := t.Redshift.validate(AxisRedshift.String()); err != nil {
		return err
	}
	if err := t.Richness.validate(AxisRichness.String()); err != nil {
		return err
	}
	if math.IsNaN(t.Ratio) || math.IsInf(t.Ratio, 0) {
		return fmt.Errorf("%w: ratio split must be finite", ErrInvalidConfiguration)
	}
	if t.Ratio < 0 {
		return fmt.Errorf("%w: ratio split %g is negative", ErrInvalidConfiguration, t.Ratio)
	}
	return nil
}
