package partition

// BucketCount is the size of one bucket.
type BucketCount struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Summary holds the bucket sizes of every axis.
type Summary struct {
	Total         int           `json:"total" yaml:"total"`
	Redshift      []BucketCount `json:"redshift" yaml:"redshift"`
	Richness      []BucketCount `json:"richness" yaml:"richness"`
	Ratio         []BucketCount `json:"ratio" yaml:"ratio"`
	RatioExcluded int           `json:"ratio_excluded" yaml:"ratio_excluded"`
}

// Summary counts the rows in each bucket.
func (r *Result) Summary() Summary {
	return Summary{
		Total:         r.Total,
		Redshift:      r.Redshift.Counts(),
		Richness:      r.Richness.Counts(),
		Ratio:         r.Ratio.Counts(),
		RatioExcluded: r.Total - r.Finite.Count(),
	}
}

// Count returns the size of the named bucket in counts, or 0 if absent.
func Count(counts []BucketCount, name string) int {
	for _, c := range counts {
		if c.Name == name {
			return c.Count
		}
	}
	return 0
}

// Sum returns the total of all bucket sizes.
func Sum(counts []BucketCount) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}
