package partition

// Mask marks the catalog rows that belong to a bucket or subset.
// Masks are positional: index i refers to catalog row i.
type Mask []bool

// And returns the intersection of m with the other masks.
// All masks must have the same length.
func (m Mask) And(others ...Mask) Mask {
	out := make(Mask, len(m))
	copy(out, m)
	for _, o := range others {
		for i := range out {
			out[i] = out[i] && o[i]
		}
	}
	return out
}

// Count returns the number of rows set in the mask.
func (m Mask) Count() int {
	n := 0
	for _, set := range m {
		if set {
			n++
		}
	}
	return n
}

// Select returns the values at the rows set in the mask, in row order.
func (m Mask) Select(values []float64) []float64 {
	out := make([]float64, 0, m.Count())
	for i, set := range m {
		if set {
			out = append(out, values[i])
		}
	}
	return out
}

func fullMask(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}
