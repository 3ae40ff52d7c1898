package features

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	if !isInfOrNaN(sum) {
		return sum / float64(len(xs))
	}
	// The plain sum left float64 range; average in units of the largest magnitude.
	scale := maxAbs(xs)
	scaled := 0.0
	for _, v := range xs {
		scaled += v / scale
	}
	return scaled / float64(len(xs)) * scale
}

func maxAbs(xs []float64) float64 {
	m := 0.0
	for _, v := range xs {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func isInfOrNaN(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// SortedCopy returns an ascending copy of xs; xs is left untouched.
func SortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// Median returns the middle of the sorted values, averaging the central pair when the
// length is even. Returns 0 for an empty slice.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	s := SortedCopy(xs)
	if n%2 == 0 {
		return s[n/2-1]/2 + s[n/2]/2
	}
	return s[n/2]
}

// SampleVariance divides the squared deviations by n-1.
// Fewer than two values have no sample variance; 0 is returned.
func SampleVariance(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return sumSquaredDev(xs, mean) / float64(len(xs)-1)
}

// PopulationVariance divides the squared deviations by n. Returns 0 for an empty slice.
func PopulationVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sumSquaredDev(xs, Mean(xs)) / float64(len(xs))
}

// SampleStdDev is the square root of SampleVariance, computed so that it stays finite
// whenever the deviations themselves are representable.
func SampleStdDev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	scale, s := scaledSquaredDev(xs, mean)
	return math.Sqrt(s/float64(len(xs)-1)) * scale
}

func sumSquaredDev(xs []float64, mean float64) float64 {
	s := 0.0
	for _, v := range xs {
		d := v - mean
		s += d * d
	}
	if !isInfOrNaN(s) {
		return s
	}
	scale, scaled := scaledSquaredDev(xs, mean)
	return scaled * scale * scale
}

// scaledSquaredDev returns (scale, sum) with sum*scale^2 equal to the squared deviations.
func scaledSquaredDev(xs []float64, mean float64) (float64, float64) {
	scale := math.Max(maxAbs(xs), math.Abs(mean))
	if scale == 0 || isInfOrNaN(scale) {
		return 1, 0
	}
	s := 0.0
	for _, v := range xs {
		d := v/scale - mean/scale
		s += d * d
	}
	return scale, s
}

// StandardizedMoment returns the mean of z^k with z = (v-mean)/std.
// A zero (or non-finite) std makes every z undefined; the moment is reported as 0.
func StandardizedMoment(xs []float64, mean, std float64, k int) float64 {
	if len(xs) == 0 || std == 0 || isInfOrNaN(std) {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		z := (v - mean) / std
		if math.IsInf(v-mean, 0) {
			z = v/std - mean/std
		}
		s += math.Pow(z, float64(k))
	}
	return s / float64(len(xs))
}

// QuantileAt returns sorted[floor(q*n)], the index-based quantile used for Tukey fences.
// The index is clamped to the last element. Returns 0 for an empty slice.
func QuantileAt(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	i := int(math.Floor(q * float64(n)))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return sorted[i]
}

// SplitHalves splits by index; the extra element of an odd length goes to the second half.
func SplitHalves(xs []float64) (first, second []float64) {
	mid := len(xs) / 2
	return xs[:mid], xs[mid:]
}

// Segments splits xs into k contiguous segments of len(xs)/k elements, the remainder
// going to the last segment.
func Segments(xs []float64, k int) [][]float64 {
	if k <= 0 {
		return nil
	}
	size := len(xs) / k
	out := make([][]float64, 0, k)
	for i := 0; i < k-1; i++ {
		out = append(out, xs[i*size:(i+1)*size])
	}
	return append(out, xs[(k-1)*size:])
}

// LagProductSum returns sum((xs[i]-center)*(xs[i+lag]-center)) for i < limit.
// limit is clamped to len(xs)-lag.
func LagProductSum(xs []float64, center float64, lag, limit int) float64 {
	if lag < 0 || lag >= len(xs) {
		return 0
	}
	if m := len(xs) - lag; limit > m {
		limit = m
	}
	s := 0.0
	for i := 0; i < limit; i++ {
		s += (xs[i] - center) * (xs[i+lag] - center)
	}
	return s
}

// CenterCrossings counts consecutive pairs where (v-center) strictly changes sign.
func CenterCrossings(xs []float64, center float64) int {
	c := 0
	for i := 1; i < len(xs); i++ {
		if (xs[i-1]-center)*(xs[i]-center) < 0 {
			c++
		}
	}
	return c
}

// MinMax returns the smallest and largest values, zeros for an empty slice.
func MinMax(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, v := range xs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
