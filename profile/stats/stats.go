// Package stats keeps every observation of a numeric column so exact
// descriptive statistics can be derived once the column has been read.
package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// zeroVariance is the sample variance below which the data is treated as
// constant and the standardized moments are reported as zero.
const zeroVariance = 1e-19

// Summary is the derived statistics vector. Fields that are undefined for
// the number of observations are NaN.
type Summary struct {
	N                  int
	Min                float64
	Max                float64
	Sum                float64
	Mean               float64
	StdDev             float64
	PopulationVariance float64
	Median             float64
	Percentile80       float64
	Percentile95       float64
	Percentile99       float64
	Skewness           float64
	Kurtosis           float64
	GeometricMean      float64
	QuadraticMean      float64
}

// Stats accumulates observations in input order. It is not safe for
// concurrent use.
type Stats struct {
	values []float64
}

// New returns an empty accumulator.
func New() *Stats {
	return &Stats{}
}

// Reset discards all observations. The backing array is kept for reuse.
func (s *Stats) Reset() {
	s.values = s.values[:0]
}

// Update appends an observation.
func (s *Stats) Update(x float64) {
	s.values = append(s.values, x)
}

// Len returns the number of observations.
func (s *Stats) Len() int {
	return len(s.values)
}

// Percentile returns the k-th percentile (0 <= k <= 100) using linear
// interpolation between the order statistics bracketing rank k/100*(n-1).
func (s *Stats) Percentile(k float64) float64 {
	if len(s.values) == 0 || math.IsNaN(k) || k < 0 || k > 100 {
		return math.NaN()
	}

	return percentile(s.sorted(), k)
}

// Snapshot computes the statistics over all observations so far. It does
// not mutate the accumulator.
func (s *Stats) Snapshot() Summary {
	n := len(s.values)
	sum := Summary{
		N:                  n,
		Min:                math.NaN(),
		Max:                math.NaN(),
		Sum:                math.NaN(),
		Mean:               math.NaN(),
		StdDev:             math.NaN(),
		PopulationVariance: math.NaN(),
		Median:             math.NaN(),
		Percentile80:       math.NaN(),
		Percentile95:       math.NaN(),
		Percentile99:       math.NaN(),
		Skewness:           math.NaN(),
		Kurtosis:           math.NaN(),
		GeometricMean:      math.NaN(),
		QuadraticMean:      math.NaN(),
	}

	if n == 0 {
		return sum
	}

	x := s.values
	fn := float64(n)

	// Both only fail on empty input which is handled above.
	sum.Min, _ = mstats.Min(x)
	sum.Max, _ = mstats.Max(x)

	sum.Sum = floats.SumCompensated(x)
	sum.Mean = sum.Sum / fn
	sum.PopulationVariance = stat.PopVariance(x, nil)

	sorted := s.sorted()
	sum.Median = percentile(sorted, 50)
	sum.Percentile80 = percentile(sorted, 80)
	sum.Percentile95 = percentile(sorted, 95)
	sum.Percentile99 = percentile(sorted, 99)

	sum.GeometricMean = geometricMean(x)
	sum.QuadraticMean = quadraticMean(x)

	if n < 2 {
		return sum
	}

	variance := stat.Variance(x, nil)
	sum.StdDev = math.Sqrt(variance)

	if n >= 3 {
		sum.Skewness = skewness(x, sum.Mean, variance)
	}
	if n >= 4 {
		sum.Kurtosis = kurtosis(x, sum.Mean, variance)
	}

	return sum
}

// sorted returns a sorted copy of the observations.
func (s *Stats) sorted() []float64 {
	c := make([]float64, len(s.values))
	copy(c, s.values)
	sort.Float64s(c)
	return c
}

func percentile(sorted []float64, k float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	rank := k / 100 * float64(n-1)
	lo := math.Floor(rank)
	i := int(lo)

	if i >= n-1 {
		return sorted[n-1]
	}

	frac := rank - lo
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

// skewness is the adjusted Fisher-Pearson standardized third moment,
// n/((n-1)(n-2)) * sum(((x-mean)/s)^3).
func skewness(x []float64, mean, variance float64) float64 {
	if variance < zeroVariance {
		return 0
	}

	n := float64(len(x))
	sd := math.Sqrt(variance)

	terms := make([]float64, len(x))
	for i, v := range x {
		z := (v - mean) / sd
		terms[i] = z * z * z
	}

	return n / ((n - 1) * (n - 2)) * floats.SumCompensated(terms)
}

// kurtosis is the bias-corrected excess kurtosis,
// n(n+1)/((n-1)(n-2)(n-3)) * sum(((x-mean)/s)^4) - 3(n-1)^2/((n-2)(n-3)).
func kurtosis(x []float64, mean, variance float64) float64 {
	if variance < zeroVariance {
		return 0
	}

	n := float64(len(x))
	sd := math.Sqrt(variance)

	terms := make([]float64, len(x))
	for i, v := range x {
		z := (v - mean) / sd
		z *= z
		terms[i] = z * z
	}

	mul := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3))
	offset := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))

	return mul*floats.SumCompensated(terms) - offset
}

func geometricMean(x []float64) float64 {
	logs := make([]float64, len(x))
	for i, v := range x {
		if v <= 0 || math.IsNaN(v) {
			return math.NaN()
		}
		logs[i] = math.Log(v)
	}

	return math.Exp(floats.SumCompensated(logs) / float64(len(x)))
}

func quadraticMean(x []float64) float64 {
	sq := make([]float64, len(x))
	floats.MulTo(sq, x, x)
	return math.Sqrt(floats.SumCompensated(sq) / float64(len(x)))
}
