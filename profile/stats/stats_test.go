package stats

import (
	"math"
	"math/rand"
	"testing"

	mstats "github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func feed(xs ...float64) *Stats {
	s := New()
	for _, x := range xs {
		s.Update(x)
	}
	return s
}

func TestSnapshotKnownInput(t *testing.T) {
	sum := feed(1, 2, 3, 4, 5).Snapshot()

	assert.Equal(t, 5, sum.N)
	assert.Equal(t, 1.0, sum.Min)
	assert.Equal(t, 5.0, sum.Max)
	assert.Equal(t, 15.0, sum.Sum)
	assert.Equal(t, 3.0, sum.Mean)
	assert.InDelta(t, 2.0, sum.PopulationVariance, 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), sum.StdDev, 1e-12)
	assert.Equal(t, 3.0, sum.Median)
	assert.InDelta(t, 4.2, sum.Percentile80, 1e-12)
	assert.InDelta(t, 4.8, sum.Percentile95, 1e-12)
	assert.InDelta(t, 4.96, sum.Percentile99, 1e-12)
	assert.InDelta(t, 0.0, sum.Skewness, 1e-12)
	assert.InDelta(t, -1.2, sum.Kurtosis, 1e-12)
	assert.InDelta(t, math.Pow(120, 0.2), sum.GeometricMean, 1e-12)
	assert.InDelta(t, 3.3166247903554, sum.QuadraticMean, 1e-12)
}

func TestSnapshotMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	xs := make([]float64, 500)
	for i := range xs {
		xs[i] = rng.ExpFloat64()*10 + 0.5
	}

	sum := feed(xs...).Snapshot()

	mean, err := mstats.Mean(xs)
	require.NoError(t, err)
	assert.InDelta(t, mean, sum.Mean, 1e-9)

	pv, err := mstats.PopulationVariance(xs)
	require.NoError(t, err)
	assert.InDelta(t, pv, sum.PopulationVariance, 1e-9)

	sd, err := mstats.StandardDeviationSample(xs)
	require.NoError(t, err)
	assert.InDelta(t, sd, sum.StdDev, 1e-9)

	median, err := mstats.Median(xs)
	require.NoError(t, err)
	assert.InDelta(t, median, sum.Median, 1e-12)

	assert.InDelta(t, stat.GeometricMean(xs, nil), sum.GeometricMean, 1e-9)

	assert.InDelta(t, stat.Skew(xs, nil), sum.Skewness, 1e-9)
	assert.InDelta(t, stat.ExKurtosis(xs, nil), sum.Kurtosis, 1e-9)
}

func TestSnapshotEmpty(t *testing.T) {
	sum := New().Snapshot()

	assert.Equal(t, 0, sum.N)
	for name, v := range map[string]float64{
		"min":                 sum.Min,
		"max":                 sum.Max,
		"sum":                 sum.Sum,
		"mean":                sum.Mean,
		"stdev":               sum.StdDev,
		"population_variance": sum.PopulationVariance,
		"median":              sum.Median,
		"percentile_80":       sum.Percentile80,
		"percentile_95":       sum.Percentile95,
		"percentile_99":       sum.Percentile99,
		"skewness":            sum.Skewness,
		"kurtosis":            sum.Kurtosis,
		"geometric_mean":      sum.GeometricMean,
		"quadratic_mean":      sum.QuadraticMean,
	} {
		assert.True(t, math.IsNaN(v), "%s should be NaN, got %v", name, v)
	}
}

func TestSnapshotInsufficientSample(t *testing.T) {
	tests := map[string]struct {
		Values   []float64
		StdDev   bool
		Skewness bool
		Kurtosis bool
	}{
		"one":   {[]float64{4}, false, false, false},
		"two":   {[]float64{4, 8}, true, false, false},
		"three": {[]float64{4, 8, 9}, true, true, false},
		"four":  {[]float64{4, 8, 9, 1}, true, true, true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			sum := feed(test.Values...).Snapshot()

			assert.Equal(t, test.StdDev, !math.IsNaN(sum.StdDev))
			assert.Equal(t, test.Skewness, !math.IsNaN(sum.Skewness))
			assert.Equal(t, test.Kurtosis, !math.IsNaN(sum.Kurtosis))

			assert.False(t, math.IsNaN(sum.Mean))
			assert.False(t, math.IsNaN(sum.PopulationVariance))
		})
	}
}

func TestSnapshotConstant(t *testing.T) {
	sum := feed(7, 7, 7, 7, 7).Snapshot()

	assert.Equal(t, 0.0, sum.StdDev)
	assert.Equal(t, 0.0, sum.PopulationVariance)
	assert.Equal(t, 0.0, sum.Skewness)
	assert.Equal(t, 0.0, sum.Kurtosis)
	assert.InDelta(t, 7.0, sum.GeometricMean, 1e-12)
}

func TestGeometricMeanDomain(t *testing.T) {
	assert.True(t, math.IsNaN(feed(1, 2, 0).Snapshot().GeometricMean))
	assert.True(t, math.IsNaN(feed(1, -2, 3).Snapshot().GeometricMean))
	assert.InDelta(t, 4.0, feed(2, 8).Snapshot().GeometricMean, 1e-12)
}

func TestLargeMagnitude(t *testing.T) {
	const offset = 1e9

	sum := feed(offset+4, offset+7, offset+13, offset+16).Snapshot()

	assert.Equal(t, offset+10, sum.Mean)
	assert.InDelta(t, 22.5, sum.PopulationVariance, 1e-6)
	assert.InDelta(t, math.Sqrt(30), sum.StdDev, 1e-6)
	assert.InDelta(t, 0.0, sum.Skewness, 1e-6)
	assert.InDelta(t, -3.3, sum.Kurtosis, 1e-6)
}

func TestPercentileBounds(t *testing.T) {
	s := feed(9, 3, 5, 1, 12, 7)

	assert.Equal(t, 1.0, s.Percentile(0))
	assert.Equal(t, 12.0, s.Percentile(100))
	assert.Equal(t, 6.0, s.Percentile(50))
	assert.True(t, math.IsNaN(s.Percentile(101)))
	assert.True(t, math.IsNaN(s.Percentile(-1)))
	assert.True(t, math.IsNaN(New().Percentile(50)))
}

func TestSnapshotOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		n := 1 + rng.Intn(200)
		xs := make([]float64, n)
		for j := range xs {
			xs[j] = float64(rng.Intn(2000)-1000) / 4
		}

		sum := feed(xs...).Snapshot()

		assert.LessOrEqual(t, sum.Min, sum.Median)
		assert.LessOrEqual(t, sum.Median, sum.Max)
		assert.LessOrEqual(t, sum.Min, sum.Mean)
		assert.LessOrEqual(t, sum.Mean, sum.Max)
		assert.GreaterOrEqual(t, sum.PopulationVariance, 0.0)
	}
}

func TestSnapshotPermutation(t *testing.T) {
	xs := []float64{3, 1.5, 8, 2.25, 10, 4, 6.5, 1, 9, 5}

	want := feed(xs...).Snapshot()

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(xs), func(a, b int) { xs[a], xs[b] = xs[b], xs[a] })
		got := feed(xs...).Snapshot()

		assert.Equal(t, want.Min, got.Min)
		assert.Equal(t, want.Max, got.Max)
		assert.Equal(t, want.Median, got.Median)
		assert.Equal(t, want.Percentile99, got.Percentile99)
		assert.InDelta(t, want.Sum, got.Sum, 1e-12)
		assert.InDelta(t, want.PopulationVariance, got.PopulationVariance, 1e-12)
		assert.InDelta(t, want.Skewness, got.Skewness, 1e-12)
		assert.InDelta(t, want.Kurtosis, got.Kurtosis, 1e-12)
	}
}

func TestResetAndReuse(t *testing.T) {
	s := feed(1, 2, 3)
	s.Snapshot()

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.True(t, math.IsNaN(s.Snapshot().Mean))

	s.Update(10)
	s.Update(20)
	assert.Equal(t, 15.0, s.Snapshot().Mean)
}

func TestSnapshotDoesNotMutate(t *testing.T) {
	s := feed(5, 1, 4, 2, 3)

	a := s.Snapshot()
	b := s.Snapshot()

	assert.Equal(t, a, b)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, s.values)
}

func BenchmarkUpdate(b *testing.B) {
	s := New()
	for i := 0; i < b.N; i++ {
		s.Update(float64(i))
	}
}

func BenchmarkSnapshot(b *testing.B) {
	s := New()
	for i := 0; i < 10000; i++ {
		s.Update(float64(i % 97))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Snapshot()
	}
}
