package profile

import "github.com/chop-dbhi/data-profiler/profile/stats"

// QuantitativeName is the name of the quantitative profiler.
const QuantitativeName = "quantitative"

var quantitativeFields = []Field{
	{"minimum", FloatType},
	{"maximum", FloatType},
	{"mean", FloatType},
	{"total", FloatType},
	{"stdev", FloatType},
	{"median", FloatType},
	{"skewness", FloatType},
	{"kurtosis", FloatType},
	{"population_variance", FloatType},
	{"percentile_80", FloatType},
	{"percentile_95", FloatType},
	{"percentile_99", FloatType},
	{"geometric_mean", FloatType},
	{"quadratic_mean", FloatType},
}

// Quantitative profiles numbers to determine descriptive statistics.
// Statistics that are undefined for the observed values are NaN.
type Quantitative struct {
	stats *stats.Stats
}

func NewQuantitative() *Quantitative {
	return &Quantitative{
		stats: stats.New(),
	}
}

func (q *Quantitative) Name() string {
	return QuantitativeName
}

func (q *Quantitative) Types() []ValueType {
	return []ValueType{IntType, FloatType}
}

func (q *Quantitative) Fields() []Field {
	f := make([]Field, len(quantitativeFields))
	copy(f, quantitativeFields)
	return f
}

func (q *Quantitative) Reset() {
	q.stats.Reset()
}

func (q *Quantitative) Update(v Value) {
	if f, ok := v.Float64(); ok {
		q.stats.Update(f)
	}
}

// Count returns the number of values observed in this session.
func (q *Quantitative) Count() int {
	return q.stats.Len()
}

func (q *Quantitative) Results() Result {
	s := q.stats.Snapshot()

	return Result{
		{"minimum", Float(s.Min)},
		{"maximum", Float(s.Max)},
		{"mean", Float(s.Mean)},
		{"total", Float(s.Sum)},
		{"stdev", Float(s.StdDev)},
		{"median", Float(s.Median)},
		{"skewness", Float(s.Skewness)},
		{"kurtosis", Float(s.Kurtosis)},
		{"population_variance", Float(s.PopulationVariance)},
		{"percentile_80", Float(s.Percentile80)},
		{"percentile_95", Float(s.Percentile95)},
		{"percentile_99", Float(s.Percentile99)},
		{"geometric_mean", Float(s.GeometricMean)},
		{"quadratic_mean", Float(s.QuadraticMean)},
	}
}
