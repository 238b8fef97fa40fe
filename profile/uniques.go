package profile

import "github.com/chop-dbhi/data-profiler/profile/hll"

// UniquesName is the name of the uniques profiler.
const UniquesName = "uniques"

// Uniques profiles strings using a HyperLogLog sketch to estimate the
// number of distinct values.
type Uniques struct {
	sketch *hll.Sketch
}

// NewUniques returns a uniques profiler whose estimate has the relative
// standard error rse.
func NewUniques(rse float64) (*Uniques, error) {
	s, err := hll.New(rse)
	if err != nil {
		return nil, err
	}

	return &Uniques{sketch: s}, nil
}

func (u *Uniques) Name() string {
	return UniquesName
}

func (u *Uniques) Types() []ValueType {
	return []ValueType{StringType}
}

func (u *Uniques) Fields() []Field {
	return []Field{
		{"value", IntType},
	}
}

func (u *Uniques) Reset() {
	u.sketch.Reset()
}

func (u *Uniques) Update(v Value) {
	if v.Type == StringType {
		u.sketch.AddString(v.Str)
	}
}

// StandardError is the expected relative error of the estimate.
func (u *Uniques) StandardError() float64 {
	return u.sketch.StandardError()
}

func (u *Uniques) Results() Result {
	return Result{
		{"value", Int(int64(u.sketch.Cardinality()))},
	}
}
