// Package hll implements a HyperLogLog cardinality sketch with a fixed
// register array sized from a target relative standard error.
package hll

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/zeebo/xxh3"
)

const (
	// MinPrecision and MaxPrecision bound the number of index bits.
	MinPrecision = 4
	MaxPrecision = 18

	// DefaultError is the relative standard error used when none is given.
	DefaultError = 0.1

	errorConstant = 1.04

	// Size of the hash space, 2^64.
	hashSpace = float64(1<<63) * 2
)

// ErrInvalidError is returned for a relative error outside (0, 1).
var ErrInvalidError = errors.New("hll: relative error must be in (0, 1)")

// Sketch estimates the number of distinct values offered to it. It is not
// safe for concurrent use.
type Sketch struct {
	p         uint8
	registers []uint8
}

// PrecisionFor returns the smallest precision p whose standard error
// 1.04/sqrt(2^p) does not exceed rse, clamped to [MinPrecision, MaxPrecision].
func PrecisionFor(rse float64) (uint8, error) {
	if math.IsNaN(rse) || rse <= 0 || rse >= 1 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidError, rse)
	}

	m := (errorConstant / rse) * (errorConstant / rse)
	p := int(math.Ceil(math.Log2(m)))

	if p < MinPrecision {
		p = MinPrecision
	}
	if p > MaxPrecision {
		p = MaxPrecision
	}

	return uint8(p), nil
}

// New returns a sketch sized for the relative standard error rse.
func New(rse float64) (*Sketch, error) {
	p, err := PrecisionFor(rse)
	if err != nil {
		return nil, err
	}

	return NewWithPrecision(p), nil
}

// NewWithPrecision returns a sketch with 2^p registers. p is clamped to
// [MinPrecision, MaxPrecision].
func NewWithPrecision(p uint8) *Sketch {
	if p < MinPrecision {
		p = MinPrecision
	}
	if p > MaxPrecision {
		p = MaxPrecision
	}

	return &Sketch{
		p:         p,
		registers: make([]uint8, 1<<p),
	}
}

// Precision returns the number of index bits.
func (s *Sketch) Precision() uint8 {
	return s.p
}

// Registers returns the number of registers, m.
func (s *Sketch) Registers() int {
	return len(s.registers)
}

// StandardError is the expected relative standard error of the estimate.
func (s *Sketch) StandardError() float64 {
	return errorConstant / math.Sqrt(float64(len(s.registers)))
}

// Reset zeroes every register.
func (s *Sketch) Reset() {
	clear(s.registers)
}

// Add offers the bytes b to the sketch.
func (s *Sketch) Add(b []byte) {
	s.insert(xxh3.Hash(b))
}

// AddString offers the string v to the sketch.
func (s *Sketch) AddString(v string) {
	s.insert(xxh3.HashString(v))
}

func (s *Sketch) insert(h uint64) {
	idx := h & (uint64(len(s.registers)) - 1)

	// Remaining 64-p bits, left aligned. The sentinel bit caps the rank at
	// 64-p+1 when they are all zero.
	w := h>>s.p<<s.p | 1<<(s.p-1)
	rank := uint8(bits.LeadingZeros64(w)) + 1

	if rank > s.registers[idx] {
		s.registers[idx] = rank
	}
}

// Cardinality returns the estimated number of distinct values. It does not
// modify the sketch.
func (s *Sketch) Cardinality() uint64 {
	m := float64(len(s.registers))

	var (
		sum   float64
		zeros int
	)

	for _, r := range s.registers {
		sum += math.Ldexp(1, -int(r))
		if r == 0 {
			zeros++
		}
	}

	est := alpha(len(s.registers)) * m * m / sum

	switch {
	// Small range: linear counting.
	case est <= 2.5*m && zeros > 0:
		est = m * math.Log(m/float64(zeros))

	// Large range. Estimates at or beyond the hash space only occur with
	// saturated registers and are capped just below it.
	case est > hashSpace/30:
		est = math.Min(est, math.Nextafter(hashSpace, 0))
		est = -hashSpace * math.Log1p(-est/hashSpace)
	}

	if est >= hashSpace {
		return math.MaxUint64
	}

	return uint64(math.Round(est))
}

func alpha(m int) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	}

	return 0.7213 / (1 + 1.079/float64(m))
}
