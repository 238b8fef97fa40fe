package profile

import "github.com/chop-dbhi/data-profiler/profile/hll"

// Factory constructs a new profiler instance.
type Factory func() Profiler

// Schema is the output schema of one profiler.
type Schema struct {
	Name   string      `json:"name"`
	Types  []ValueType `json:"types"`
	Fields []Field     `json:"fields"`
}

// Registry holds the profilers available to a session.
type Registry struct {
	factories []Factory
	schemas   []Schema
}

func NewRegistry(fs ...Factory) *Registry {
	r := &Registry{}

	for _, f := range fs {
		r.Register(f)
	}

	return r
}

// DefaultRegistry registers the quantitative and uniques profilers. rse is
// the relative standard error of the uniques estimate.
func DefaultRegistry(rse float64) (*Registry, error) {
	if _, err := hll.PrecisionFor(rse); err != nil {
		return nil, err
	}

	return NewRegistry(
		func() Profiler { return NewQuantitative() },
		func() Profiler {
			// rse is validated above.
			u, _ := NewUniques(rse)
			return u
		},
	), nil
}

// Register adds a profiler factory.
func (r *Registry) Register(f Factory) {
	p := f()

	r.factories = append(r.factories, f)
	r.schemas = append(r.schemas, Schema{
		Name:   p.Name(),
		Types:  p.Types(),
		Fields: p.Fields(),
	})
}

// Schemas returns the output schema of every registered profiler in
// registration order.
func (r *Registry) Schemas() []Schema {
	s := make([]Schema, len(r.schemas))
	copy(s, r.schemas)
	return s
}

// Applicable returns new, reset instances of the profilers that accept
// values of type t.
func (r *Registry) Applicable(t ValueType) []Profiler {
	var ps []Profiler

	for i, s := range r.schemas {
		for _, x := range s.Types {
			if x == t {
				p := r.factories[i]()
				p.Reset()
				ps = append(ps, p)
				break
			}
		}
	}

	return ps
}

type sessionColumn struct {
	column    *Column
	profilers []Profiler
}

// Session routes the values of each column to the profilers applicable to
// the column's declared type. A session is one pass over the data and is
// not safe for concurrent use.
type Session struct {
	registry *Registry
	selector *Selector
	count    int64
	columns  map[string]*sessionColumn
}

func (r *Registry) NewSession(c *Config) *Session {
	return &Session{
		registry: r,
		selector: NewSelector(c),
		columns:  make(map[string]*sessionColumn),
	}
}

// Declare sets the type of a column and attaches fresh profiler instances.
// Declaring a column again discards its previous state.
func (s *Session) Declare(name string, t ValueType) {
	idx := len(s.columns)
	if c, ok := s.column(name); ok {
		idx = c.column.Index
	}

	s.DeclareColumn(&Column{
		Name:  name,
		Index: idx,
		Type:  t,
	})
}

// DeclareColumn declares a column from an inferred shape.
func (s *Session) DeclareColumn(c *Column) {
	n, ok := s.selector.Selected(c.Name)
	if !ok {
		return
	}

	col := *c
	col.Name = n
	col.Count = 0
	col.Profiles = nil

	s.columns[n] = &sessionColumn{
		column:    &col,
		profilers: s.registry.Applicable(c.Type),
	}
}

// DeclareProfile declares every column of an inferred profile.
func (s *Session) DeclareProfile(p *Profile) {
	for _, n := range p.Names() {
		s.DeclareColumn(p.Columns[n])
	}
}

// Type returns the declared type of a column.
func (s *Session) Type(name string) (ValueType, bool) {
	c, ok := s.column(name)
	if !ok {
		return UnknownType, false
	}

	return c.column.Type, true
}

func (s *Session) column(name string) (*sessionColumn, bool) {
	n, ok := s.selector.Selected(name)
	if !ok {
		return nil, false
	}

	c, ok := s.columns[n]
	return c, ok
}

// Incr increments the record count.
func (s *Session) Incr() {
	s.count++
}

// Record offers a value of a declared column to its profilers after
// converting it to the declared type. Values of undeclared columns, absent
// values and values of types a profiler does not accept are skipped.
func (s *Session) Record(name string, v Value) {
	c, ok := s.column(name)
	if !ok {
		return
	}

	s.record(c, Convert(v, c.column.Type))
}

func (s *Session) record(c *sessionColumn, v Value) {
	if v.IsNull() {
		return
	}

	c.column.Count++

	for _, p := range c.profilers {
		if Accepts(p, v.Type) {
			p.Update(v)
		}
	}
}

// RecordRaw coerces raw text to the declared type of the column and
// records it.
func (s *Session) RecordRaw(name string, raw string) {
	c, ok := s.column(name)
	if !ok {
		return
	}

	s.record(c, Coerce(raw, c.column.Type))
}

// Profile collects the results of every profiler.
func (s *Session) Profile() *Profile {
	p := NewProfile()
	p.RecordCount = s.count

	for n, c := range s.columns {
		col := *c.column

		if len(c.profilers) > 0 {
			col.Profiles = make(map[string]Result, len(c.profilers))
			for _, pr := range c.profilers {
				col.Profiles[pr.Name()] = pr.Results()
			}
		}

		p.Columns[n] = &col
	}

	return p
}

// Reset resets every profiler and the counts so the session can be reused
// for another pass.
func (s *Session) Reset() {
	s.count = 0

	for _, c := range s.columns {
		c.column.Count = 0
		for _, p := range c.profilers {
			p.Reset()
		}
	}
}
