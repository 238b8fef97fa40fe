package profile

import "strings"

// hasLeadingZeros checks if a valid integer value contains leading zeros.
// This is often an indicator that this is not an integer, but an identfier.
func hasLeadingZeros(s string) bool {
	if len(s) < 2 {
		return false
	}

	return s[0] == '0'
}

type Config struct {
	// Include are the fields to explicitly include.
	Include []string

	// Exclude are the fields to explicitly exclude.
	Exclude []string
}

// Selector applies the include and exclude lists to field names.
type Selector struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

func NewSelector(c *Config) *Selector {
	s := &Selector{}

	if c == nil {
		return s
	}

	if len(c.Exclude) > 0 {
		s.exclude = make(map[string]struct{})

		for _, f := range c.Exclude {
			s.exclude[strings.ToLower(f)] = struct{}{}
		}
	}

	if len(c.Include) > 0 {
		s.include = make(map[string]struct{})

		for _, f := range c.Include {
			s.include[strings.ToLower(f)] = struct{}{}
		}
	}

	return s
}

// Selected returns the normalized field name and whether it should be
// profiled.
func (s *Selector) Selected(n string) (string, bool) {
	n = strings.ToLower(n)

	if _, ok := s.exclude[n]; ok {
		return n, false
	}

	if len(s.include) > 0 {
		if _, ok := s.include[n]; !ok {
			return n, false
		}
	}

	return n, true
}

// Inferrer detects the most specific type of each field from a first pass
// over the data. The inferred types become the declared column types of
// the profiling pass.
type Inferrer struct {
	Count int64

	selector *Selector
	fields   map[string]*inferredField
	order    []string
}

func NewInferrer(c *Config) *Inferrer {
	return &Inferrer{
		selector: NewSelector(c),
		fields:   make(map[string]*inferredField),
	}
}

// Incr increments the record count.
func (p *Inferrer) Incr() {
	p.Count++
}

// field returns the field state if it should be profiled.
func (p *Inferrer) field(n string) (*inferredField, bool) {
	n, ok := p.selector.Selected(n)
	if !ok {
		return nil, false
	}

	f, ok := p.fields[n]
	if !ok {
		f = newInferredField(n, len(p.order))
		p.fields[n] = f
		p.order = append(p.order, n)
	}

	return f, true
}

// Record records a field-value pair of an unknown type. The raw text is
// parsed in a variety of ways to detect the type.
func (p *Inferrer) Record(n string, v string) {
	f, ok := p.field(n)
	if !ok {
		return
	}

	f.observe(v)

	if strings.TrimSpace(v) == "" {
		f.Missing = true
	}

	// Short circuit. Already most general type.
	if _, ok := f.Types[StringType]; ok {
		return
	}

	if _, ok := ParseInt(v); ok {
		if !f.LeadingZeros && hasLeadingZeros(v) {
			f.LeadingZeros = true
		}

		f.Types[IntType] = struct{}{}
		return
	}

	if _, ok := ParseFloat(v); ok {
		f.Types[FloatType] = struct{}{}
		return
	}

	if _, ok := ParseBool(v); ok {
		f.Types[BoolType] = struct{}{}
		return
	}

	if _, ok := ParseDate(v); ok {
		f.Types[DateType] = struct{}{}
		return
	}

	if _, ok := ParseDateTime(v); ok {
		f.Types[DateTimeType] = struct{}{}
		return
	}

	f.Types[StringType] = struct{}{}
}

// RecordType records a field-value pair with a known type.
func (p *Inferrer) RecordType(n string, v Value, t ValueType) {
	f, ok := p.field(n)
	if !ok {
		return
	}

	if !v.IsNull() {
		f.observe(v.String())
	}

	f.Types[t] = struct{}{}
}

// Profile returns the inferred shape of every field.
func (p *Inferrer) Profile() *Profile {
	r := NewProfile()
	r.RecordCount = p.Count

	for _, n := range p.order {
		r.Columns[n] = p.fields[n].Column()
	}

	return r
}

type inferredField struct {
	Name         string
	Index        int
	Types        map[ValueType]struct{}
	Values       map[string]struct{}
	Unique       bool
	Missing      bool
	LeadingZeros bool
}

func newInferredField(name string, idx int) *inferredField {
	return &inferredField{
		Name:   name,
		Index:  idx,
		Types:  make(map[ValueType]struct{}),
		Values: make(map[string]struct{}),
		Unique: true,
	}
}

// observe tracks uniqueness until the first duplicate is seen.
func (f *inferredField) observe(v string) {
	if !f.Unique {
		return
	}

	if _, ok := f.Values[v]; ok {
		f.Unique = false
		f.Values = nil
	} else {
		f.Values[v] = struct{}{}
	}
}

func (f *inferredField) Column() *Column {
	_, nullable := f.Types[NullType]

	return &Column{
		Name:         f.Name,
		Index:        f.Index,
		Type:         f.Type(),
		Nullable:     nullable,
		Missing:      f.Missing,
		Unique:       f.Unique,
		LeadingZeros: f.LeadingZeros,
	}
}

// Type returns the most specific type this field satisfies.
func (f *inferredField) Type() ValueType {
	if f.LeadingZeros {
		return StringType
	}

	var g ValueType

	for t := range f.Types {
		if g == UnknownType {
			g = t
		} else {
			g = GeneralizeType(t, g)
		}
	}

	return g
}
