package profile

import "sort"

// Column stores the inferred shape of a column and the results of the
// profilers that ran over it.
type Column struct {
	// Name of this column.
	Name string `json:"name"`

	// Index of the column in tabular sources.
	Index int `json:"index"`

	// Declared or inferred type of the column.
	Type ValueType `json:"type"`

	// True if the column contains null values.
	Nullable bool `json:"nullable"`

	// True if the column contains blank strings.
	Missing bool `json:"missing"`

	// True if all values are unique.
	Unique bool `json:"unique"`

	// If true, at least one value has been detected to have a leading zero.
	LeadingZeros bool `json:"leading_zeros"`

	// Number of present values offered to the profilers.
	Count int64 `json:"count"`

	// Profiler results keyed by profiler name.
	Profiles map[string]Result `json:"profiles,omitempty"`
}

type Profile struct {
	// Total number of records processed.
	RecordCount int64 `json:"record_count"`

	// Flat set of columns that were profiled.
	Columns map[string]*Column `json:"columns"`
}

func NewProfile() *Profile {
	return &Profile{
		Columns: make(map[string]*Column),
	}
}

// Names returns the column names ordered by index, then name.
func (p *Profile) Names() []string {
	names := make([]string, 0, len(p.Columns))
	for n := range p.Columns {
		names = append(names, n)
	}

	sort.Slice(names, func(i, j int) bool {
		a, b := p.Columns[names[i]], p.Columns[names[j]]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Name < b.Name
	})

	return names
}
