package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry(0.1)
	require.NoError(t, err)

	schemas := r.Schemas()
	require.Len(t, schemas, 2)
	assert.Equal(t, QuantitativeName, schemas[0].Name)
	assert.Len(t, schemas[0].Fields, 14)
	assert.Equal(t, UniquesName, schemas[1].Name)
	assert.Equal(t, []Field{{"value", IntType}}, schemas[1].Fields)

	_, err = DefaultRegistry(1.5)
	assert.Error(t, err)
}

func TestRegistryApplicable(t *testing.T) {
	r, err := DefaultRegistry(0.1)
	require.NoError(t, err)

	tests := map[ValueType][]string{
		IntType:    {QuantitativeName},
		FloatType:  {QuantitativeName},
		StringType: {UniquesName},
		BoolType:   nil,
		DateType:   nil,
	}

	for typ, names := range tests {
		var got []string
		for _, p := range r.Applicable(typ) {
			got = append(got, p.Name())
		}
		assert.Equal(t, names, got, typ.String())
	}

	// Every call returns new instances.
	a := r.Applicable(IntType)[0]
	b := r.Applicable(IntType)[0]
	assert.NotSame(t, a, b)
}

func TestSession(t *testing.T) {
	r, err := DefaultRegistry(0.1)
	require.NoError(t, err)

	s := r.NewSession(nil)
	s.Declare("Amount", FloatType)
	s.Declare("name", StringType)
	s.Declare("active", BoolType)

	typ, ok := s.Type("amount")
	assert.True(t, ok)
	assert.Equal(t, FloatType, typ)

	rows := []struct {
		Amount string
		Name   string
		Active string
	}{
		{"1", "a", "true"},
		{"2.5", "b", "false"},
		{"", "a", "true"},
		{"3.5", "", "true"},
	}

	for _, row := range rows {
		s.RecordRaw("amount", row.Amount)
		s.RecordRaw("name", row.Name)
		s.RecordRaw("active", row.Active)
		s.Incr()
	}

	// Undeclared columns are ignored.
	s.Record("other", Int(1))

	p := s.Profile()
	assert.Equal(t, int64(4), p.RecordCount)
	require.Len(t, p.Columns, 3)

	amount := p.Columns["amount"]
	assert.Equal(t, int64(3), amount.Count)
	require.Contains(t, amount.Profiles, QuantitativeName)
	mean, _ := amount.Profiles[QuantitativeName].Get("mean")
	assert.InDelta(t, 7.0/3, mean.Float, 1e-12)

	name := p.Columns["name"]
	assert.Equal(t, int64(3), name.Count)
	uniq, _ := name.Profiles[UniquesName].Get("value")
	assert.InDelta(t, 2, float64(uniq.Int), 1)

	assert.Empty(t, p.Columns["active"].Profiles)
	assert.Equal(t, int64(4), p.Columns["active"].Count)
}

func TestSessionConvertsTypedValues(t *testing.T) {
	r, _ := DefaultRegistry(0.1)

	s := r.NewSession(nil)
	s.Declare("n", FloatType)
	s.Declare("s", StringType)

	s.Record("n", Int(2))
	s.Record("n", Float(4))
	s.Record("n", String("skip"))
	s.Record("s", Int(10))
	s.Record("s", String("10"))

	p := s.Profile()

	total, _ := p.Columns["n"].Profiles[QuantitativeName].Get("total")
	assert.Equal(t, 6.0, total.Float)
	assert.Equal(t, int64(2), p.Columns["n"].Count)

	uniq, _ := p.Columns["s"].Profiles[UniquesName].Get("value")
	assert.Equal(t, int64(1), uniq.Int)
}

func TestSessionReset(t *testing.T) {
	r, _ := DefaultRegistry(0.1)

	s := r.NewSession(nil)
	s.Declare("n", IntType)
	s.Record("n", Int(5))
	s.Incr()
	s.Profile()

	s.Reset()
	s.Record("n", Int(1))
	s.Incr()

	p := s.Profile()
	assert.Equal(t, int64(1), p.RecordCount)
	maximum, _ := p.Columns["n"].Profiles[QuantitativeName].Get("maximum")
	assert.Equal(t, 1.0, maximum.Float)
}

func TestSessionRedeclareKeepsIndex(t *testing.T) {
	r, _ := DefaultRegistry(0.1)

	s := r.NewSession(nil)
	s.Declare("a", IntType)
	s.Declare("b", StringType)
	s.Record("a", Int(1))

	s.Declare("a", FloatType)

	p := s.Profile()
	assert.Equal(t, 0, p.Columns["a"].Index)
	assert.Equal(t, 1, p.Columns["b"].Index)
	assert.Equal(t, FloatType, p.Columns["a"].Type)
	assert.Equal(t, int64(0), p.Columns["a"].Count)
	assert.Equal(t, []string{"a", "b"}, p.Names())
}

func TestSessionDeclareProfile(t *testing.T) {
	r, _ := DefaultRegistry(0.1)

	inf := NewInferrer(nil)
	inf.Record("id", "1")
	inf.Record("label", "x")

	s := r.NewSession(&Config{Exclude: []string{"label"}})
	s.DeclareProfile(inf.Profile())

	_, ok := s.Type("id")
	assert.True(t, ok)
	_, ok = s.Type("label")
	assert.False(t, ok)
}
