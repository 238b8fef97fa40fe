package pg

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chop-dbhi/data-profiler/profile"
)

func TestCleanFieldName(t *testing.T) {
	tests := map[string]string{
		"Percentile 95":   "percentile_95",
		"customer/name":   "customer_name",
		"a--b..c":         "a_b_c",
		"record_count":    "record_count",
		"Geometric Mean!": "geometric_mean_",
	}

	for in, exp := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, exp, cleanFieldName(in))
		})
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "people_quantitative", TableName("People", profile.QuantitativeName))
}

func TestColumnDefs(t *testing.T) {
	s := profile.Schema{
		Name: "test",
		Fields: []profile.Field{
			{Name: "mean", Type: profile.FloatType},
			{Name: "value", Type: profile.IntType},
		},
	}

	assert.Equal(t, []string{"column", "record_count", "mean", "value"}, columnNames(s))
	assert.Equal(t,
		`"column" text not null,"record_count" bigint not null,"mean" double precision,"value" bigint`,
		columnDefs(s))
}

func TestRows(t *testing.T) {
	reg, err := profile.DefaultRegistry(0.1)
	require.NoError(t, err)

	s := reg.NewSession(nil)
	s.Declare("age", profile.IntType)
	s.Declare("name", profile.StringType)

	for _, v := range []string{"1", "2"} {
		s.Incr()
		s.RecordRaw("age", v)
		s.RecordRaw("name", "x"+v)
	}

	p := s.Profile()
	schemas := reg.Schemas()
	require.Len(t, schemas, 2)

	quant := rows(p, schemas[0])
	require.Len(t, quant, 1)
	require.Len(t, quant[0], len(schemas[0].Fields)+2)

	assert.Equal(t, "age", quant[0][0])
	assert.Equal(t, int64(2), quant[0][1])
	assert.Equal(t, 1.0, quant[0][2])

	// Skewness of two values is undefined.
	assert.Nil(t, quant[0][8])

	uniques := rows(p, schemas[1])
	require.Len(t, uniques, 1)
	assert.Equal(t, "name", uniques[0][0])
	assert.IsType(t, int64(0), uniques[0][2])
}

func TestSQLValue(t *testing.T) {
	assert.Nil(t, sqlValue(profile.Float(math.NaN())))
	assert.Nil(t, sqlValue(profile.Float(math.Inf(-1))))
	assert.Nil(t, sqlValue(profile.Null()))
	assert.Equal(t, 1.5, sqlValue(profile.Float(1.5)))
	assert.Equal(t, int64(3), sqlValue(profile.Int(3)))
	assert.Equal(t, "a", sqlValue(profile.String("a")))
}

func TestTemplates(t *testing.T) {
	data := newTableData("my schema", "people_uniques")
	data.TempTable = `"tmp"`
	data.Columns = `"column" text`

	tests := map[string]string{
		"createSchema": `create schema if not exists "my schema"`,
		"createTable":  `create table if not exists "my schema"."people_uniques" ( "column" text )`,
		"renameTable":  `alter table "my schema"."tmp" rename to "people_uniques"`,
		"analyzeTable": `analyze "my schema"."people_uniques"`,
	}

	for name, exp := range tests {
		t.Run(name, func(t *testing.T) {
			var b bytes.Buffer
			require.NoError(t, sqlTmpl.ExecuteTemplate(&b, name, data))
			assert.Equal(t, exp, b.String())
		})
	}
}
