// Package pg stores profile results in PostgreSQL. Each profiler gets its
// own table with one row per profiled column.
package pg

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"strings"
	"text/template"

	"github.com/lib/pq"
	uuid "github.com/satori/go.uuid"

	"github.com/chop-dbhi/data-profiler/profile"
)

var (
	badChars = regexp.MustCompile(`[^a-z0-9_\-\.\+]+`)
	sepChars = regexp.MustCompile(`[_\-\.\+]+`)

	sqlTmpl = template.New("sql")

	queryTmpls = map[string]string{
		"createSchema": `create schema if not exists {{.Schema}}`,
		"createTable":  `create table if not exists {{.Schema}}.{{.Table}} ( {{.Columns}} )`,
		"dropTable":    `drop table if exists {{.Schema}}.{{.Table}}`,
		"renameTable":  `alter table {{.Schema}}.{{.TempTable}} rename to {{.Table}}`,
		"analyzeTable": `analyze {{.Schema}}.{{.Table}}`,
	}
)

func init() {
	for name, tmpl := range queryTmpls {
		template.Must(sqlTmpl.New(name).Parse(tmpl))
	}
}

// Fixed leading columns of every result table.
const (
	ColumnName  = "column"
	RecordCount = "record_count"
)

// Map of value types to SQL types.
var sqlTypeMap = map[profile.ValueType]string{
	profile.StringType:   "text",
	profile.IntType:      "bigint",
	profile.FloatType:    "double precision",
	profile.BoolType:     "boolean",
	profile.DateType:     "date",
	profile.DateTimeType: "timestamp",
}

func sqlType(t profile.ValueType) string {
	if s, ok := sqlTypeMap[t]; ok {
		return s
	}

	return "text"
}

// tableData holds quoted identifiers for the statement templates.
type tableData struct {
	Schema    string
	TempTable string
	Table     string
	Columns   string
}

func newTableData(schema, table string) *tableData {
	return &tableData{
		Schema: pq.QuoteIdentifier(schema),
		Table:  pq.QuoteIdentifier(table),
	}
}

func cleanFieldName(n string) string {
	n = strings.ToLower(n)
	n = badChars.ReplaceAllString(n, "_")
	return sepChars.ReplaceAllString(n, "_")
}

// TableName returns the name of the table holding the results of the
// named profiler.
func TableName(table, profiler string) string {
	return cleanFieldName(table + "_" + profiler)
}

// columnNames returns the cleaned column names of a profiler table.
func columnNames(s profile.Schema) []string {
	cols := []string{ColumnName, RecordCount}

	for _, f := range s.Fields {
		cols = append(cols, cleanFieldName(f.Name))
	}

	return cols
}

// columnDefs returns the column definitions of a profiler table.
func columnDefs(s profile.Schema) string {
	defs := []string{
		pq.QuoteIdentifier(ColumnName) + " text not null",
		pq.QuoteIdentifier(RecordCount) + " bigint not null",
	}

	for _, f := range s.Fields {
		defs = append(defs, fmt.Sprintf("%s %s", pq.QuoteIdentifier(cleanFieldName(f.Name)), sqlType(f.Type)))
	}

	return strings.Join(defs, ",")
}

func sqlValue(v profile.Value) interface{} {
	switch v.Type {
	case profile.IntType:
		return v.Int
	case profile.FloatType:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return nil
		}
		return v.Float
	case profile.StringType:
		return v.Str
	}

	return nil
}

// rows returns one row per column that has results for the profiler, in
// column order.
func rows(p *profile.Profile, s profile.Schema) [][]interface{} {
	var out [][]interface{}

	for _, n := range p.Names() {
		c := p.Columns[n]

		res, ok := c.Profiles[s.Name]
		if !ok {
			continue
		}

		row := make([]interface{}, 0, len(s.Fields)+2)
		row = append(row, c.Name, p.RecordCount)

		for _, f := range s.Fields {
			v, _ := res.Get(f.Name)
			row = append(row, sqlValue(v))
		}

		out = append(out, row)
	}

	return out
}

type Client struct {
	db *sql.DB
}

func New(db *sql.DB) *Client {
	return &Client{
		db: db,
	}
}

// execTx calls a function within a transaction.
func (c *Client) execTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (c *Client) exec(ctx context.Context, name string, data *tableData) error {
	var b bytes.Buffer
	if err := sqlTmpl.ExecuteTemplate(&b, name, data); err != nil {
		return err
	}

	return c.execTx(ctx, func(tx *sql.Tx) error {
		stmt := b.String()
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing %s: %w\n%s", name, err, stmt)
		}

		return nil
	})
}

// Replace writes the results of every registered profiler into freshly
// built tables named <table>_<profiler>, swapping out existing tables. It
// returns the number of rows written.
func (c *Client) Replace(ctx context.Context, schemaName, tableName string, p *profile.Profile, reg *profile.Registry) (int64, error) {
	if err := c.exec(ctx, "createSchema", newTableData(schemaName, "")); err != nil {
		return 0, err
	}

	var total int64

	for _, s := range reg.Schemas() {
		name := TableName(tableName, s.Name)
		tempName := uuid.NewV4().String()

		if err := c.createTable(ctx, schemaName, tempName, s); err != nil {
			return total, err
		}

		n, err := c.copyData(ctx, schemaName, tempName, s, p)
		if err != nil {
			return total, err
		}

		total += n

		if err := c.renameTable(ctx, schemaName, tempName, name); err != nil {
			return total, err
		}

		if err := c.exec(ctx, "analyzeTable", newTableData(schemaName, name)); err != nil {
			return total, err
		}
	}

	return total, nil
}

// Append adds the results of every registered profiler to tables named
// <table>_<profiler>, creating them if needed.
func (c *Client) Append(ctx context.Context, schemaName, tableName string, p *profile.Profile, reg *profile.Registry) (int64, error) {
	if err := c.exec(ctx, "createSchema", newTableData(schemaName, "")); err != nil {
		return 0, err
	}

	var total int64

	for _, s := range reg.Schemas() {
		name := TableName(tableName, s.Name)

		if err := c.createTable(ctx, schemaName, name, s); err != nil {
			return total, err
		}

		n, err := c.copyData(ctx, schemaName, name, s, p)
		if err != nil {
			return total, err
		}

		total += n

		if err := c.exec(ctx, "analyzeTable", newTableData(schemaName, name)); err != nil {
			return total, err
		}
	}

	return total, nil
}

func (c *Client) createTable(ctx context.Context, schemaName, tableName string, s profile.Schema) error {
	data := newTableData(schemaName, tableName)
	data.Columns = columnDefs(s)

	return c.exec(ctx, "createTable", data)
}

func (c *Client) renameTable(ctx context.Context, schemaName, tempTableName, tableName string) error {
	data := newTableData(schemaName, tableName)
	data.TempTable = pq.QuoteIdentifier(tempTableName)

	tmpls := []string{
		"dropTable",
		"renameTable",
	}

	var b bytes.Buffer

	return c.execTx(ctx, func(tx *sql.Tx) error {
		for _, name := range tmpls {
			b.Reset()
			if err := sqlTmpl.ExecuteTemplate(&b, name, data); err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, b.String()); err != nil {
				return fmt.Errorf("error renaming table: %w", err)
			}
		}

		return nil
	})
}

func (c *Client) copyData(ctx context.Context, schemaName, tableName string, s profile.Schema, p *profile.Profile) (int64, error) {
	data := rows(p, s)
	columns := columnNames(s)

	var n int64

	err := c.execTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(schemaName, tableName, columns...))
		if err != nil {
			return fmt.Errorf("error preparing copy: %w", err)
		}
		defer stmt.Close()

		for _, row := range data {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("error sending row: %w", err)
			}

			n++
		}

		// Empty exec to flush the buffer.
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("error executing copy: %w", err)
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return n, nil
}
