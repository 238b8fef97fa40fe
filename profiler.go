// Package profiler profiles the columns of delimited and JSON files and
// optionally stores the results in PostgreSQL.
package profiler

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chop-dbhi/data-profiler/profile"
	"github.com/chop-dbhi/data-profiler/profile/csv"
	"github.com/chop-dbhi/data-profiler/profile/hll"
	"github.com/chop-dbhi/data-profiler/profile/json"
	"github.com/chop-dbhi/data-profiler/reader"
	"github.com/chop-dbhi/data-profiler/render"
	"github.com/chop-dbhi/data-profiler/sink/pg"
)

// Input formats.
const (
	FormatCSV    = "csv"
	FormatJSON   = json.FormatJSON
	FormatLDJSON = json.FormatLDJSON
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

var ErrUnsupportedFormat = errors.New("file format not supported")

type Request struct {
	// Input path. Stdin is read if empty.
	Path string

	// File specifics. Detected from the path if empty.
	Format      string
	Compression string

	// CSV. The delimiter defaults to a tab for .tsv files and a comma
	// otherwise. The first record is a header unless NoHeader is set.
	Delimiter string
	NoHeader  bool

	// Columns to include or exclude.
	Include []string
	Exclude []string

	// Relative standard error of the uniques estimate.
	RelativeError float64

	// Rendering of the results written to Writer. Nothing is rendered if
	// Writer is nil.
	Output string
	Writer io.Writer

	// Target database. Results are not stored if empty.
	Database string
	Schema   string
	Table    string
	Append   bool
}

func (r *Request) normalize() error {
	format, compr := reader.DetectType(r.Path)

	if r.Format == "" {
		r.Format = format
	}

	if r.Format == "" {
		r.Format = FormatCSV
	}

	switch r.Format {
	case FormatCSV, FormatJSON, FormatLDJSON:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.Format)
	}

	if r.Compression == "" {
		r.Compression = compr
	}

	if r.Delimiter == "" {
		r.Delimiter = reader.DetectDelimiter(r.Path)
	}

	if len(r.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single byte: %q", r.Delimiter)
	}

	if r.RelativeError == 0 {
		r.RelativeError = hll.DefaultError
	}

	if r.Output == "" {
		r.Output = OutputTable
	}

	if r.Schema == "" {
		r.Schema = "public"
	}

	if r.Table == "" {
		r.Table = tableName(r.Path)
	}

	return nil
}

func tableName(path string) string {
	if path == "" {
		return "stdin"
	}

	_, base := filepath.Split(path)
	return strings.Split(base, ".")[0]
}

// opener returns a function that opens the input for each pass. Stdin is
// buffered in memory since it cannot be read twice.
func opener(r *Request) (func() (io.ReadCloser, error), error) {
	if r.Path != "" {
		return func() (io.ReadCloser, error) {
			return reader.Open(r.Path, r.Compression)
		}, nil
	}

	in, err := reader.Open("", r.Compression)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	buf, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("cannot read stdin: %w", err)
	}

	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}, nil
}

// pass opens the input and applies fn to it.
func pass(open func() (io.ReadCloser, error), fn func(io.Reader) (*profile.Profile, error)) (*profile.Profile, error) {
	in, err := open()
	if err != nil {
		return nil, fmt.Errorf("cannot open input: %w", err)
	}
	defer in.Close()

	return fn(in)
}

// Run profiles the input described by the request. The input is read
// twice: once to infer column types and once to feed the values to the
// profilers applicable to each type.
func Run(ctx context.Context, r *Request, logger zerolog.Logger) (*profile.Profile, error) {
	if err := r.normalize(); err != nil {
		return nil, err
	}

	logger = logger.With().Str("path", r.Path).Str("format", r.Format).Logger()
	start := time.Now()

	reg, err := profile.DefaultRegistry(r.RelativeError)
	if err != nil {
		return nil, err
	}

	config := &profile.Config{
		Include: r.Include,
		Exclude: r.Exclude,
	}

	open, err := opener(r)
	if err != nil {
		return nil, err
	}

	var (
		infer   func(io.Reader) (*profile.Profile, error)
		collect func(io.Reader, *profile.Session) (*profile.Profile, error)
	)

	if r.Format == FormatCSV {
		cp := csv.NewProfiler()
		cp.Config = config
		cp.Delimiter = r.Delimiter[0]
		cp.Header = !r.NoHeader

		infer = cp.Infer
		collect = cp.Profile
	} else {
		infer = func(in io.Reader) (*profile.Profile, error) {
			return json.Infer(config, in, r.Format)
		}
		collect = func(in io.Reader, s *profile.Session) (*profile.Profile, error) {
			return json.Profile(in, r.Format, s)
		}
	}

	shape, err := pass(open, infer)
	if err != nil {
		return nil, fmt.Errorf("infer error: %w", err)
	}

	logger.Debug().
		Int64("records", shape.RecordCount).
		Int("columns", len(shape.Columns)).
		Msg("inferred column types")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := reg.NewSession(config)
	s.DeclareProfile(shape)

	prof, err := pass(open, func(in io.Reader) (*profile.Profile, error) {
		return collect(in, s)
	})
	if err != nil {
		return nil, fmt.Errorf("profile error: %w", err)
	}

	logger.Info().
		Int64("records", prof.RecordCount).
		Int("columns", len(prof.Columns)).
		Dur("duration", time.Since(start)).
		Msg("done profiling")

	if r.Writer != nil {
		if err := write(r.Writer, r.Output, prof); err != nil {
			return nil, err
		}
	}

	if r.Database != "" {
		if err := store(ctx, r, prof, reg, logger); err != nil {
			return nil, err
		}
	}

	return prof, nil
}

func write(w io.Writer, output string, p *profile.Profile) error {
	switch output {
	case OutputTable:
		return render.Table(w, p)
	case OutputJSON:
		return render.JSON(w, p)
	}

	return fmt.Errorf("output format not supported: %s", output)
}

func store(ctx context.Context, r *Request, p *profile.Profile, reg *profile.Registry, logger zerolog.Logger) error {
	db, err := sql.Open("postgres", r.Database)
	if err != nil {
		return fmt.Errorf("cannot open db connection: %w", err)
	}
	defer db.Close()

	logger.Info().
		Str("schema", r.Schema).
		Str("table", r.Table).
		Bool("append", r.Append).
		Msg("begin load")

	var n int64

	c := pg.New(db)
	if r.Append {
		n, err = c.Append(ctx, r.Schema, r.Table, p, reg)
	} else {
		n, err = c.Replace(ctx, r.Schema, r.Table, p, reg)
	}
	if err != nil {
		return fmt.Errorf("error loading: %w", err)
	}

	logger.Info().Int64("rows", n).Msg("loaded results")

	return nil
}
