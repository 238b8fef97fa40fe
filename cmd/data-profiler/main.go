package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	profiler "github.com/chop-dbhi/data-profiler"
	"github.com/chop-dbhi/data-profiler/internal/config"
	"github.com/chop-dbhi/data-profiler/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data-profiler [path]",
		Short: "Profile the columns of a CSV or JSON file",
		Long: `Infers the type of every column of a delimited or JSON file and
computes descriptive statistics for numeric columns and an approximate
distinct count for text columns.

If path is a directory every file below it is profiled. If no path is
given the input is read from stdin.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}

			return run(cmd.Context(), cmd.Flags(), path, cmd.OutOrStdout())
		},
	}

	addFlags(cmd.Flags())

	return cmd
}

func addFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file.")
	fs.String("format", "", "Input format: csv, json or ldjson. Detected from the extension if empty.")
	fs.String("compression", "", "Compression used: gzip, bzip2 or zstd. Detected from the extension if empty.")
	fs.String("csv.delim", ",", "CSV delimiter.")
	fs.Bool("csv.noheader", false, "No CSV header present.")
	fs.StringSlice("include", nil, "Columns to profile.")
	fs.StringSlice("exclude", nil, "Columns to skip.")
	fs.Float64("rse", 0.1, "Relative standard error of the distinct count estimate.")
	fs.String("output", "table", "Output format: table or json.")
	fs.String("db", "", "Database URL to store results in.")
	fs.String("schema", "public", "Schema name.")
	fs.String("table", "", "Table name prefix. Defaults to the file name.")
	fs.Bool("append", false, "Append to existing result tables.")
	fs.String("log-level", "info", "Log level.")
	fs.Int("concurrency", 4, "Number of files profiled at once.")
}

// applyFlags overlays the flags set on the command line.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	var err error

	visit := func(f *pflag.Flag) {
		if err != nil {
			return
		}

		switch f.Name {
		case "format":
			cfg.Input.Format, err = fs.GetString(f.Name)
		case "compression":
			cfg.Input.Compression, err = fs.GetString(f.Name)
		case "csv.delim":
			cfg.Input.Delimiter, err = fs.GetString(f.Name)
		case "csv.noheader":
			var v bool
			v, err = fs.GetBool(f.Name)
			cfg.Input.Header = !v
		case "include":
			cfg.Profile.Include, err = fs.GetStringSlice(f.Name)
		case "exclude":
			cfg.Profile.Exclude, err = fs.GetStringSlice(f.Name)
		case "rse":
			cfg.Profile.RelativeError, err = fs.GetFloat64(f.Name)
		case "concurrency":
			cfg.Profile.Concurrency, err = fs.GetInt(f.Name)
		case "output":
			cfg.Output.Format, err = fs.GetString(f.Name)
		case "db":
			cfg.Database.URL, err = fs.GetString(f.Name)
		case "schema":
			cfg.Database.Schema, err = fs.GetString(f.Name)
		case "table":
			cfg.Database.Table, err = fs.GetString(f.Name)
		case "append":
			cfg.Database.Append, err = fs.GetBool(f.Name)
		case "log-level":
			cfg.Log.Level, err = fs.GetString(f.Name)
		}
	}

	// Visit only walks flags that were set.
	fs.Visit(visit)

	return err
}

func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	path, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(fs, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newRequest(cfg *config.Config, path string, w io.Writer) profiler.Request {
	return profiler.Request{
		Path: path,

		Format:      cfg.Input.Format,
		Compression: cfg.Input.Compression,
		Delimiter:   cfg.Input.Delimiter,
		NoHeader:    !cfg.Input.Header,

		Include:       cfg.Profile.Include,
		Exclude:       cfg.Profile.Exclude,
		RelativeError: cfg.Profile.RelativeError,

		Output: cfg.Output.Format,
		Writer: w,

		Database: cfg.Database.URL,
		Schema:   cfg.Database.Schema,
		Table:    cfg.Database.Table,
		Append:   cfg.Database.Append,
	}
}

func run(ctx context.Context, fs *pflag.FlagSet, path string, w io.Writer) error {
	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}

	logger := logging.NewWithComponent(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	}, "data-profiler")

	r := newRequest(cfg, path, w)

	if path != "" {
		stat, err := os.Stat(path)
		if err != nil {
			return err
		}

		if stat.IsDir() {
			// Tables are named after each file.
			r.Table = ""
			_, err := profiler.RunDir(ctx, path, r, logger, cfg.Profile.Concurrency)
			return err
		}
	}

	_, err = profiler.Run(ctx, &r, logger)
	return err
}
