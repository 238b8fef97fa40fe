// Package config loads profiler settings from a YAML file and the
// environment. Command line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "PROFILER_"

// Config holds the profiling settings.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Profile  ProfileConfig  `yaml:"profile"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// InputConfig describes how input files are read.
type InputConfig struct {
	Format      string `yaml:"format"`
	Compression string `yaml:"compression"`
	Delimiter   string `yaml:"delimiter"`
	Header      bool   `yaml:"header"`
}

// ProfileConfig controls which columns are profiled and how.
type ProfileConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// RelativeError is the target relative standard error of the
	// uniques estimate.
	RelativeError float64 `yaml:"relative_error"`

	// Concurrency bounds the number of files profiled at once.
	Concurrency int `yaml:"concurrency"`
}

// OutputConfig selects the rendering of results.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// DatabaseConfig enables storing results in PostgreSQL when URL is set.
type DatabaseConfig struct {
	URL    string `yaml:"url"`
	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`
	Append bool   `yaml:"append"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Delimiter: ",",
			Header:    true,
		},
		Profile: ProfileConfig{
			RelativeError: 0.1,
			Concurrency:   4,
		},
		Output: OutputConfig{
			Format: "table",
		},
		Database: DatabaseConfig{
			Schema: "public",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if not
// empty), a .env file in the working directory (if present) and the
// process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	// A missing .env file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile overlays the YAML file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// ApplyEnv overlays PROFILER_* variables using lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		return lookup(EnvPrefix + name)
	}

	strs := map[string]*string{
		"FORMAT":      &c.Input.Format,
		"COMPRESSION": &c.Input.Compression,
		"DELIMITER":   &c.Input.Delimiter,
		"OUTPUT":      &c.Output.Format,
		"DATABASE":    &c.Database.URL,
		"SCHEMA":      &c.Database.Schema,
		"TABLE":       &c.Database.Table,
		"LOG_LEVEL":   &c.Log.Level,
	}

	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"HEADER":     &c.Input.Header,
		"APPEND":     &c.Database.Append,
		"LOG_PRETTY": &c.Log.Pretty,
	}

	for name, dst := range bools {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	if v, ok := get("RELATIVE_ERROR"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sRELATIVE_ERROR: %w", EnvPrefix, err)
		}
		c.Profile.RelativeError = f
	}

	if v, ok := get("CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sCONCURRENCY: %w", EnvPrefix, err)
		}
		c.Profile.Concurrency = n
	}

	if v, ok := get("INCLUDE"); ok {
		c.Profile.Include = splitList(v)
	}

	if v, ok := get("EXCLUDE"); ok {
		c.Profile.Exclude = splitList(v)
	}

	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Input.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("delimiter must be a single byte, got %q", c.Input.Delimiter))
	}

	switch c.Input.Format {
	case "", "csv", "json", "ldjson":
	default:
		errs = append(errs, fmt.Errorf("unsupported input format %q", c.Input.Format))
	}

	if e := c.Profile.RelativeError; !(e > 0 && e < 1) {
		errs = append(errs, fmt.Errorf("relative error must be in (0, 1), got %v", e))
	}

	if c.Profile.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Profile.Concurrency))
	}

	switch c.Output.Format {
	case "table", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported output format %q", c.Output.Format))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string

	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
