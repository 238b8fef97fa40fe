package profiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chop-dbhi/data-profiler/profile"
)

// RunDir profiles every file under root with at most concurrency files in
// flight. Each file is profiled with a copy of the template request whose
// table is named after the file and whose schema is named after its
// directory relative to root. Rendered output is written to the template's
// writer in path order once all files are done. A file that fails is
// logged and does not stop the others; the errors are returned joined.
func RunDir(ctx context.Context, root string, template Request, logger zerolog.Logger, concurrency int) (map[string]*profile.Profile, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		errs    []error
		results = make(map[string]*profile.Profile, len(paths))
		outputs = make(map[string]*bytes.Buffer, len(paths))
	)

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for _, path := range paths {
		rpath, _ := filepath.Rel(root, path)
		dir, base := filepath.Split(rpath)

		r := template
		r.Path = path
		r.Table = strings.Split(base, ".")[0]

		if dir = strings.Trim(filepath.ToSlash(dir), "/"); dir != "" {
			r.Schema = strings.ReplaceAll(dir, "/", "_")
		}

		var out *bytes.Buffer
		if template.Writer != nil {
			out = &bytes.Buffer{}
			r.Writer = out
		}

		log := logger.With().Str("file", rpath).Logger()

		g.Go(func() error {
			log.Info().
				Str("schema", r.Schema).
				Str("table", r.Table).
				Msg("profiling file")

			p, err := Run(ctx, &r, log)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Error().Err(err).Msg("error profiling file")
				errs = append(errs, fmt.Errorf("%s: %w", rpath, err))
				return nil
			}

			results[rpath] = p
			if out != nil {
				outputs[rpath] = out
			}

			return nil
		})
	}

	// Failures are collected in errs so every file gets a chance to run.
	_ = g.Wait()

	if template.Writer != nil {
		if err := writeOutputs(template.Writer, outputs); err != nil {
			return results, err
		}
	}

	return results, errors.Join(errs...)
}

func writeOutputs(w io.Writer, outputs map[string]*bytes.Buffer) error {
	names := make([]string, 0, len(outputs))
	for n := range outputs {
		names = append(names, n)
	}

	sort.Strings(names)

	for _, n := range names {
		if _, err := fmt.Fprintf(w, "==> %s <==\n", n); err != nil {
			return err
		}

		if _, err := outputs[n].WriteTo(w); err != nil {
			return err
		}
	}

	return nil
}
