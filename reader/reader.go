package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression types.
const (
	None  = ""
	Gzip  = "gzip"
	Bzip2 = "bzip2"
	Zstd  = "zstd"
)

var ErrUnsupportedCompression = errors.New("compression type not supported")

var bom = []byte{0xef, 0xbb, 0xbf}

// UniversalReader wraps an io.Reader to drop a leading byte order mark and
// replace carriage returns with newlines so CSV lines are delimited
// regardless of the platform that wrote them.
type UniversalReader struct {
	r       io.Reader
	started bool
}

func (r *UniversalReader) Read(buf []byte) (int, error) {
	n, err := r.r.Read(buf)

	if !r.started && n > 0 {
		r.started = true

		if bytes.HasPrefix(buf[:n], bom) {
			copy(buf, buf[len(bom):n])
			n -= len(bom)
		}
	}

	for i, b := range buf[:n] {
		if b == '\r' {
			buf[i] = '\n'
		}
	}

	return n, err
}

func NewUniversalReader(r io.Reader) *UniversalReader {
	return &UniversalReader{r: r}
}

// NormalizeCompression maps extension style names to a compression type.
func NormalizeCompression(t string) (string, error) {
	switch strings.ToLower(t) {
	case "":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "bz2", "bzip2":
		return Bzip2, nil
	case "zst", "zstd":
		return Zstd, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedCompression, t)
}

// Decompress takes a compression type and a reader and returns a reader
// that will be decompressed if the type is supported. The returned closer
// releases decoder resources and is never nil.
func Decompress(t string, r io.Reader) (io.Reader, io.Closer, error) {
	t, err := NormalizeCompression(t)
	if err != nil {
		return nil, nil, err
	}

	switch t {
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gr, gr, nil

	case Bzip2:
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, nil, err
		}
		return br, br, nil

	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, closerFunc(func() error { zr.Close(); return nil }), nil
	}

	return r, closerFunc(func() error { return nil }), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// DetectType attempts to detect the file format and compression types by
// looking at the file path extensions.
func DetectType(url string) (string, string) {
	_, name := path.Split(url)

	// Split up extensions.
	exts := strings.Split(name, ".")[1:]

	var (
		compression string
		format      string
	)

	for _, ext := range exts {
		switch strings.ToLower(ext) {
		case "gz", "gzip":
			compression = Gzip

		case "bz2", "bzip2":
			compression = Bzip2

		case "zst", "zstd":
			compression = Zstd

		case "json":
			format = "json"

		case "csv", "tsv", "txt":
			format = "csv"

		case "ldjson", "jsonl", "ndjson":
			format = "ldjson"
		}
	}

	return format, compression
}

// DetectDelimiter returns the field delimiter implied by the file path
// extensions: a tab for .tsv files and a comma otherwise.
func DetectDelimiter(url string) string {
	_, name := path.Split(url)

	for _, ext := range strings.Split(name, ".")[1:] {
		if strings.EqualFold(ext, "tsv") {
			return "\t"
		}
	}

	return ","
}

// Reader encapsulates a file or stdin stream.
type Reader struct {
	Name        string
	Compression string

	reader  io.Reader
	decoder io.Closer
	file    *os.File
}

// Read implements the io.Reader interface.
func (r *Reader) Read(buf []byte) (int, error) {
	return r.reader.Read(buf)
}

// Close implements the io.Closer interface. Stdin is never closed.
func (r *Reader) Close() error {
	var err error

	if r.decoder != nil {
		err = r.decoder.Close()
	}

	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// Open a reader by name with optional compression. If no name is
// specified, stdin is used. If no compression is given it is detected
// from the extension.
func Open(name, compr string) (*Reader, error) {
	if compr == "" {
		_, compr = DetectType(name)
	}

	// Validate the compression method before working with files.
	compr, err := NormalizeCompression(compr)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		Name:        name,
		Compression: compr,
	}

	var in io.Reader

	if name == "" {
		in = os.Stdin
	} else {
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}

		r.file = file
		in = file
	}

	dr, closer, err := Decompress(compr, in)
	if err != nil {
		r.Close()
		return nil, err
	}

	r.decoder = closer
	r.reader = NewUniversalReader(dr)

	return r, nil
}
