package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/INLOpen/meryl/compressors"
	"golang.org/x/term"
)

// Stdio is the path that names standard input or output.
const Stdio = "-"

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var errs []error
	for _, c := range rc.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type writeCloser struct {
	io.Writer
	closers []io.Closer // innermost first
}

func (wc *writeCloser) Close() error {
	var errs []error
	for _, c := range wc.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenInput opens path, or stdin for "-", and decompresses it according to
// compression ("auto" infers it from the extension).
func OpenInput(path, compression string) (io.ReadCloser, error) {
	ct, err := compressors.Resolve(compression, path)
	if err != nil {
		return nil, err
	}
	c, err := compressors.ForType(ct)
	if err != nil {
		return nil, err
	}

	var f io.ReadCloser = io.NopCloser(os.Stdin)
	if path != Stdio {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input %s: %w", path, err)
		}
		f = file
	}
	dec, err := c.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readCloser{Reader: dec, closers: []io.Closer{dec, f}}, nil
}

// CreateOutput creates path, or uses stdout for "-", compressing according
// to compression. Closing the result flushes the compressor first.
func CreateOutput(path, compression string) (io.WriteCloser, error) {
	ct, err := compressors.Resolve(compression, path)
	if err != nil {
		return nil, err
	}
	c, err := compressors.ForType(ct)
	if err != nil {
		return nil, err
	}

	var f io.WriteCloser = nopCloser{os.Stdout}
	if path != Stdio {
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output %s: %w", path, err)
		}
		f = file
	}
	enc, err := c.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &writeCloser{Writer: enc, closers: []io.Closer{enc, f}}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// IsTerminal reports whether path is "-" and stdout is a terminal.
func IsTerminal(path string) bool {
	return path == Stdio && term.IsTerminal(int(os.Stdout.Fd()))
}
