package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"termkit/internal/diag"
	"termkit/internal/source"
	"termkit/internal/term"
)

// ReadNamedFile reads one term from path; "-" means standard input.
// A file that cannot be opened is reported as an error value.
func ReadNamedFile(store *term.Store, path string) (term.ID, error) {
	var in io.Reader = os.Stdin
	if path != "-" {
		// #nosec G304 -- path is provided by the caller
		f, err := os.Open(path)
		if err != nil {
			return term.NoTerm, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	name := path
	if path == "-" {
		name = source.StdinPath
	}
	r := NewStreamReader(store, in, Options{Path: name})
	id, err := r.ReadTerm()
	if errors.Is(err, io.EOF) {
		return term.NoTerm, r.fail(diag.SynUnexpectedEOF, "no term in input", nil)
	}
	return id, err
}

// WriteNamedFile writes the canonical text of id followed by a newline to
// path; "-" means standard output.
func WriteNamedFile(store *term.Store, id term.ID, path string) (err error) {
	var out io.Writer = os.Stdout
	if path != "-" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("create %s: %w", path, createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", path, closeErr)
			}
		}()
		out = f
	}

	name := path
	if path == "-" {
		name = "<stdout>"
	}
	w := bufio.NewWriter(out)
	if err := Write(w, store, id); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
