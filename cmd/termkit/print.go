package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"termkit/internal/codec"
	"termkit/internal/term"
	"termkit/internal/termfmt"
)

var printCmd = &cobra.Command{
	Use:   "print [file|-]",
	Short: "Read one term and write its canonical text",
	Long: `Read one term from a file or standard input and write it back in canonical form.
With --format the term is rendered through a printf-style format instead,
for example --format '%t has checksum %h'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrint,
}

func init() {
	printCmd.Flags().StringP("output", "o", "-", "output file (\"-\" for stdout)")
	printCmd.Flags().String("format", "", "termfmt format applied to the term (%t, %n, %h, %y, %,l ...)")
}

func runPrint(cmd *cobra.Command, args []string) (err error) {
	input := "-"
	if len(args) == 1 {
		input = args[0]
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	sess, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer func() { err = sess.finish(cmd.ErrOrStderr(), err) }()

	store := sess.newStore()
	var id term.ID
	err = sess.phase("parse", func() error {
		var readErr error
		id, readErr = codec.ReadNamedFile(store, input)
		return readErr
	})
	if err != nil {
		return sess.reportReadError(cmd.ErrOrStderr(), err, nil)
	}

	if format == "" {
		return sess.phase("print", func() error {
			return codec.WriteNamedFile(store, id, output)
		})
	}
	return sess.phase("print", func() error {
		return writeFormatted(store, id, format, output)
	})
}

// writeFormatted renders id through format. Every directive is fed from
// the same term, so "%t %h" prints the term and its checksum.
func writeFormatted(store *term.Store, id term.ID, format, path string) (err error) {
	compiled := termfmt.Compile(format)
	args, err := formatArgs(store, id, compiled)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if path != "-" {
		// #nosec G304 -- path is provided by the caller
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

	buf, err := compiled.Append(nil, store, args...)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(format, "\n") {
		buf = append(buf, '\n')
	}
	w := bufio.NewWriter(out)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Flush()
}

// formatArgs derives one argument per directive from id: the head symbol
// for %y, the value of an int for numeric verbs and the term itself
// otherwise.
func formatArgs(store *term.Store, id term.ID, f *termfmt.Format) ([]any, error) {
	args := make([]any, 0, f.NumArgs())
	for _, d := range f.Directives() {
		switch d.Kind {
		case termfmt.Literal:
			continue
		case termfmt.Symbol:
			if store.Tag(id) != term.TagAppl {
				return nil, fmt.Errorf("directive %q needs an application, got %s", d.Spec, store.Tag(id))
			}
			args = append(args, store.ApplSymbol(id))
		case termfmt.Numeric:
			if store.Tag(id) != term.TagInt {
				return nil, fmt.Errorf("directive %q needs an integer, got %s", d.Spec, store.Tag(id))
			}
			v := store.IntValue(id)
			if strings.IndexByte("eEfgG", d.Verb) >= 0 {
				args = append(args, float64(v))
				break
			}
			args = append(args, v)
		case termfmt.String:
			args = append(args, codec.Print(store, id))
		default:
			args = append(args, id)
		}
	}
	return args, nil
}
