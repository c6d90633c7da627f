package termfmt

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"termkit/internal/codec"
	"termkit/internal/symbols"
	"termkit/internal/term"
)

var (
	// ErrMissingArg reports a directive without a matching argument.
	ErrMissingArg = errors.New("termfmt: missing argument")
	// ErrBadArg reports an argument of the wrong type for its directive.
	ErrBadArg = errors.New("termfmt: wrong argument type")
	// ErrExtraArgs reports arguments left over after the last directive.
	ErrExtraArgs = errors.New("termfmt: too many arguments")
)

// Append formats args according to f and appends the result to dst.
// Term, TermList, Node and Checksum directives take a term.ID; Symbol
// directives take a symbols.ID.
func (f *Format) Append(dst []byte, s *term.Store, args ...any) ([]byte, error) {
	next := 0
	for i := range f.dirs {
		d := &f.dirs[i]
		if d.Kind == Literal {
			dst = append(dst, d.Text...)
			continue
		}
		if next >= len(args) {
			return dst, fmt.Errorf("%w for %s directive %q", ErrMissingArg, d.Kind, d.Spec)
		}
		arg := args[next]
		next++

		var err error
		switch d.Kind {
		case Numeric:
			dst, err = appendNumeric(dst, d, arg)
		case String:
			dst = fmt.Appendf(dst, d.Spec, arg)
		case Term:
			var id term.ID
			if id, err = termArg(d, arg); err == nil {
				dst = pad(dst, d, codec.AppendTerm(nil, s, id))
			}
		case TermList:
			dst, err = appendList(dst, s, d, arg)
		case Symbol:
			sym, ok := arg.(symbols.ID)
			if !ok {
				err = badArg(d, arg)
				break
			}
			dst = pad(dst, d, codec.AppendSymbol(nil, s.Symbols(), sym))
		case Node:
			var id term.ID
			if id, err = termArg(d, arg); err == nil {
				dst = pad(dst, d, appendNode(nil, s, id))
			}
		case Checksum:
			var id term.ID
			if id, err = termArg(d, arg); err == nil {
				sum := codec.Checksum(s, id)
				dst = pad(dst, d, hex.AppendEncode(nil, sum[:]))
			}
		default:
			err = fmt.Errorf("termfmt: unknown directive kind %d", d.Kind)
		}
		if err != nil {
			return dst, err
		}
	}
	if next < len(args) {
		return dst, fmt.Errorf("%w: %d unused", ErrExtraArgs, len(args)-next)
	}
	return dst, nil
}

// Fprintf formats to w and returns the number of bytes written.
func Fprintf(w io.Writer, s *term.Store, format string, args ...any) (int, error) {
	out, err := Compile(format).Append(nil, s, args...)
	if err != nil {
		return 0, err
	}
	return w.Write(out)
}

// Sprintf formats to a string.
func Sprintf(s *term.Store, format string, args ...any) (string, error) {
	out, err := Compile(format).Append(nil, s, args...)
	return string(out), err
}

func badArg(d *Directive, arg any) error {
	return fmt.Errorf("%w: %s directive %q got %T", ErrBadArg, d.Kind, d.Spec, arg)
}

func termArg(d *Directive, arg any) (term.ID, error) {
	id, ok := arg.(term.ID)
	if !ok {
		return term.NoTerm, badArg(d, arg)
	}
	return id, nil
}

// pad applies the flags and width of d to text; "%t" and friends with no
// modifiers copy the text directly.
func pad(dst []byte, d *Directive, text []byte) []byte {
	if len(d.Spec) == 2 {
		return append(dst, text...)
	}
	return fmt.Appendf(dst, d.Spec[:len(d.Spec)-1]+"s", text)
}

func appendNumeric(dst []byte, d *Directive, arg any) ([]byte, error) {
	switch d.Verb {
	case 'e', 'E', 'f', 'g', 'G':
		switch arg.(type) {
		case float32, float64:
			return fmt.Appendf(dst, d.Spec, arg), nil
		}
	default:
		switch arg.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
			return fmt.Appendf(dst, d.Spec, arg), nil
		}
	}
	return dst, badArg(d, arg)
}

func appendList(dst []byte, s *term.Store, d *Directive, arg any) ([]byte, error) {
	id, err := termArg(d, arg)
	if err != nil {
		return dst, err
	}
	if !s.IsList(id) {
		return dst, fmt.Errorf("%w: %s directive needs a list, got %s", ErrBadArg, d.Kind, s.Tag(id))
	}
	s.EachElement(id, func(i int, elem term.ID) bool {
		if i > 0 {
			dst = append(dst, d.Text...)
		}
		dst = codec.AppendTerm(dst, s, elem)
		return true
	})
	return dst, nil
}

// appendNode writes a one-node summary of id: ints in full, lists and
// applications with their length or arity instead of their children.
// A dead id renders as "@".
func appendNode(dst []byte, s *term.Store, id term.ID) []byte {
	if !s.Valid(id) {
		return append(dst, '@')
	}
	switch s.Tag(id) {
	case term.TagInt:
		return strconv.AppendInt(dst, s.IntValue(id), 10)
	case term.TagList, term.TagEmpty:
		dst = append(dst, "[...("...)
		dst = strconv.AppendInt(dst, int64(s.Len(id)), 10)
		return append(dst, ")]"...)
	case term.TagAppl:
		dst = codec.AppendSymbol(dst, s.Symbols(), s.ApplSymbol(id))
		dst = append(dst, "(...("...)
		dst = strconv.AppendInt(dst, int64(s.Arity(id)), 10)
		return append(dst, "))"...)
	default:
		return append(dst, '#')
	}
}
