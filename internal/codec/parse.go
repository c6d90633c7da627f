package codec

import (
	"fmt"
	"strconv"

	"termkit/internal/diag"
	"termkit/internal/symbols"
	"termkit/internal/term"
)

// maxIntDigits bounds the significant digits kept for an integer literal;
// longer literals are consumed and reported as out of range. Leading zeros
// do not count.
const maxIntDigits = 24

// parseTerm parses one term starting at the lookahead and skips the
// layout that follows it.
func (r *Reader) parseTerm(depth int) (term.ID, error) {
	if depth > r.opts.MaxDepth {
		return term.NoTerm, r.fail(diag.SynNestingTooDeep, fmt.Sprintf("nesting deeper than %d", r.opts.MaxDepth), nil)
	}

	var (
		id  term.ID
		err error
	)
	switch c := r.c; {
	case c == '"':
		id, err = r.parseQuotedAppl(depth)
	case c == '[':
		id, err = r.parseList(depth)
	case c == '(' || (c >= 0 && symbols.IsIdentStart(byte(c))):
		id, err = r.parseUnquotedAppl(depth)
	case c == '-' || (c >= '0' && c <= '9'):
		id, err = r.parseInt()
	default:
		err = r.unexpected("a term", false)
	}
	if err != nil {
		return term.NoTerm, err
	}

	if depth == 0 {
		r.end = r.off
		if r.c != eof {
			r.end--
		}
	}
	r.skipLayout()
	return id, nil
}

// parseTerms parses a non-empty comma separated sequence.
func (r *Reader) parseTerms(depth int) ([]term.ID, error) {
	el, err := r.parseTerm(depth + 1)
	if err != nil {
		return nil, err
	}
	out := []term.ID{el}
	for r.c == ',' {
		r.nextSkipLayout()
		el, err = r.parseTerm(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func (r *Reader) parseList(depth int) (term.ID, error) {
	r.nextSkipLayout()
	if r.c == ']' {
		r.next()
		return r.store.Empty(), nil
	}
	elems, err := r.parseTerms(depth)
	if err != nil {
		return term.NoTerm, err
	}
	if r.c != ']' {
		return term.NoTerm, r.unexpected(`"," or "]"`, true)
	}
	r.next()
	return r.store.List(elems...), nil
}

// parseArgs parses an optional parenthesised argument list.
func (r *Reader) parseArgs(depth int) ([]term.ID, error) {
	if r.c != '(' {
		return nil, nil
	}
	r.nextSkipLayout()
	var (
		args []term.ID
		err  error
	)
	if r.c != ')' {
		args, err = r.parseTerms(depth)
		if err != nil {
			return nil, err
		}
	}
	if r.c != ')' {
		return nil, r.unexpected(`"," or ")"`, true)
	}
	r.next()
	return args, nil
}

func (r *Reader) parseQuotedAppl(depth int) (term.ID, error) {
	limit := r.store.Symbols().MaxNameLen()
	var name []byte
	r.next()
	for r.c != '"' {
		switch r.c {
		case eof:
			return term.NoTerm, r.unexpected(`closing '"'`, false)
		case '\\':
			r.next()
			switch r.c {
			case eof:
				return term.NoTerm, r.unexpected("escaped character", false)
			case 'n':
				name = append(name, '\n')
			case 'r':
				name = append(name, '\r')
			case 't':
				name = append(name, '\t')
			default:
				name = append(name, byte(r.c))
			}
		default:
			name = append(name, byte(r.c))
		}
		if len(name) > limit {
			return term.NoTerm, r.symbolError(fmt.Errorf("%w: name exceeds limit of %d bytes", symbols.ErrOversizedSymbol, limit))
		}
		r.next()
	}
	r.nextSkipLayout()

	args, err := r.parseArgs(depth)
	if err != nil {
		return term.NoTerm, err
	}
	sym, err := r.store.Symbol(string(name), len(args), true)
	if err != nil {
		return term.NoTerm, r.symbolError(err)
	}
	r.lastQuote = append(r.lastQuote, r.store.Symbols().Name(sym))
	return r.store.Appl(sym, args...), nil
}

func (r *Reader) parseUnquotedAppl(depth int) (term.ID, error) {
	limit := r.store.Symbols().MaxNameLen()
	var name []byte
	if r.c != '(' {
		for r.c >= 0 && symbols.IsIdentByte(byte(r.c)) {
			name = append(name, byte(r.c))
			if len(name) > limit {
				return term.NoTerm, r.symbolError(fmt.Errorf("%w: name exceeds limit of %d bytes", symbols.ErrOversizedSymbol, limit))
			}
			r.next()
		}
		r.skipLayout()
	}

	args, err := r.parseArgs(depth)
	if err != nil {
		return term.NoTerm, err
	}
	sym, err := r.store.Symbol(string(name), len(args), false)
	if err != nil {
		return term.NoTerm, r.symbolError(err)
	}
	return r.store.Appl(sym, args...), nil
}

func (r *Reader) parseInt() (term.ID, error) {
	var (
		buf    = make([]byte, 0, maxIntDigits+1)
		digits int // significant digits, leading zeros excluded
		zeros  bool
	)
	if r.c == '-' {
		buf = append(buf, '-')
		r.next()
	}
	for r.c >= '0' && r.c <= '9' {
		switch {
		case r.c == '0' && digits == 0:
			zeros = true
		case digits < maxIntDigits:
			buf = append(buf, byte(r.c))
			digits++
		default:
			digits++
		}
		r.next()
	}
	if digits == 0 && !zeros {
		return term.NoTerm, r.fail(diag.SynBadNumber, "malformed number: sign without digits", nil)
	}
	if digits == 0 {
		buf = append(buf, '0')
	}
	if r.c == '.' || r.c == 'e' || r.c == 'E' {
		return term.NoTerm, r.fail(diag.SynBadNumber, "malformed number: only integers are supported", nil)
	}
	v, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil || digits > maxIntDigits {
		return term.NoTerm, r.fail(diag.SynOversizedInt, fmt.Sprintf("integer literal %s does not fit in 64 bits", buf), err)
	}
	return r.store.Int(v), nil
}
