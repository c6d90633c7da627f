package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"termkit/internal/diag"
	"termkit/internal/source"
	"termkit/internal/symbols"
	"termkit/internal/term"
	"termkit/internal/trace"
)

const (
	eof = -1

	// contextSize is how many consumed characters a ParseError quotes.
	contextSize = 32

	// DefaultMaxDepth bounds bracket nesting of a single term.
	DefaultMaxDepth = 10000
)

// Options configure a Reader.
type Options struct {
	File     *source.File // memory readers over a loaded file report spans
	Path     string       // shown in diagnostics; defaults to File.Path
	MaxDepth int          // 0 means DefaultMaxDepth
}

// Reader parses terms from a byte stream or a memory buffer into a store.
//
// Positions are cumulative over the lifetime of the Reader: line is
// 1-based and col is the column of the last consumed character, 0 at the
// start of a line.
type Reader struct {
	store *term.Store
	src   byteSource
	opts  Options

	c    int // lookahead; eof at end of input
	line uint32
	col  uint32
	off  int64 // bytes consumed

	// позиция до последнего next(), нужна для unget
	prevLine uint32
	prevCol  uint32

	ring    [contextSize]byte
	ringIdx int
	ringLen int

	ioErr error
	held  bool // lookahead could not be unread and is still pending
	end   int64

	lastSpan  source.Span
	lastStart source.LineCol
	lastQuote []string // quoted symbol names of the last term
}

// NewStreamReader reads from r. When r is an io.ByteScanner (for example a
// *bufio.Reader) it is used directly, so after a successful ReadTerm the
// byte following the term and its trailing layout is still unread in r.
func NewStreamReader(store *term.Store, r io.Reader, opts Options) *Reader {
	src, ok := r.(byteSource)
	if !ok {
		src = bufio.NewReader(r)
	}
	return newReader(store, src, opts)
}

// NewMemoryReader reads from data.
func NewMemoryReader(store *term.Store, data []byte, opts Options) *Reader {
	return newReader(store, &cursor{data: data}, opts)
}

// NewFileReader reads the content of a file loaded into a source.FileSet.
// Diagnostics carry byte spans into f.
func NewFileReader(store *term.Store, f *source.File) *Reader {
	return NewMemoryReader(store, f.Content, Options{File: f})
}

func newReader(store *term.Store, src byteSource, opts Options) *Reader {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Path == "" && opts.File != nil {
		opts.Path = opts.File.Path
	}
	return &Reader{store: store, src: src, opts: opts, c: eof, line: 1}
}

// Offset returns the number of bytes consumed so far. After a successful
// ReadTerm it is the offset of the first byte after the term.
func (r *Reader) Offset() int64 { return r.off }

// Pos returns the current line and column.
func (r *Reader) Pos() source.LineCol { return source.LineCol{Line: r.line, Col: r.col} }

// LastSpan returns the byte range of the last term read, trailing layout
// excluded.
func (r *Reader) LastSpan() source.Span { return r.lastSpan }

// LastStart returns the position of the first character of the last term.
func (r *Reader) LastStart() source.LineCol { return r.lastStart }

// QuotedNames returns the quoted symbol names met while reading the last
// term, in reading order.
func (r *Reader) QuotedNames() []string { return r.lastQuote }

// Context returns up to the last 32 consumed characters, oldest first.
func (r *Reader) Context() string {
	out := make([]byte, 0, r.ringLen)
	start := r.ringIdx - r.ringLen
	if start < 0 {
		start += contextSize
	}
	for i := 0; i < r.ringLen; i++ {
		out = append(out, r.ring[(start+i)%contextSize])
	}
	return string(out)
}

// ReadTerm reads the next term. It returns io.EOF when only layout is left.
// On a parse failure it returns term.NoTerm and a *ParseError.
//
// ReadTerm is a collection safe point: it may run the store's collector
// before reading, so terms from earlier reads must be protected by the
// caller if they are still needed.
func (r *Reader) ReadTerm() (term.ID, error) {
	r.store.MaybeCollect()
	span := trace.Begin(r.store.Tracer(), trace.ScopeTerm, "read", 0)
	defer span.End("")

	r.lastQuote = nil
	r.next()
	r.skipLayout()
	if r.c == eof {
		if r.ioErr != nil {
			return term.NoTerm, r.ioError()
		}
		return term.NoTerm, io.EOF
	}

	startOff := r.off - 1
	r.lastStart = r.Pos()
	id, err := r.parseTerm(0)
	if err != nil {
		return term.NoTerm, err
	}
	r.unget()
	r.lastSpan = source.Span{Start: clampU32(startOff), End: clampU32(r.end)}
	if r.opts.File != nil {
		r.lastSpan.File = r.opts.File.ID
	}
	return id, nil
}

// ReadAll reads terms until the end of input. Terms already read are
// protected while reading continues and released before returning.
func (r *Reader) ReadAll() ([]term.ID, error) {
	var (
		out     []term.ID
		handles []term.RootHandle
	)
	defer func() {
		for _, h := range handles {
			r.store.Unprotect(h)
		}
	}()
	for {
		id, err := r.ReadTerm()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, id)
		handles = append(handles, r.store.Protect(id))
	}
}

// ParseString reads the first term from s and ignores whatever follows
// it, so "f(a) junk" yields f(a). Input that holds no term is reported as
// an unexpected end of input. Use ParseExact to reject trailing input.
func ParseString(store *term.Store, s string) (term.ID, error) {
	r := NewMemoryReader(store, []byte(s), Options{})
	return r.readFirst()
}

// ParseExact reads one term from s and fails with SynUnexpectedChar when
// anything other than layout follows it.
func ParseExact(store *term.Store, s string) (term.ID, error) {
	r := NewMemoryReader(store, []byte(s), Options{})
	id, err := r.readFirst()
	if err != nil {
		return term.NoTerm, err
	}
	r.nextSkipLayout()
	if r.c != eof {
		return term.NoTerm, r.unexpected("end of input after term", false)
	}
	return id, nil
}

func (r *Reader) readFirst() (term.ID, error) {
	id, err := r.ReadTerm()
	if errors.Is(err, io.EOF) {
		return term.NoTerm, r.fail(diag.SynUnexpectedEOF, "no term in input", nil)
	}
	return id, err
}

// MustParse is ParseString that panics on error. Intended for tests and
// literals known to be valid.
func MustParse(store *term.Store, s string) term.ID {
	id, err := ParseString(store, s)
	if err != nil {
		panic(err)
	}
	return id
}

func (r *Reader) next() {
	if r.held {
		r.held = false
		return
	}
	r.prevLine, r.prevCol = r.line, r.col
	if r.ioErr != nil {
		r.c = eof
		return
	}
	b, err := r.src.ReadByte()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			r.ioErr = err
		}
		r.c = eof
		return
	}
	r.c = int(b)
	r.off++
	if b == '\n' {
		r.line++
		r.col = 0
	} else {
		r.col++
	}
	r.ring[r.ringIdx] = b
	r.ringIdx = (r.ringIdx + 1) % contextSize
	r.ringLen = min(r.ringLen+1, contextSize)
}

// unget returns the lookahead to the source and forgets it was consumed.
func (r *Reader) unget() {
	if r.c == eof {
		return
	}
	if err := r.src.UnreadByte(); err != nil {
		// источник не умеет возвращать байт: держим его до следующего чтения
		r.held = true
		return
	}
	r.off--
	r.line, r.col = r.prevLine, r.prevCol
	r.ringIdx = (r.ringIdx + contextSize - 1) % contextSize
	r.ringLen--
	r.c = eof
}

func isLayout(c int) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func (r *Reader) skipLayout() {
	for isLayout(r.c) {
		r.next()
	}
}

func (r *Reader) nextSkipLayout() {
	r.next()
	r.skipLayout()
}

func (r *Reader) ioError() error {
	path := r.opts.Path
	if path == "" {
		path = "input"
	}
	return fmt.Errorf("read %s: %w", path, r.ioErr)
}

// fail builds the error for the current position. I/O failures take
// precedence: a truncated read is not a syntax error.
func (r *Reader) fail(code diag.Code, msg string, cause error) error {
	if r.ioErr != nil {
		return r.ioError()
	}
	d := diag.NewError(code, msg).
		WithPath(r.opts.Path).
		WithPos(r.Pos(), r.Context())
	if r.opts.File != nil {
		start := r.off
		if r.c != eof {
			start--
		}
		end := start
		if r.c != eof {
			end++
		}
		d = d.WithSpan(source.Span{File: r.opts.File.ID, Start: clampU32(start), End: clampU32(end)})
	}
	return &ParseError{Diag: d, Err: cause}
}

// unexpected reports the lookahead when want was expected. closing marks
// positions where a bracket closes a construct.
func (r *Reader) unexpected(want string, closing bool) error {
	switch {
	case r.c == eof:
		return r.fail(diag.SynUnexpectedEOF, "unexpected end of input, expected "+want, nil)
	case closing && (r.c == ')' || r.c == ']'):
		return r.fail(diag.SynMismatchedBracket, fmt.Sprintf("mismatched %q, expected %s", rune(r.c), want), nil)
	default:
		return r.fail(diag.SynUnexpectedChar, fmt.Sprintf("unexpected %q, expected %s", rune(r.c), want), nil)
	}
}

func (r *Reader) symbolError(err error) error {
	if errors.Is(err, symbols.ErrOversizedSymbol) {
		return r.fail(diag.SynOversizedSymbol, err.Error(), err)
	}
	return r.fail(diag.SynUnexpectedChar, err.Error(), err)
}

func clampU32(n int64) uint32 {
	if n < 0 {
		return 0
	}
	if n > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n)
}
