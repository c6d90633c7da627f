package codec

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"termkit/internal/diag"
	"termkit/internal/source"
	"termkit/internal/symbols"
	"termkit/internal/term"
)

func TestReadTermCanonicalForms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42", "42"},
		{" -7 ", "-7"},
		{`"foo"`, `"foo"`},
		{"[1, [2,3] ,4]", "[1,[2,3],4]"},
		{`f(1, "bar", [])`, `f(1,"bar",[])`},
		{"f ( 1 )", "f(1)"},
		{"()", "()"},
		{"(1,2)", "(1,2)"},
		{"f()", "f"},
		{`"a\"b\\c\n\t\r\q"`, `"a\"b\\c\n\t\rq"`},
		{`"x" (1)`, `"x"(1)`},
		{"a-b_c+d*e$f9", "a-b_c+d*e$f9"},
		{"[]", "[]"},
		{"[ ]", "[]"},
		{"-9223372036854775808", "-9223372036854775808"},
		{"0000000000000000000000000001", "1"},
		{"-0000000000000000000000000009223372036854775808", "-9223372036854775808"},
		{"000", "0"},
		{"-0", "0"},
	}
	for _, tt := range tests {
		s := term.NewStore(term.Options{})
		id, err := ParseString(s, tt.in)
		if err != nil {
			t.Fatalf("ParseString(%q): %v", tt.in, err)
		}
		if got := Print(s, id); got != tt.want {
			t.Errorf("Print(ParseString(%q)) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in      string
		code    diag.Code
		line    uint32
		col     uint32
		context string
	}{
		{"f(1,2", diag.SynUnexpectedEOF, 1, 5, "f(1,2"},
		{"", diag.SynUnexpectedEOF, 1, 0, ""},
		{"[1,2)", diag.SynMismatchedBracket, 1, 5, "[1,2)"},
		{"f(1]", diag.SynMismatchedBracket, 1, 4, "f(1]"},
		{"f(1,,2)", diag.SynUnexpectedChar, 1, 5, "f(1,,"},
		{"f(1 2)", diag.SynUnexpectedChar, 1, 5, "f(1 2"},
		{"f(1\n  ,)", diag.SynUnexpectedChar, 2, 4, "f(1\n  ,)"},
		{"99999999999999999999", diag.SynOversizedInt, 1, 20, "99999999999999999999"},
		{"-", diag.SynBadNumber, 1, 1, "-"},
		{"1.5", diag.SynBadNumber, 1, 2, "1."},
		{`"abc`, diag.SynUnexpectedEOF, 1, 4, `"abc`},
		{"}", diag.SynUnexpectedChar, 1, 1, "}"},
	}
	for _, tt := range tests {
		s := term.NewStore(term.Options{})
		id, err := ParseString(s, tt.in)
		if id != term.NoTerm {
			t.Errorf("%q: got term %d, want NoTerm", tt.in, id)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%q: err = %v, want *ParseError", tt.in, err)
		}
		d := pe.Diag
		if d.Code != tt.code || d.Pos.Line != tt.line || d.Pos.Col != tt.col || d.Context != tt.context {
			t.Errorf("%q: got %s at %d:%d context %q, want %s at %d:%d context %q",
				tt.in, d.Code.ID(), d.Pos.Line, d.Pos.Col, d.Context,
				tt.code.ID(), tt.line, tt.col, tt.context)
		}
		if d.Severity != diag.SevError {
			t.Errorf("%q: severity %v", tt.in, d.Severity)
		}
	}
}

func TestParseStringIgnoresTrailingInput(t *testing.T) {
	s := term.NewStore(term.Options{})
	id, err := ParseString(s, "f(a) junk")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if got := Print(s, id); got != "f(a)" {
		t.Fatalf("Print = %q, want %q", got, "f(a)")
	}
}

func TestParseExact(t *testing.T) {
	tests := []struct {
		in   string
		want string
		col  uint32
	}{
		{"f(a)", "f(a)", 0},
		{" [1,2] \n\t", "[1,2]", 0},
		{"f(a) junk", "", 6},
		{"1 2", "", 3},
		{"g,", "", 2},
	}
	for _, tt := range tests {
		s := term.NewStore(term.Options{})
		id, err := ParseExact(s, tt.in)
		if tt.want != "" {
			if err != nil {
				t.Fatalf("ParseExact(%q): %v", tt.in, err)
			}
			if got := Print(s, id); got != tt.want {
				t.Errorf("Print(ParseExact(%q)) = %q, want %q", tt.in, got, tt.want)
			}
			continue
		}
		if id != term.NoTerm {
			t.Errorf("%q: got term %d, want NoTerm", tt.in, id)
		}
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Code() != diag.SynUnexpectedChar {
			t.Fatalf("%q: err = %v, want SynUnexpectedChar", tt.in, err)
		}
		if pe.Diag.Pos.Col != tt.col {
			t.Errorf("%q: col = %d, want %d", tt.in, pe.Diag.Pos.Col, tt.col)
		}
	}
}

func TestParseErrorMessage(t *testing.T) {
	s := term.NewStore(term.Options{})
	_, err := ParseString(s, "f(1,2")
	if got, want := err.Error(), "parse error at line 1, col 5: f(1,2"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestContextKeepsLast32Bytes(t *testing.T) {
	s := term.NewStore(term.Options{})
	in := "[" + strings.Repeat("1,", 30) + ")"
	_, err := ParseString(s, in)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v", err)
	}
	if want := in[len(in)-32:]; pe.Diag.Context != want {
		t.Fatalf("context = %q, want %q", pe.Diag.Context, want)
	}
}

func TestOversizedSymbol(t *testing.T) {
	for _, in := range []string{"abcdef(1)", `"abcdef"`} {
		s := term.NewStore(term.Options{MaxSymbolLen: 4})
		_, err := ParseString(s, in)
		if !errors.Is(err, symbols.ErrOversizedSymbol) {
			t.Fatalf("%q: err = %v, want ErrOversizedSymbol", in, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Code() != diag.SynOversizedSymbol {
			t.Fatalf("%q: err = %v, want SynOversizedSymbol", in, err)
		}
	}
}

func TestNestingLimit(t *testing.T) {
	s := term.NewStore(term.Options{})
	in := strings.Repeat("[", 20) + strings.Repeat("]", 20)
	r := NewMemoryReader(s, []byte(in), Options{MaxDepth: 10})
	_, err := r.ReadTerm()
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Code() != diag.SynNestingTooDeep {
		t.Fatalf("err = %v, want nesting error", err)
	}
}

func TestStreamReaderLeavesDelimiter(t *testing.T) {
	s := term.NewStore(term.Options{})
	br := bufio.NewReader(strings.NewReader("f(1) ,rest"))
	r := NewStreamReader(s, br, Options{})
	id, err := r.ReadTerm()
	if err != nil {
		t.Fatalf("ReadTerm: %v", err)
	}
	if Print(s, id) != "f(1)" {
		t.Fatalf("read %q", Print(s, id))
	}
	b, err := br.ReadByte()
	if err != nil || b != ',' {
		t.Fatalf("next byte = %q, %v; want ','", b, err)
	}
	if r.Offset() != 5 {
		t.Fatalf("Offset = %d, want 5", r.Offset())
	}
	if sp := r.LastSpan(); sp.Start != 0 || sp.End != 4 {
		t.Fatalf("LastSpan = %v", sp)
	}
}

func TestReadAll(t *testing.T) {
	s := term.NewStore(term.Options{})
	r := NewMemoryReader(s, []byte("f(1)\n[2, 3]\n  \"q\" \n\n"), Options{})
	var starts []source.LineCol
	var got, quoted []string
	for {
		id, err := r.ReadTerm()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadTerm: %v", err)
		}
		got = append(got, Print(s, id))
		starts = append(starts, r.LastStart())
		quoted = append(quoted, r.QuotedNames()...)
	}
	if strings.Join(got, " ") != `f(1) [2,3] "q"` {
		t.Fatalf("terms = %v", got)
	}
	want := []source.LineCol{{Line: 1, Col: 1}, {Line: 2, Col: 1}, {Line: 3, Col: 3}}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("term %d starts at %+v, want %+v", i, starts[i], want[i])
		}
	}
	if len(quoted) != 1 || quoted[0] != "q" {
		t.Errorf("QuotedNames = %v", quoted)
	}
}

func TestReadAllSurvivesSafePointCollections(t *testing.T) {
	s := term.NewStore(term.Options{HighWater: 8})
	var in strings.Builder
	for i := 0; i < 40; i++ {
		in.WriteString("f(")
		in.WriteString(strings.Repeat("1", i%5+1))
		in.WriteString(",[x]) ")
	}
	r := NewMemoryReader(s, []byte(in.String()), Options{})
	ids, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(ids) != 40 {
		t.Fatalf("read %d terms", len(ids))
	}
	if s.Stats().Collections == 0 {
		t.Fatalf("no collection ran at a safe point")
	}
	for _, id := range ids {
		if !s.Valid(id) {
			t.Fatalf("term %d collected while reading", id)
		}
	}
	if s.RootCount() != 0 {
		t.Fatalf("ReadAll leaked %d roots", s.RootCount())
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParsedSymbolsAreCanonical(t *testing.T) {
	s := term.NewStore(term.Options{})
	ids, err := NewMemoryReader(s, []byte("g(1) g(2)"), Options{}).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	g, ok := s.Symbols().Find("g", 1, false)
	if !ok || s.Symbols().Len() != 1 {
		t.Fatalf("symbols = %d, g found = %v", s.Symbols().Len(), ok)
	}
	if s.Symbols().UseCount(g) != 2 {
		t.Fatalf("g use-count = %d, want 2", s.Symbols().UseCount(g))
	}
	s.Protect(ids[0])
	s.Collect()
	if s.Symbols().UseCount(g) != 1 {
		t.Fatalf("g use-count after gc = %d, want 1", s.Symbols().UseCount(g))
	}
}

func TestFileReaderSpans(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("bad.trm", []byte("ok\nf(1;2)")))
	s := term.NewStore(term.Options{})
	r := NewFileReader(s, f)
	if _, err := r.ReadTerm(); err != nil {
		t.Fatalf("first term: %v", err)
	}
	_, err := r.ReadTerm()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v", err)
	}
	d := pe.Diag
	if !d.HasSpan || d.Primary.Start != 6 || d.Primary.End != 7 || d.Path != "bad.trm" {
		t.Fatalf("diag = %+v", d)
	}
	if start, _ := fs.Resolve(d.Primary); start != d.Pos {
		t.Fatalf("span resolves to %+v, reader says %+v", start, d.Pos)
	}
}
