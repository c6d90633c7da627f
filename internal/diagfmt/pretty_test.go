package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"termkit/internal/diag"
	"termkit/internal/source"
)

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("f(1,\n  \"unterminated\n")
	fileID := fs.AddVirtual("/home/user/project/terms/test.trm", content)
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.SynUnexpectedEOF, "unexpected end of input").
		WithSpan(source.Span{File: fileID, Start: 7, End: 20}))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/terms/test.trm:2:3"},
		{"Relative path", PathModeRelative, "terms/test.trm:2:3"},
		{"Basename only", PathModeBasename, "test.trm:2:3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			for _, want := range []string{"ERROR", "SYN2001", "unexpected end of input"} {
				if !strings.Contains(output, want) {
					t.Errorf("Expected %q in output:\n%s", want, output)
				}
			}
		})
	}
}

func TestPrettyCaret(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("bad.trm", []byte("ok\nf(1;2)\n"))

	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SynUnexpectedChar, "unexpected ';'").
		WithSpan(source.Span{File: fileID, Start: 6, End: 7}))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	want := "bad.trm:2:4: ERROR SYN2002: unexpected ';'\n" +
		"2 | f(1;2)\n" +
		"  |    ^\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	// два иероглифа по две колонки перед ошибкой
	fileID := fs.AddVirtual("wide.trm", []byte("\"日本\"(1 2)"))

	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SynUnexpectedChar, "unexpected '2'").
		WithSpan(source.Span{File: fileID, Start: 11, End: 12}))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("output:\n%s", buf.String())
	}
	if got := strings.Index(lines[2], "^"); got != len("1 | ")+9 {
		t.Fatalf("caret at column %d:\n%s", got, buf.String())
	}
}

func TestPrettyWithoutSpan(t *testing.T) {
	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SynUnexpectedEOF, "unexpected end of input").
		WithPath("<stdin>").
		WithPos(source.LineCol{Line: 1, Col: 5}, "f(1,2"))

	var buf bytes.Buffer
	Pretty(&buf, bag, nil, PrettyOpts{})
	want := "<stdin>:1:5: ERROR SYN2001: unexpected end of input\n" +
		"  | f(1,2\n" +
		"  |     ^\n"
	if buf.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrettyNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.trm", []byte("f(\"caf\u00e9\", \"cafe\u0301\")\n"))

	bag := diag.NewBag(4)
	d := diag.New(diag.SevWarning, diag.LntNonNFCSymbol, "quoted symbol is not in NFC").
		WithSpan(source.Span{File: fileID, Start: 10, End: 18}).
		WithNote(source.Span{File: fileID, Start: 2, End: 9}, "NFC form used here").
		WithNote(source.Span{}, "normalize with NFC")
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	output := buf.String()
	if !strings.Contains(output, "note: test.trm:1:3: NFC form used here") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	if !strings.Contains(output, "note: normalize with NFC") {
		t.Fatalf("expected note without location, got:\n%s", output)
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") {
		t.Fatalf("notes shown without ShowNotes:\n%s", buf.String())
	}
}

func TestPrettyDropped(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.SynBadNumber, "first").WithPath("a.trm"))
	bag.Add(diag.NewError(diag.SynBadNumber, "second").WithPath("a.trm"))

	var buf bytes.Buffer
	Pretty(&buf, bag, nil, PrettyOpts{})
	if !strings.Contains(buf.String(), "... 1 more diagnostics not shown") {
		t.Fatalf("output:\n%s", buf.String())
	}
}

func TestShort(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("s.trm", []byte("[1,2)"))
	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SynMismatchedBracket, "mismatched ')'").
		WithSpan(source.Span{File: fileID, Start: 4, End: 5}))
	bag.Add(diag.New(diag.SevWarning, diag.LntEmptyFile, "file holds no terms").WithPath("empty.trm"))

	var buf bytes.Buffer
	Short(&buf, bag, fs, PathModeBasename)
	want := "s.trm:1:5: ERROR SYN2003: mismatched ')'\n" +
		"empty.trm: WARNING LNT5003: file holds no terms\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestParsePathMode(t *testing.T) {
	for _, mode := range []PathMode{PathModeAuto, PathModeAbsolute, PathModeRelative, PathModeBasename} {
		got, ok := ParsePathMode(mode.String())
		if !ok || got != mode {
			t.Errorf("ParsePathMode(%q) = %v, %v", mode.String(), got, ok)
		}
	}
	if _, ok := ParsePathMode("fancy"); ok {
		t.Errorf("ParsePathMode accepted an unknown mode")
	}
}
