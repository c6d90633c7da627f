package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("a.trm", []byte("f(1)"), 0)
	id2 := fs.Add("a.trm", []byte("g(2)"), 0)
	if id1 == id2 {
		t.Fatalf("second Add reused id %d", id1)
	}
	latest, ok := fs.GetLatest("./a.trm")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if string(fs.Get(id1).Content) != "f(1)" {
		t.Fatalf("old version lost")
	}
	if fs.Get(id1).Hash == fs.Get(id2).Hash {
		t.Fatalf("different content hashed equal")
	}
}

func TestLoadNormalises(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.trm")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFf(1)\r\n[2]\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "f(1)\n[2]\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
	if _, err := fs.Load(filepath.Join(dir, "missing.trm")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLineCol(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("x.trm", []byte("ab\ncd\n\nz")))
	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}}, // '\n' ends line 1
		{3, LineCol{2, 1}},
		{4, LineCol{2, 2}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{8, LineCol{4, 2}}, // EOF
	}
	for _, tt := range tests {
		if got := f.LineCol(tt.off); got != tt.want {
			t.Errorf("LineCol(%d) = %+v, want %+v", tt.off, got, tt.want)
		}
	}

	lines := []string{"", "ab", "cd", "", "z", ""}
	for n, want := range lines {
		if got := f.GetLine(uint32(n)); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 6}
	if got := a.Cover(Span{File: 1, Start: 2, End: 5}); got != (Span{File: 1, Start: 2, End: 6}) {
		t.Fatalf("Cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 9}); got != a {
		t.Fatalf("Cover across files = %v", got)
	}
}
