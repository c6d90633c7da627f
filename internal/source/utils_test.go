package source

import (
	"path/filepath"
	"testing"
)

func TestRelativePath(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "corpus")
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"nested", filepath.Join(base, "terms", "a.trm"), "terms/a.trm"},
		{"base itself", base, "."},
		{"sibling", filepath.Join(root, "other", "b.trm"), normalizePath(filepath.Join(root, "other", "b.trm"))},
		{"shared prefix", filepath.Join(root, "corpus2", "c.trm"), normalizePath(filepath.Join(root, "corpus2", "c.trm"))},
		{"dotted", filepath.Join(base, "x", "..", "d.trm"), "d.trm"},
	}
	for _, tt := range tests {
		got, err := RelativePath(tt.target, base)
		if err != nil {
			t.Fatalf("%s: RelativePath: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: RelativePath(%q) = %q, want %q", tt.name, tt.target, got, tt.want)
		}
	}
}

func TestNormalizeCRLF(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"f(1)\n", "f(1)\n", false},
		{"f(1)\r\n[2]\r\n", "f(1)\n[2]\n", true},
		{"a\rb", "a\rb", false},
		{"a\r\r\n", "a\r\n", true},
	}
	for _, tt := range tests {
		got, changed := normalizeCRLF([]byte(tt.in))
		if string(got) != tt.want || changed != tt.changed {
			t.Errorf("normalizeCRLF(%q) = %q, %v; want %q, %v", tt.in, got, changed, tt.want, tt.changed)
		}
	}
}

func TestRemoveBOMOnlyAtStart(t *testing.T) {
	if got, ok := removeBOM([]byte("\xEF\xBB\xBF[]")); !ok || string(got) != "[]" {
		t.Fatalf("leading BOM: got %q, %v", got, ok)
	}
	in := "[]\xEF\xBB\xBF"
	if got, ok := removeBOM([]byte(in)); ok || string(got) != in {
		t.Fatalf("trailing BOM stripped: got %q, %v", got, ok)
	}
}
