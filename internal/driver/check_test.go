package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"termkit/internal/diag"
	"termkit/internal/observ"
	"termkit/internal/term"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, c := range codes(bag) {
		if c == code {
			return true
		}
	}
	return false
}

func TestCheckDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.trm":        "f(1, [2, 3])\n\"q\"(x)\n",
		"b.trm":        "f(1,\n",
		"nested/c.trm": "[[1],[1]]",
		"notes.txt":    "not a term file",
	})

	res, err := Check(context.Background(), []string{dir}, CheckOptions{MaxDiagnostics: 10})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(res.Files) != 3 {
		t.Fatalf("checked %d files, want 3", len(res.Files))
	}

	a, b, c := res.Files[0], res.Files[1], res.Files[2]
	if filepath.Base(a.Path) != "a.trm" || filepath.Base(c.Path) != "c.trm" {
		t.Fatalf("files out of order: %s, %s, %s", a.Path, b.Path, c.Path)
	}
	if a.Bag.Len() != 0 || a.Terms != 2 {
		t.Fatalf("a.trm: terms=%d diags=%v", a.Terms, codes(a.Bag))
	}
	if a.Stats.Nodes != 1 || a.Stats.Roots != 0 {
		t.Fatalf("a.trm store not emptied after the final collection: %+v", a.Stats)
	}
	if !hasCode(b.Bag, diag.SynUnexpectedEOF) {
		t.Fatalf("b.trm: diags=%v", codes(b.Bag))
	}
	d := b.Bag.Items()[0]
	if !d.HasSpan || d.Pos.Line != 2 {
		t.Fatalf("b.trm diagnostic = %+v", d)
	}
	if !res.HasErrors() {
		t.Fatalf("HasErrors = false")
	}
	if all := res.Diagnostics(100); all.Len() != 1 {
		t.Fatalf("merged diagnostics = %v", codes(all))
	}
}

func TestCheckLints(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"lint.trm":  "\"cafe\u0301\"(1)\nf(1)\n\"cafe\u0301\"\nf(1)\n",
		"empty.trm": "  \n",
	})
	paths := []string{filepath.Join(dir, "lint.trm"), filepath.Join(dir, "empty.trm")}

	res, err := Check(context.Background(), paths, CheckOptions{MaxDiagnostics: 10})
	if err != nil {
		t.Fatal(err)
	}
	lint := res.Files[0].Bag
	if !hasCode(lint, diag.LntNonNFCSymbol) || !hasCode(lint, diag.LntDuplicateTerm) || lint.Len() != 2 {
		t.Fatalf("lint.trm diags = %v", codes(lint))
	}
	for _, d := range lint.Items() {
		if d.Code == diag.LntDuplicateTerm && (len(d.Notes) != 1 || d.Notes[0].Span.Start != 12) {
			t.Fatalf("duplicate note = %+v", d.Notes)
		}
	}
	if !hasCode(res.Files[1].Bag, diag.LntEmptyFile) {
		t.Fatalf("empty.trm diags = %v", codes(res.Files[1].Bag))
	}
	if res.HasErrors() {
		t.Fatalf("lints reported as errors")
	}

	res, err = Check(context.Background(), paths, CheckOptions{MaxDiagnostics: 10, NoLint: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Files[0].Bag.Len() != 0 || res.Files[1].Bag.Len() != 0 {
		t.Fatalf("NoLint still linted: %v %v", codes(res.Files[0].Bag), codes(res.Files[1].Bag))
	}
}

func TestCheckMissingFile(t *testing.T) {
	res, err := Check(context.Background(), []string{filepath.Join(t.TempDir(), "gone.trm")}, CheckOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !hasCode(res.Files[0].Bag, diag.IOLoadFileError) {
		t.Fatalf("diags = %v", codes(res.Files[0].Bag))
	}
}

func TestCheckUsesCache(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"ok.trm":  "g(1) g(2)",
		"bad.trm": "[1,2)",
	})
	cache, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := CheckOptions{MaxDiagnostics: 10, Cache: cache}

	first, err := Check(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Check(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range second.Files {
		f1, f2 := first.Files[i], second.Files[i]
		if f1.Cached || !f2.Cached {
			t.Fatalf("%s: cached %v then %v", f2.Path, f1.Cached, f2.Cached)
		}
		if f1.Terms != f2.Terms || f1.Checksum != f2.Checksum {
			t.Fatalf("%s: cached result differs", f2.Path)
		}
		d1, d2 := f1.Bag.Items(), f2.Bag.Items()
		if len(d1) != len(d2) {
			t.Fatalf("%s: %d diagnostics then %d", f2.Path, len(d1), len(d2))
		}
		for j := range d1 {
			if d1[j].Code != d2[j].Code || d1[j].Primary.Start != d2[j].Primary.Start || d1[j].Pos != d2[j].Pos {
				t.Fatalf("%s: diagnostic %d differs: %+v vs %+v", f2.Path, j, d1[j], d2[j])
			}
			if d2[j].Primary.File != f2.FileID {
				t.Fatalf("restored span points at file %d, want %d", d2[j].Primary.File, f2.FileID)
			}
		}
	}

	// другие опции - другой ключ
	opts.NoLint = true
	third, err := Check(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.Files[0].Cached {
		t.Fatalf("cache hit across different options")
	}
}

func TestCheckConcurrentFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{}
	for i := range 20 {
		files["f"+strconv.Itoa(i)+".trm"] = "pair(" + strconv.Itoa(i) + ", [a, b, \"c\"])\nshared(x)\n"
	}
	writeFiles(t, dir, files)

	events := make(chan Event, 1024)
	timer := observ.NewTimer()
	res, err := Check(context.Background(), []string{dir}, CheckOptions{
		Jobs:           4,
		MaxDiagnostics: 10,
		Store:          term.Options{HighWater: 4},
		Sink:           ChannelSink{Ch: events},
		Timer:          timer,
	})
	close(events)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range res.Files {
		if f.Bag.Len() != 0 || f.Terms != 2 {
			t.Fatalf("%s: terms=%d diags=%v", f.Path, f.Terms, codes(f.Bag))
		}
	}

	final := map[string]Status{}
	for ev := range events {
		if ev.Status == StatusDone || ev.Status == StatusError {
			final[ev.File] = ev.Status
		}
	}
	if len(final) != 20 {
		t.Fatalf("%d files finished, want 20", len(final))
	}

	phases := map[string]bool{}
	for _, p := range timer.Report().Phases {
		phases[p.Name] = true
	}
	if !phases["load"] || !phases["parse"] || !phases["verify"] {
		t.Fatalf("timer phases = %v", phases)
	}
}

func TestCheckCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.trm": "1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Check(ctx, []string{dir}, CheckOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDiagnosticsMergeDedupsRepeatedFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"bad.trm": "x\n[1,"})
	path := filepath.Join(dir, "bad.trm")

	res, err := Check(context.Background(), []string{path, path}, CheckOptions{MaxDiagnostics: 10})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("checked %d files, want 2", len(res.Files))
	}
	merged := res.Diagnostics(10)
	if merged.Len() != 1 {
		t.Fatalf("merged %d diagnostics, want 1: %v", merged.Len(), codes(merged))
	}
	if d := merged.Items()[0]; d.Code != diag.SynUnexpectedEOF || d.Pos.Line != 2 {
		t.Fatalf("diagnostic = %v at %d:%d", d.Code, d.Pos.Line, d.Pos.Col)
	}
}
