package observ

import (
	"strings"
	"sync"
	"testing"
	"time"

	"termkit/internal/diag"
)

func TestTimerBeginEnd(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("load")
	tm.End(idx, "3 files")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 1 || r.Phases[0].Name != "load" || r.Phases[0].Note != "3 files" {
		t.Fatalf("report = %+v", r)
	}
	if !strings.Contains(tm.Summary(), "// 3 files") {
		t.Fatalf("summary:\n%s", tm.Summary())
	}
}

func TestTimerAddConcurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Add("parse", time.Millisecond)
		}()
	}
	wg.Wait()

	r := tm.Report()
	if len(r.Phases) != 1 || r.Phases[0].Count != 8 {
		t.Fatalf("report = %+v", r)
	}
	if r.TotalMS != 8 {
		t.Fatalf("total = %v ms, want 8", r.TotalMS)
	}
	if !strings.Contains(tm.Summary(), "x8") {
		t.Fatalf("summary:\n%s", tm.Summary())
	}
}

func TestTimerDiagnostic(t *testing.T) {
	tm := NewTimer()
	tm.Add("parse", 2*time.Millisecond)
	tm.Add("verify", time.Millisecond)

	d := tm.Diagnostic()
	if d.Code != diag.ObsTimings || d.Severity != diag.SevInfo {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Message != "total 3.00 ms" || len(d.Notes) != 2 || d.Notes[0].Msg != "parse: 2.00 ms" {
		t.Fatalf("diagnostic = %+v", d)
	}
}

func TestEmptyReport(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Fatalf("report = %+v", r)
	}
}
