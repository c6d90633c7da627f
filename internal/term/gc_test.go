package term

import (
	"bytes"
	"strings"
	"testing"

	"termkit/internal/trace"
)

func TestCollectPreservesProtectedRoots(t *testing.T) {
	s := NewStore(Options{})
	f := mustSym(t, s, "f", 2, false)
	g := mustSym(t, s, "g", 1, false)
	h := mustSym(t, s, "h", 1, false)

	kept := s.Appl(f, s.List(s.Int(1), s.Int(2)), s.Appl(g, s.Int(3)))
	handle := s.Protect(kept)
	garbage := s.Appl(h, s.Int(4))

	st := s.Collect()
	if st.Swept != 2 { // h(4) and 4
		t.Fatalf("swept %d, want 2", st.Swept)
	}
	if s.Deref(handle) != kept || !s.Valid(kept) {
		t.Fatalf("protected term lost")
	}
	if s.Valid(garbage) {
		t.Fatalf("unreachable term %d survived", garbage)
	}
	if s.Appl(f, s.List(s.Int(1), s.Int(2)), s.Appl(g, s.Int(3))) != kept {
		t.Fatalf("rebuilding the protected term gave a new id")
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSymbolUseCountAfterCollect(t *testing.T) {
	s := NewStore(Options{})
	g := mustSym(t, s, "g", 1, false)
	g1 := s.Appl(g, s.Int(1))
	s.Appl(g, s.Int(2))
	if s.Symbols().Len() != 1 || s.Symbols().UseCount(g) != 2 {
		t.Fatalf("symbols = %d, g uses = %d", s.Symbols().Len(), s.Symbols().UseCount(g))
	}
	s.Protect(g1)
	s.Collect()
	if got := s.Symbols().UseCount(g); got != 1 {
		t.Fatalf("g use-count after gc = %d, want 1", got)
	}
}

func TestSymbolEviction(t *testing.T) {
	s := NewStore(Options{})
	h := mustSym(t, s, "h", 1, false)
	pinned := mustSym(t, s, "p", 0, false)
	s.Symbols().Protect(pinned)
	s.Appl(h, s.Int(1))
	s.Appl(pinned)

	st := s.Collect()
	if st.SymbolsEvicted != 1 {
		t.Fatalf("evicted %d, want 1", st.SymbolsEvicted)
	}
	if _, ok := s.Symbols().Find("h", 1, false); ok {
		t.Fatalf("unused symbol h/1 survived")
	}
	if _, ok := s.Symbols().Find("p", 0, false); !ok {
		t.Fatalf("protected symbol evicted")
	}
	if again := mustSym(t, s, "q", 2, false); again != h {
		t.Fatalf("evicted id not recycled: got %d, want %d", again, h)
	}

	keep := NewStore(Options{KeepUnusedSymbols: true})
	k := mustSym(t, keep, "k", 0, false)
	keep.Appl(k)
	if keep.Collect().SymbolsEvicted != 0 || !keep.Symbols().Live(k) {
		t.Fatalf("KeepUnusedSymbols store evicted k")
	}
}

func TestRootsNest(t *testing.T) {
	s := NewStore(Options{})
	x := s.Int(7)
	h1 := s.Protect(x)
	h2 := s.Protect(x)
	if h1 == h2 {
		t.Fatalf("nested protect reused handle %#x", uint64(h1))
	}
	if s.RootCount() != 2 {
		t.Fatalf("RootCount = %d", s.RootCount())
	}

	s.Unprotect(h1)
	s.Collect()
	if !s.Valid(x) {
		t.Fatalf("term dropped while still protected by second handle")
	}
	expectPanic(t, ErrBadRootHandle, func() { s.Unprotect(h1) })
	expectPanic(t, ErrBadRootHandle, func() { s.Deref(h1) })

	var seen []RootHandle
	s.EachRoot(func(h RootHandle, id ID) {
		if id != x {
			t.Fatalf("root %d holds %d", h, id)
		}
		seen = append(seen, h)
	})
	if len(seen) != 1 || seen[0] != h2 {
		t.Fatalf("EachRoot saw %v", seen)
	}
	s.Unprotect(h2)
	s.Collect()
	if s.Valid(x) {
		t.Fatalf("unprotected term survived")
	}
	if h := s.Protect(s.Int(8)); h == h2 || h == h1 {
		t.Fatalf("reused slot handed out released handle %#x", uint64(h))
	}
	if len(s.roots) != 3 {
		t.Fatalf("root slots = %d, want 3 (slots recycled)", len(s.roots))
	}
	expectPanic(t, ErrBadRootHandle, func() { s.Unprotect(0) })
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	s := NewStore(Options{})
	a := s.Int(1)
	b := s.Int(2)

	h1 := s.Protect(a)
	s.Unprotect(h1)
	h2 := s.Protect(b)
	if h2.slot() != h1.slot() {
		t.Fatalf("slot %d not reused, got %d", h1.slot(), h2.slot())
	}
	if h1 == h2 {
		t.Fatalf("reused slot returned the released handle %#x", uint64(h1))
	}

	expectPanic(t, ErrBadRootHandle, func() { s.Unprotect(h1) })
	expectPanic(t, ErrBadRootHandle, func() { s.Deref(h1) })
	if s.RootCount() != 1 {
		t.Fatalf("RootCount = %d after stale release, want 1", s.RootCount())
	}
	if got := s.Deref(h2); got != b {
		t.Fatalf("Deref(h2) = %d, want %d", got, b)
	}

	s.Collect()
	if !s.Valid(b) {
		t.Fatalf("term protected by reused slot was collected")
	}
	if s.Valid(a) {
		t.Fatalf("released term survived collection")
	}
	s.Unprotect(h2)
	if s.RootCount() != 0 {
		t.Fatalf("RootCount = %d, want 0", s.RootCount())
	}
}

func TestCollectingPhasePanics(t *testing.T) {
	s := NewStore(Options{})
	x := s.Int(1)
	s.phase = PhaseMarking
	expectPanic(t, ErrCollecting, func() { s.Int(2) })
	expectPanic(t, ErrCollecting, func() { s.Protect(x) })
	expectPanic(t, ErrCollecting, func() { s.Collect() })
	s.phase = PhaseIdle
}

func TestCorruptTagAborts(t *testing.T) {
	s := NewStore(Options{})
	x := s.Int(1)
	s.Protect(x)
	s.nodes[x].tag = Tag(42)
	expectPanic(t, ErrCorruptStore, func() { s.Collect() })
}

func TestMaybeCollectHighWater(t *testing.T) {
	s := NewStore(Options{HighWater: 4})
	keep := s.Protect(s.List(s.Int(1), s.Int(2), s.Int(3)))
	for i := int64(10); i < 20; i++ {
		s.Int(i)
	}
	st, ran := s.MaybeCollect()
	if !ran || st.Swept != 10 {
		t.Fatalf("MaybeCollect ran=%v swept=%d", ran, st.Swept)
	}
	// 3 ints, 3 cells, empty
	if got := s.Stats().HighWater; got != 14 {
		t.Fatalf("high water = %d, want 14", got)
	}
	if _, ran := s.MaybeCollect(); ran {
		t.Fatalf("collected below high water")
	}
	if !s.Valid(s.Deref(keep)) {
		t.Fatalf("protected list lost")
	}
}

func TestCollectDeepList(t *testing.T) {
	s := NewStore(Options{})
	const n = 200000
	l := s.Empty()
	for i := int64(0); i < n; i++ {
		l = s.Cons(s.Int(i%7), l)
	}
	s.Protect(l)
	st := s.Collect()
	if st.Marked != n+7+1 {
		t.Fatalf("marked %d, want %d", st.Marked, n+8)
	}
	if s.Depth(l) != n+1 {
		t.Fatalf("Depth = %d", s.Depth(l))
	}
}

func TestFreeSlotsReused(t *testing.T) {
	s := NewStore(Options{})
	dead := s.Int(100)
	s.Collect()
	if s.Valid(dead) {
		t.Fatalf("dead term survived")
	}
	if got := s.Int(200); got != dead {
		t.Fatalf("new term took slot %d, want recycled %d", got, dead)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestCollectEmitsTraceSpan(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelPhase, trace.FormatText)
	s := NewStore(Options{Tracer: tr})
	s.Int(1)
	s.Collect()
	out := buf.String()
	if !strings.Contains(out, "gc (cycle 1)") || !strings.Contains(out, "swept=1") {
		t.Fatalf("trace output = %q", out)
	}
}
