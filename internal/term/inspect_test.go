package term

import "testing"

func TestSharingAwareCounting(t *testing.T) {
	s := NewStore(Options{})
	f := mustSym(t, s, "f", 1, false)
	g := mustSym(t, s, "g", 2, false)
	sub := s.Appl(f, s.Int(1))
	top := s.Appl(g, sub, sub)

	c := s.CountSymbols(top)
	naive := s.NaiveSymbolOccurrences(top)
	if c.Occurrences != 3 || c.Unique != 3 {
		t.Fatalf("census = %+v, want 3 distinct nodes and keys", c)
	}
	if naive != 5 {
		t.Fatalf("naive = %d, want 5", naive)
	}
	if c.Occurrences > naive || c.Unique > naive {
		t.Fatalf("sharing-aware count exceeds naive count")
	}
	if c.PerSymbol[SymbolKey{Tag: TagAppl, Sym: f}] != 1 {
		t.Fatalf("shared f(1) counted %d times", c.PerSymbol[SymbolKey{Tag: TagAppl, Sym: f}])
	}
}

func TestSubtermsAndDepth(t *testing.T) {
	s := NewStore(Options{})
	f := mustSym(t, s, "f", 2, false)
	tests := []struct {
		name     string
		term     ID
		subterms int
		unique   int
		depth    int
	}{
		{"int", s.Int(3), 1, 1, 1},
		{"empty", s.Empty(), 1, 1, 1},
		{"pair", s.Appl(f, s.Int(1), s.Int(1)), 3, 2, 2},
		{"list", s.List(s.Int(1), s.Int(2)), 5, 5, 3},
		{"nested", s.Appl(f, s.List(s.Int(1)), s.List(s.Int(1))), 7, 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Subterms(tt.term); got != tt.subterms {
				t.Errorf("Subterms = %d, want %d", got, tt.subterms)
			}
			if got := s.UniqueSubterms(tt.term); got != tt.unique {
				t.Errorf("UniqueSubterms = %d, want %d", got, tt.unique)
			}
			if got := s.Depth(tt.term); got != tt.depth {
				t.Errorf("Depth = %d, want %d", got, tt.depth)
			}
		})
	}
}

func TestSubtermsSaturate(t *testing.T) {
	s := NewStore(Options{})
	f := mustSym(t, s, "f", 2, false)
	x := s.Int(0)
	for i := 0; i < 80; i++ {
		x = s.Appl(f, x, x)
	}
	if got := s.UniqueSubterms(x); got != 81 {
		t.Fatalf("UniqueSubterms = %d, want 81", got)
	}
	if got := s.Subterms(x); got <= 1<<62 {
		t.Fatalf("Subterms = %d, want saturated", got)
	}
}
