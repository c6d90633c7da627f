package term

import (
	"slices"
	"testing"
)

func ints(s *Store, vs ...int64) []ID {
	out := make([]ID, len(vs))
	for i, v := range vs {
		out[i] = s.Int(v)
	}
	return out
}

func TestListOperations(t *testing.T) {
	s := NewStore(Options{})
	l := s.List(ints(s, 1, 2, 3)...)

	if s.Len(l) != 3 || s.Len(s.Empty()) != 0 {
		t.Fatalf("Len = %d", s.Len(l))
	}
	if s.ElementAt(l, 1) != s.Int(2) || s.ElementAt(l, 3) != NoTerm || s.ElementAt(l, -1) != NoTerm {
		t.Fatalf("ElementAt wrong")
	}
	if s.IndexOf(l, s.Int(3), 0) != 2 || s.IndexOf(l, s.Int(1), 1) != -1 {
		t.Fatalf("IndexOf wrong")
	}
	if got := s.Reverse(l); got != s.List(ints(s, 3, 2, 1)...) {
		t.Fatalf("Reverse = %v", s.Elements(got))
	}
	tail := s.List(ints(s, 9, 8)...)
	cat := s.Concat(l, tail)
	if cat != s.List(ints(s, 1, 2, 3, 9, 8)...) {
		t.Fatalf("Concat = %v", s.Elements(cat))
	}
	if s.Tail(s.Tail(s.Tail(cat))) != tail {
		t.Fatalf("Concat does not share its suffix")
	}
	if s.Append(l, s.Int(4)) != s.List(ints(s, 1, 2, 3, 4)...) {
		t.Fatalf("Append wrong")
	}
	if s.Insert(l, s.Int(0)) != s.List(ints(s, 0, 1, 2, 3)...) {
		t.Fatalf("Insert wrong")
	}
	if !slices.Equal(s.Elements(l), ints(s, 1, 2, 3)) {
		t.Fatalf("Elements = %v", s.Elements(l))
	}

	var visited []int
	s.EachElement(l, func(i int, _ ID) bool {
		visited = append(visited, i)
		return i < 1
	})
	if !slices.Equal(visited, []int{0, 1}) {
		t.Fatalf("EachElement visited %v", visited)
	}

	expectPanic(t, ErrInvalidTerm, func() { s.Len(s.Int(1)) })
}

func TestApplList(t *testing.T) {
	s := NewStore(Options{})
	f := mustSym(t, s, "f", 2, false)
	got := s.ApplList(f, s.List(ints(s, 1, 2)...))
	if got != s.Appl(f, ints(s, 1, 2)...) {
		t.Fatalf("ApplList differs from Appl")
	}
	expectPanic(t, ErrArityMismatch, func() { s.ApplList(f, s.List(ints(s, 1)...)) })
}
