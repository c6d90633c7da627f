package term

import (
	"math"

	"termkit/internal/symbols"
)

// postorder visits every distinct node reachable from root exactly once,
// children before parents. It never recurses.
func (s *Store) postorder(root ID, visit func(id ID, n *node)) {
	s.get(root)
	type frame struct {
		id       ID
		expanded bool
	}
	seen := make(map[ID]struct{})
	stack := []frame{{id: root}}
	var kids []ID
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if _, done := seen[top.id]; done {
			stack = stack[:len(stack)-1]
			continue
		}
		n := s.get(top.id)
		if !top.expanded {
			top.expanded = true
			kids = n.children(kids[:0])
			for i := len(kids) - 1; i >= 0; i-- {
				if _, done := seen[kids[i]]; !done {
					stack = append(stack, frame{id: kids[i]})
				}
			}
			continue
		}
		seen[top.id] = struct{}{}
		id := top.id
		stack = stack[:len(stack)-1]
		visit(id, n)
	}
}

func satAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Subterms returns the size of the term as a tree: every position counts,
// shared subterms count once per occurrence. Saturates at math.MaxInt.
func (s *Store) Subterms(id ID) int {
	size := make(map[ID]int)
	var buf [2]ID
	s.postorder(id, func(cur ID, n *node) {
		total := 1
		for _, c := range n.children(buf[:0]) {
			total = satAdd(total, size[c])
		}
		size[cur] = total
	})
	return size[id]
}

// UniqueSubterms returns the number of distinct nodes reachable from id.
func (s *Store) UniqueSubterms(id ID) int {
	count := 0
	s.postorder(id, func(ID, *node) { count++ })
	return count
}

// Depth returns the height of the term; a leaf has depth 1.
func (s *Store) Depth(id ID) int {
	depth := make(map[ID]int)
	var buf [2]ID
	s.postorder(id, func(cur ID, n *node) {
		d := 0
		for _, c := range n.children(buf[:0]) {
			d = max(d, depth[c])
		}
		depth[cur] = d + 1
	})
	return depth[id]
}

// SymbolKey identifies what a node contributes to a symbol census:
// an application symbol, or one of the int, list and empty-list
// pseudo-symbols (Sym is NoID for those).
type SymbolKey struct {
	Tag Tag
	Sym symbols.ID
}

// SymbolCount is the result of a sharing-aware symbol census.
type SymbolCount struct {
	Unique      int               // distinct symbol keys
	Occurrences int               // distinct nodes contributing
	PerSymbol   map[SymbolKey]int // distinct nodes per key
}

// CountSymbols counts symbol occurrences reachable from id, visiting each
// distinct node once. Both counts are bounded by NaiveSymbolOccurrences.
func (s *Store) CountSymbols(id ID) SymbolCount {
	out := SymbolCount{PerSymbol: make(map[SymbolKey]int)}
	s.postorder(id, func(_ ID, n *node) {
		k := SymbolKey{Tag: n.tag}
		if n.tag == TagAppl {
			k.Sym = n.sym
		}
		out.PerSymbol[k]++
		out.Occurrences++
	})
	out.Unique = len(out.PerSymbol)
	return out
}

// NaiveSymbolOccurrences counts symbol occurrences without deduplicating
// shared subterms. Every tree position carries exactly one symbol, so this
// equals Subterms.
func (s *Store) NaiveSymbolOccurrences(id ID) int {
	return s.Subterms(id)
}
