package term

import (
	"errors"
	"fmt"

	"termkit/internal/symbols"
)

// Validate recomputes every liveness and use count from scratch and checks
// them against the stored ones, together with the intern index, the free
// lists and the symbol table. It is meant for tests and the check command.
func (s *Store) Validate() error {
	var errs []error
	if s.phase != PhaseIdle {
		errs = append(errs, fmt.Errorf("store is %s", s.phase))
	}

	refs := make([]uint32, len(s.nodes))
	uses := make(map[symbols.ID]uint32)
	live := 0
	var buf [2]ID
	for idx := 1; idx < len(s.nodes); idx++ {
		n := &s.nodes[idx]
		if n.tag == TagFree {
			continue
		}
		live++
		id := toID(idx)
		if n.marked {
			errs = append(errs, fmt.Errorf("node %d left marked", id))
		}
		if got, ok := s.index[keyOf(n)]; !ok || got != id {
			errs = append(errs, fmt.Errorf("node %d (%s) not indexed under its structure", id, n.tag))
		}
		if n.tag == TagAppl {
			uses[n.sym]++
			if !s.syms.Live(n.sym) {
				errs = append(errs, fmt.Errorf("node %d uses dead symbol %d", id, n.sym))
			} else if s.syms.Arity(n.sym) != len(n.args) {
				errs = append(errs, fmt.Errorf("node %d: %s with %d arguments", id, s.syms.String(n.sym), len(n.args)))
			}
		}
		for _, c := range n.children(buf[:0]) {
			if !s.Valid(c) {
				errs = append(errs, fmt.Errorf("node %d points at dead slot %d", id, c))
				continue
			}
			refs[c]++
		}
		if n.tag == TagList && s.Valid(n.tail) {
			if tag := s.nodes[n.tail].tag; tag != TagList && tag != TagEmpty {
				errs = append(errs, fmt.Errorf("list node %d has %s tail", id, tag))
			}
		}
	}
	for idx := 1; idx < len(s.roots); idx++ {
		if e := s.roots[idx]; e.live {
			if !s.Valid(e.term) {
				errs = append(errs, fmt.Errorf("root %d protects dead slot %d", idx, e.term))
				continue
			}
			refs[e.term]++
		}
	}

	for idx := 1; idx < len(s.nodes); idx++ {
		if s.nodes[idx].tag != TagFree && s.nodes[idx].refs != refs[idx] {
			errs = append(errs, fmt.Errorf("node %d has liveness %d, want %d", idx, s.nodes[idx].refs, refs[idx]))
		}
	}
	if live != s.live {
		errs = append(errs, fmt.Errorf("live counter %d, arena holds %d", s.live, live))
	}
	if len(s.index) != live {
		errs = append(errs, fmt.Errorf("intern index holds %d entries, arena holds %d", len(s.index), live))
	}
	if !s.Valid(s.empty) || s.nodes[s.empty].tag != TagEmpty {
		errs = append(errs, fmt.Errorf("empty list singleton %d lost", s.empty))
	}
	for _, id := range s.free {
		if int(id) >= len(s.nodes) || s.nodes[id].tag != TagFree {
			errs = append(errs, fmt.Errorf("free list holds live slot %d", id))
		}
	}

	s.syms.Each(func(id symbols.ID, info symbols.Info) {
		if info.Uses != uses[id] {
			errs = append(errs, fmt.Errorf("symbol %s has use-count %d, want %d", s.syms.String(id), info.Uses, uses[id]))
		}
	})
	if err := s.syms.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
