package term

import (
	"fmt"
	"strconv"
	"time"

	"termkit/internal/trace"
)

// Phase is the collector state. Everything except Collect requires PhaseIdle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseMarking
	PhaseSweeping
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMarking:
		return "marking"
	case PhaseSweeping:
		return "sweeping"
	default:
		return "Phase(" + strconv.Itoa(int(p)) + ")"
	}
}

// Phase returns the current collector state.
func (s *Store) Phase() Phase { return s.phase }

// GCStats describes one collection.
type GCStats struct {
	Cycle          uint64
	Marked         int
	Swept          int
	SymbolsEvicted int
	LiveNodes      int
	LiveSymbols    int
	Roots          int
	Duration       time.Duration
	At             time.Time
}

// LastGC returns the stats of the most recent collection (zero if none).
func (s *Store) LastGC() GCStats { return s.last }

// Collect runs a full stop-the-world mark-sweep collection. Terms that are
// neither protected nor reachable from a protected term are reclaimed and
// their ids become invalid.
func (s *Store) Collect() GCStats {
	s.requireIdle("collect")
	span := trace.Begin(s.tracer, trace.ScopeStore, "gc", 0)
	started := time.Now()

	s.phase = PhaseMarking
	marked := s.mark()

	s.phase = PhaseSweeping
	swept := s.sweep()
	evicted := 0
	if s.evict {
		evicted = s.syms.Evict()
	}
	s.phase = PhaseIdle
	s.cycles++

	st := GCStats{
		Cycle:          s.cycles,
		Marked:         marked,
		Swept:          swept,
		SymbolsEvicted: evicted,
		LiveNodes:      s.live,
		LiveSymbols:    s.syms.Len(),
		Roots:          s.rootLive,
		Duration:       time.Since(started),
		At:             started,
	}
	s.last = st
	span.WithExtra("marked", strconv.Itoa(marked)).
		WithExtra("swept", strconv.Itoa(swept)).
		WithExtra("evicted", strconv.Itoa(evicted)).
		End("cycle " + strconv.FormatUint(st.Cycle, 10))
	return st
}

// MaybeCollect collects when the number of live nodes exceeds the
// high-water mark, then raises the mark to twice the surviving nodes.
// Callers must protect every term they hold across the call.
func (s *Store) MaybeCollect() (GCStats, bool) {
	if s.live <= s.highWater {
		return GCStats{}, false
	}
	st := s.Collect()
	s.highWater = max(s.highWater, 2*s.live)
	return st, true
}

// mark sets the mark bit of every node reachable from the roots and the
// empty list, each exactly once.
func (s *Store) mark() int {
	stack := append(s.stack[:0], s.empty)
	for idx := 1; idx < len(s.roots); idx++ {
		if e := s.roots[idx]; e.live {
			stack = append(stack, e.term)
		}
	}

	marked := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !id.IsValid() || int(id) >= len(s.nodes) {
			panic(fmt.Errorf("%w: slot %d out of range during mark", ErrCorruptStore, id))
		}
		n := &s.nodes[id]
		switch n.tag {
		case TagInt, TagEmpty, TagAppl, TagList:
		default:
			panic(fmt.Errorf("%w: node %d has tag %s during mark", ErrCorruptStore, id, n.tag))
		}
		if n.marked {
			continue
		}
		n.marked = true
		marked++
		stack = n.children(stack)
	}
	s.stack = stack[:0]
	return marked
}

// sweep reclaims every unmarked node and clears the mark bits.
func (s *Store) sweep() int {
	// проход 1: сначала отпускаем все слоты, иначе счётчики не сойдутся
	for idx := 1; idx < len(s.nodes); idx++ {
		n := &s.nodes[idx]
		if n.tag == TagFree || n.marked {
			continue
		}
		if n.tag == TagAppl {
			s.syms.Release(n.sym)
		}
		for _, c := range n.args {
			s.unref(c)
		}
		if n.tag == TagList {
			s.unref(n.head)
			s.unref(n.tail)
		}
	}

	swept := 0
	for idx := 1; idx < len(s.nodes); idx++ {
		n := &s.nodes[idx]
		if n.tag == TagFree {
			continue
		}
		if n.marked {
			n.marked = false
			continue
		}
		if n.refs != 0 {
			panic(fmt.Errorf("%w: unreachable node %d still has %d references", ErrCorruptStore, idx, n.refs))
		}
		delete(s.index, keyOf(n))
		*n = node{}
		s.free = append(s.free, toID(idx))
		s.live--
		swept++
	}
	return swept
}
