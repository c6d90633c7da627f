package term

import (
	"fmt"

	"fortio.org/safecast"

	"termkit/internal/symbols"
	"termkit/internal/trace"
)

// DefaultHighWater is the live-node count above which MaybeCollect runs a
// collection when Options.HighWater is zero.
const DefaultHighWater = 1 << 16

// Options configure a Store.
type Options struct {
	InitialCapacity   uint // expected number of live nodes
	HighWater         int  // 0 means DefaultHighWater
	MaxSymbolLen      int  // 0 means symbols.DefaultMaxNameLen
	KeepUnusedSymbols bool // do not evict unused symbols on sweep
	Tracer            trace.Tracer
}

// Store owns every term node, the symbol table, the protected roots and
// the collector state. A Store is not safe for concurrent use; see Locked.
type Store struct {
	syms  *symbols.Table
	nodes []node // index 0 reserved for NoTerm
	index map[nodeKey]ID
	free  []ID
	live  int
	empty ID

	roots    []rootEntry // index 0 reserved
	rootFree []int
	rootLive int

	phase     Phase
	highWater int
	evict     bool
	cycles    uint64
	last      GCStats
	stack     []ID

	tracer trace.Tracer
}

// NewStore creates a store holding only the empty list.
func NewStore(opts Options) *Store {
	capacity, err := safecast.Conv[uint32](opts.InitialCapacity)
	if err != nil {
		panic(fmt.Errorf("store capacity overflow: %w", err))
	}
	if capacity == 0 {
		capacity = 1024
	}
	hw := opts.HighWater
	if hw <= 0 {
		hw = DefaultHighWater
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	s := &Store{
		syms:      symbols.NewTable(symbols.Options{MaxNameLen: opts.MaxSymbolLen}),
		nodes:     make([]node, 1, capacity+1),
		index:     make(map[nodeKey]ID, capacity),
		roots:     make([]rootEntry, 1, 16),
		highWater: hw,
		evict:     !opts.KeepUnusedSymbols,
		tracer:    tracer,
	}
	s.empty = s.intern(node{tag: TagEmpty})
	return s
}

// Symbols exposes the symbol table owned by the store.
func (s *Store) Symbols() *symbols.Table { return s.syms }

// Tracer returns the tracer the store reports collections to.
func (s *Store) Tracer() trace.Tracer { return s.tracer }

// intern returns the canonical id for n, allocating a slot when the
// structure is new. Only new nodes retain their symbol and children.
func (s *Store) intern(n node) ID {
	s.requireIdle("intern")
	k := keyOf(&n)
	if id, ok := s.index[k]; ok {
		return id
	}

	var id ID
	if last := len(s.free) - 1; last >= 0 {
		id = s.free[last]
		s.free = s.free[:last]
	} else {
		id = toID(len(s.nodes))
		s.nodes = append(s.nodes, node{})
	}

	if n.tag == TagAppl {
		s.syms.Retain(n.sym)
	}
	var buf [2]ID
	for _, c := range n.children(buf[:0]) {
		s.ref(c)
	}
	n.marked = false
	n.refs = 0
	s.nodes[id] = n
	s.index[k] = id
	s.live++
	return id
}

func (s *Store) ref(id ID) {
	n := &s.nodes[id]
	if n.refs == ^uint32(0) {
		panic(fmt.Errorf("%w: liveness count overflow on node %d", ErrCorruptStore, id))
	}
	n.refs++
}

func (s *Store) unref(id ID) {
	n := &s.nodes[id]
	if n.refs == 0 {
		panic(fmt.Errorf("%w: liveness count underflow on node %d", ErrCorruptStore, id))
	}
	n.refs--
}

func (s *Store) requireIdle(op string) {
	if s.phase != PhaseIdle {
		panic(fmt.Errorf("%w: %s during %s", ErrCollecting, op, s.phase))
	}
}

// get returns the live node for id or panics with ErrInvalidTerm.
func (s *Store) get(id ID) *node {
	if !id.IsValid() || int(id) >= len(s.nodes) || s.nodes[id].tag == TagFree {
		panic(fmt.Errorf("%w: %d", ErrInvalidTerm, id))
	}
	return &s.nodes[id]
}

func (s *Store) expect(id ID, tag Tag) *node {
	n := s.get(id)
	if n.tag != tag {
		panic(fmt.Errorf("%w: term %d is %s, want %s", ErrInvalidTerm, id, n.tag, tag))
	}
	return n
}

// Valid reports whether id names a live term of this store.
func (s *Store) Valid(id ID) bool {
	return id.IsValid() && int(id) < len(s.nodes) && s.nodes[id].tag != TagFree
}

// Equal compares two terms in O(1). Maximal sharing makes identity
// equality and structural equality the same thing.
func (s *Store) Equal(a, b ID) bool { return a == b }

// Tag returns the kind of the term.
func (s *Store) Tag(id ID) Tag { return s.get(id).tag }

// IntValue returns the value of an integer term.
func (s *Store) IntValue(id ID) int64 { return s.expect(id, TagInt).value }

// ApplSymbol returns the function symbol of an application.
func (s *Store) ApplSymbol(id ID) symbols.ID { return s.expect(id, TagAppl).sym }

// Arity returns the number of arguments of an application.
func (s *Store) Arity(id ID) int { return len(s.expect(id, TagAppl).args) }

// Arg returns the i-th argument of an application.
func (s *Store) Arg(id ID, i int) ID {
	n := s.expect(id, TagAppl)
	if i < 0 || i >= len(n.args) {
		panic(fmt.Errorf("%w: argument %d of %d-ary term %d", ErrInvalidTerm, i, len(n.args), id))
	}
	return n.args[i]
}

// Args returns a copy of the arguments of an application.
func (s *Store) Args(id ID) []ID {
	n := s.expect(id, TagAppl)
	out := make([]ID, len(n.args))
	copy(out, n.args)
	return out
}

// Head returns the first element of a non-empty list.
func (s *Store) Head(id ID) ID { return s.expect(id, TagList).head }

// Tail returns the rest of a non-empty list.
func (s *Store) Tail(id ID) ID { return s.expect(id, TagList).tail }

// IsEmpty reports whether id is the empty list.
func (s *Store) IsEmpty(id ID) bool { return id == s.empty }

// IsList reports whether id is a list (empty or not).
func (s *Store) IsList(id ID) bool {
	tag := s.get(id).tag
	return tag == TagList || tag == TagEmpty
}

// StoreStats is a snapshot of store occupancy.
type StoreStats struct {
	Nodes       int    // live nodes
	FreeSlots   int    // arena slots waiting for reuse
	Capacity    int    // arena slots ever allocated
	Symbols     int    // live symbols
	Roots       int    // live root handles
	Collections uint64 // completed collections
	HighWater   int    // live-node threshold for MaybeCollect
}

// Stats returns current occupancy counters.
func (s *Store) Stats() StoreStats {
	return StoreStats{
		Nodes:       s.live,
		FreeSlots:   len(s.free),
		Capacity:    len(s.nodes) - 1,
		Symbols:     s.syms.Len(),
		Roots:       s.rootLive,
		Collections: s.cycles,
		HighWater:   s.highWater,
	}
}
