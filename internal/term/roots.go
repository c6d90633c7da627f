package term

import "fmt"

type rootEntry struct {
	term ID
	gen  uint32 // bumped by every Unprotect of the slot
	live bool
}

// Protect registers id as an external root and returns its handle.
// Protecting the same term twice yields two independent handles.
//
// Every live root is walked by each mark pass, so mark time grows linearly
// with the number of protected terms.
func (s *Store) Protect(id ID) RootHandle {
	s.requireIdle("protect")
	s.get(id)
	var idx int
	if last := len(s.rootFree) - 1; last >= 0 {
		idx = s.rootFree[last]
		s.rootFree = s.rootFree[:last]
	} else {
		idx = len(s.roots)
		s.roots = append(s.roots, rootEntry{})
	}
	e := &s.roots[idx]
	e.term = id
	e.live = true
	s.ref(id)
	s.rootLive++
	return toHandle(idx, e.gen)
}

// Unprotect releases a handle returned by Protect. Releasing the same
// handle twice panics even when its slot has since been handed out again.
func (s *Store) Unprotect(h RootHandle) {
	s.requireIdle("unprotect")
	e := s.root(h)
	s.unref(e.term)
	e.term = NoTerm
	e.live = false
	e.gen++
	s.rootFree = append(s.rootFree, h.slot())
	s.rootLive--
}

// Deref returns the term protected by h.
func (s *Store) Deref(h RootHandle) ID {
	return s.root(h).term
}

func (s *Store) root(h RootHandle) *rootEntry {
	idx := h.slot()
	if idx == 0 || idx >= len(s.roots) {
		panic(fmt.Errorf("%w: %#x", ErrBadRootHandle, uint64(h)))
	}
	e := &s.roots[idx]
	if !e.live || e.gen != h.gen() {
		panic(fmt.Errorf("%w: %#x is stale", ErrBadRootHandle, uint64(h)))
	}
	return e
}

// RootCount returns the number of live handles.
func (s *Store) RootCount() int { return s.rootLive }

// EachRoot calls fn for every live handle in slot order.
func (s *Store) EachRoot(fn func(h RootHandle, id ID)) {
	for idx := 1; idx < len(s.roots); idx++ {
		if e := s.roots[idx]; e.live {
			fn(toHandle(idx, e.gen), e.term)
		}
	}
}
