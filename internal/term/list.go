package term

// Len returns the number of elements of list.
func (s *Store) Len(list ID) int {
	s.expectList(list)
	n := 0
	for l := list; !s.IsEmpty(l); l = s.Tail(l) {
		n++
	}
	return n
}

func (s *Store) expectList(list ID) {
	if !s.IsList(list) {
		s.expect(list, TagList)
	}
}

// ElementAt returns the i-th element, or NoTerm when i is out of range.
func (s *Store) ElementAt(list ID, i int) ID {
	s.expectList(list)
	if i < 0 {
		return NoTerm
	}
	for l := list; !s.IsEmpty(l); l = s.Tail(l) {
		if i == 0 {
			return s.Head(l)
		}
		i--
	}
	return NoTerm
}

// IndexOf returns the position of the first occurrence of elem at or after
// start, or -1.
func (s *Store) IndexOf(list, elem ID, start int) int {
	s.expectList(list)
	i := 0
	for l := list; !s.IsEmpty(l); l = s.Tail(l) {
		if i >= start && s.Head(l) == elem {
			return i
		}
		i++
	}
	return -1
}

// Elements returns a copy of the list elements.
func (s *Store) Elements(list ID) []ID {
	s.expectList(list)
	var out []ID
	for l := list; !s.IsEmpty(l); l = s.Tail(l) {
		out = append(out, s.Head(l))
	}
	return out
}

// EachElement calls fn for every element in order until fn returns false.
func (s *Store) EachElement(list ID, fn func(i int, elem ID) bool) {
	s.expectList(list)
	i := 0
	for l := list; !s.IsEmpty(l); l = s.Tail(l) {
		if !fn(i, s.Head(l)) {
			return
		}
		i++
	}
}

// Reverse returns the list with its elements in reverse order.
func (s *Store) Reverse(list ID) ID {
	s.expectList(list)
	out := s.empty
	for l := list; !s.IsEmpty(l); l = s.Tail(l) {
		out = s.Cons(s.Head(l), out)
	}
	return out
}

// Concat returns the elements of a followed by the elements of b.
// The result shares b as its suffix.
func (s *Store) Concat(a, b ID) ID {
	s.expectList(b)
	elems := s.Elements(a)
	out := b
	for i := len(elems) - 1; i >= 0; i-- {
		out = s.Cons(elems[i], out)
	}
	return out
}

// Append adds elem at the end of list.
func (s *Store) Append(list, elem ID) ID {
	return s.Concat(list, s.Cons(elem, s.empty))
}

// Insert adds elem in front of list.
func (s *Store) Insert(list, elem ID) ID {
	return s.Cons(elem, list)
}
