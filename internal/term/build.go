package term

import (
	"fmt"

	"termkit/internal/symbols"
)

// Symbol registers (or finds) a function symbol in the store's table.
func (s *Store) Symbol(name string, arity int, quoted bool) (symbols.ID, error) {
	return s.syms.Lookup(name, arity, quoted)
}

// Int returns the integer term with value v.
func (s *Store) Int(v int64) ID {
	return s.intern(node{tag: TagInt, value: v})
}

// Empty returns the empty list singleton.
func (s *Store) Empty() ID { return s.empty }

// Appl returns the application of sym to args. The argument count must
// match the symbol arity and every argument must be a live term.
func (s *Store) Appl(sym symbols.ID, args ...ID) ID {
	if !s.syms.Live(sym) {
		panic(fmt.Errorf("%w: unknown symbol %d", ErrInvalidTerm, sym))
	}
	if arity := s.syms.Arity(sym); arity != len(args) {
		panic(fmt.Errorf("%w: %s applied to %d arguments", ErrArityMismatch, s.syms.String(sym), len(args)))
	}
	for _, a := range args {
		s.get(a)
	}
	var owned []ID
	if len(args) > 0 {
		owned = make([]ID, len(args))
		copy(owned, args)
	}
	return s.intern(node{tag: TagAppl, sym: sym, args: owned})
}

// ApplList applies sym to the elements of list.
func (s *Store) ApplList(sym symbols.ID, list ID) ID {
	return s.Appl(sym, s.Elements(list)...)
}

// Cons prepends head to the list tail.
func (s *Store) Cons(head, tail ID) ID {
	s.get(head)
	if tag := s.get(tail).tag; tag != TagList && tag != TagEmpty {
		panic(fmt.Errorf("%w: cons tail %d is %s", ErrInvalidTerm, tail, tag))
	}
	return s.intern(node{tag: TagList, head: head, tail: tail})
}

// List builds the list of elems in order.
func (s *Store) List(elems ...ID) ID {
	l := s.empty
	for i := len(elems) - 1; i >= 0; i-- {
		l = s.Cons(elems[i], l)
	}
	return l
}
