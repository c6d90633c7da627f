package symbols

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"
)

// DefaultMaxNameLen bounds symbol names when Options.MaxNameLen is zero.
const DefaultMaxNameLen = 1 << 16

// Options provide capacity hints and limits for a Table.
type Options struct {
	Capacity   uint // expected number of distinct symbols
	MaxNameLen int  // 0 means DefaultMaxNameLen
}

// Info is a read-only snapshot of a symbol entry.
type Info struct {
	Name   string
	Arity  int
	Quoted bool
	Uses   uint32
	Pins   uint32
}

type key struct {
	name   string
	arity  uint32
	quoted bool
}

type entry struct {
	name   string
	arity  uint32
	quoted bool
	uses   uint32 // live applications referencing the symbol
	pins   uint32 // external Protect calls
	live   bool
}

// Table maps (name, arity, quoted) triples to canonical ids and keeps a
// use-count per id so unused symbols can be evicted and their ids recycled.
type Table struct {
	data       []entry // index 0 reserved for NoID
	index      map[key]ID
	free       []ID
	live       int
	maxNameLen int
}

// NewTable builds an empty table.
func NewTable(opts Options) *Table {
	capacity, err := safecast.Conv[uint32](opts.Capacity)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if capacity == 0 {
		capacity = 64
	}
	maxLen := opts.MaxNameLen
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLen
	}
	return &Table{
		data:       make([]entry, 1, capacity+1),
		index:      make(map[key]ID, capacity),
		maxNameLen: maxLen,
	}
}

// Lookup returns the id registered for the triple, registering a new one with
// use-count 0 when the triple has not been seen (or was evicted).
func (t *Table) Lookup(name string, arity int, quoted bool) (ID, error) {
	if arity < 0 {
		return NoID, fmt.Errorf("%w: %d", ErrInvalidArity, arity)
	}
	if len(name) > t.maxNameLen {
		return NoID, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrOversizedSymbol, len(name), t.maxNameLen)
	}
	if !quoted && !ValidUnquoted(name) {
		return NoID, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	ar, err := safecast.Conv[uint32](arity)
	if err != nil {
		return NoID, fmt.Errorf("%w: %v", ErrInvalidArity, err)
	}
	k := key{name: name, arity: ar, quoted: quoted}
	if id, ok := t.index[k]; ok {
		return id, nil
	}

	var id ID
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		value, convErr := safecast.Conv[uint32](len(t.data))
		if convErr != nil {
			panic(fmt.Errorf("symbol arena overflow: %w", convErr))
		}
		id = ID(value)
		t.data = append(t.data, entry{})
	}
	// собственная копия имени, чтобы не держать буфер парсера
	t.data[id] = entry{name: string([]byte(name)), arity: ar, quoted: quoted, live: true}
	t.index[key{name: t.data[id].name, arity: ar, quoted: quoted}] = id
	t.live++
	return id, nil
}

// MustLookup is Lookup that panics on error.
func (t *Table) MustLookup(name string, arity int, quoted bool) ID {
	id, err := t.Lookup(name, arity, quoted)
	if err != nil {
		panic(err)
	}
	return id
}

// Find returns the id for the triple without registering it.
func (t *Table) Find(name string, arity int, quoted bool) (ID, bool) {
	ar, err := safecast.Conv[uint32](arity)
	if err != nil {
		return NoID, false
	}
	id, ok := t.index[key{name: name, arity: ar, quoted: quoted}]
	return id, ok
}

func (t *Table) get(id ID) *entry {
	if !id.IsValid() || int(id) >= len(t.data) || !t.data[id].live {
		panic(fmt.Errorf("%w: %d", ErrBadSymbol, id))
	}
	return &t.data[id]
}

// Live reports whether id refers to a registered symbol.
func (t *Table) Live(id ID) bool {
	return id.IsValid() && int(id) < len(t.data) && t.data[id].live
}

// Retain records one more live application of the symbol.
func (t *Table) Retain(id ID) {
	e := t.get(id)
	if e.uses == ^uint32(0) {
		panic(fmt.Errorf("symbol %d use-count overflow", id))
	}
	e.uses++
}

// Release drops one live application. Reaching zero makes the symbol
// eligible for eviction on the next sweep.
func (t *Table) Release(id ID) {
	e := t.get(id)
	if e.uses == 0 {
		panic(fmt.Errorf("%w: release of %s", ErrUseCountUnderflow, t.String(id)))
	}
	e.uses--
}

// Protect pins the symbol so Evict keeps it even when unused.
func (t *Table) Protect(id ID) {
	t.get(id).pins++
}

// Unprotect removes one pin added by Protect.
func (t *Table) Unprotect(id ID) {
	e := t.get(id)
	if e.pins == 0 {
		panic(fmt.Errorf("%w: unprotect of %s", ErrUseCountUnderflow, t.String(id)))
	}
	e.pins--
}

// Name returns the symbol name.
func (t *Table) Name(id ID) string { return t.get(id).name }

// Arity returns the number of arguments applications of id carry.
func (t *Table) Arity(id ID) int { return int(t.get(id).arity) }

// Quoted reports whether the name is printed between double quotes.
func (t *Table) Quoted(id ID) bool { return t.get(id).quoted }

// UseCount returns the number of live applications referencing id.
func (t *Table) UseCount(id ID) uint32 { return t.get(id).uses }

// Info returns a snapshot of the entry.
func (t *Table) Info(id ID) Info {
	e := t.get(id)
	return Info{Name: e.name, Arity: int(e.arity), Quoted: e.quoted, Uses: e.uses, Pins: e.pins}
}

// Evict removes every symbol that is neither used nor protected and puts
// its id on the free list. Returns the number of evicted symbols.
func (t *Table) Evict() int {
	evicted := 0
	for idx := len(t.data) - 1; idx > 0; idx-- {
		e := &t.data[idx]
		if !e.live || e.uses != 0 || e.pins != 0 {
			continue
		}
		delete(t.index, key{name: e.name, arity: e.arity, quoted: e.quoted})
		*e = entry{}
		t.free = append(t.free, toID(idx))
		t.live--
		evicted++
	}
	return evicted
}

// MaxNameLen returns the longest accepted name in bytes.
func (t *Table) MaxNameLen() int { return t.maxNameLen }

// Len reports the number of registered symbols.
func (t *Table) Len() int { return t.live }

// Each calls fn for every registered symbol in id order.
func (t *Table) Each(fn func(id ID, info Info)) {
	for idx := 1; idx < len(t.data); idx++ {
		e := &t.data[idx]
		if !e.live {
			continue
		}
		fn(toID(idx), Info{Name: e.name, Arity: int(e.arity), Quoted: e.quoted, Uses: e.uses, Pins: e.pins})
	}
}

// String renders id as name/arity, quoting quoted names.
func (t *Table) String(id ID) string {
	if !t.Live(id) {
		return "<sym#" + strconv.FormatUint(uint64(id), 10) + ">"
	}
	e := &t.data[id]
	name := e.name
	if e.quoted {
		name = strconv.Quote(name)
	}
	return name + "/" + strconv.FormatUint(uint64(e.arity), 10)
}

// ValidUnquoted reports whether name can be printed without quotes and read
// back as the same unquoted symbol.
func ValidUnquoted(name string) bool {
	if name == "" {
		return true
	}
	if !IsIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !IsIdentByte(name[i]) {
			return false
		}
	}
	return true
}

// IsIdentStart reports whether b may start an unquoted name.
func IsIdentStart(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// IsIdentByte reports whether b may continue an unquoted name.
func IsIdentByte(b byte) bool {
	switch {
	case IsIdentStart(b), '0' <= b && b <= '9':
		return true
	}
	switch b {
	case '-', '_', '+', '*', '$':
		return true
	}
	return false
}
