package term

import (
	"fmt"

	"fortio.org/safecast"
)

// ID addresses a node in the store arena. Equal ids mean equal terms.
type ID uint32

// NoTerm is the "no term" sentinel returned by failed reads.
const NoTerm ID = 0

// IsValid reports whether id is not NoTerm. It does not check liveness;
// use Store.Valid for that.
func (id ID) IsValid() bool { return id != NoTerm }

// RootHandle identifies one Protect call. The low 32 bits name a root slot
// and the high 32 bits carry the slot generation, so a handle released by
// Unprotect stays invalid after its slot is reused. Zero is never handed out.
type RootHandle uint64

// Tag discriminates node payloads.
type Tag uint8

const (
	// TagFree marks an unused arena slot. It never escapes to callers.
	TagFree Tag = iota
	TagInt
	TagAppl
	TagList
	TagEmpty
)

func (t Tag) String() string {
	switch t {
	case TagFree:
		return "free"
	case TagInt:
		return "int"
	case TagAppl:
		return "appl"
	case TagList:
		return "list"
	case TagEmpty:
		return "empty"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

func toID(idx int) ID {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		panic(fmt.Errorf("term arena overflow: %w", err))
	}
	return ID(value)
}

func toHandle(idx int, gen uint32) RootHandle {
	slot, err := safecast.Conv[uint32](idx)
	if err != nil {
		panic(fmt.Errorf("root set overflow: %w", err))
	}
	return RootHandle(gen)<<32 | RootHandle(slot)
}

func (h RootHandle) slot() int { return int(uint32(h)) }

func (h RootHandle) gen() uint32 { return uint32(h >> 32) }
