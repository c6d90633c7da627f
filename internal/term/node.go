package term

import (
	"encoding/binary"

	"termkit/internal/symbols"
)

// node is one arena slot. Which payload fields are meaningful depends on tag.
type node struct {
	tag    Tag
	marked bool
	refs   uint32 // incoming slots from live nodes + root entries
	sym    symbols.ID
	value  int64
	head   ID
	tail   ID
	args   []ID
}

// nodeKey is the structural identity of a node. Applications with up to
// two arguments keep them inline; longer argument vectors are packed.
type nodeKey struct {
	tag  Tag
	sym  symbols.ID
	a    uint64
	b    ID
	rest string
}

func keyOf(n *node) nodeKey {
	switch n.tag {
	case TagInt:
		return nodeKey{tag: TagInt, a: uint64(n.value)}
	case TagList:
		return nodeKey{tag: TagList, a: uint64(n.head), b: n.tail}
	case TagAppl:
		k := nodeKey{tag: TagAppl, sym: n.sym}
		switch len(n.args) {
		case 0:
		case 1:
			k.a = uint64(n.args[0])
		case 2:
			k.a = uint64(n.args[0])
			k.b = n.args[1]
		default:
			k.rest = packIDs(n.args)
		}
		return k
	default:
		return nodeKey{tag: n.tag}
	}
}

func packIDs(ids []ID) string {
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(id))
	}
	return string(buf)
}

// children appends the payload slots of n to dst.
func (n *node) children(dst []ID) []ID {
	switch n.tag {
	case TagAppl:
		return append(dst, n.args...)
	case TagList:
		return append(dst, n.head, n.tail)
	}
	return dst
}
