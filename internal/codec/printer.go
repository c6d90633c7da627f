package codec

import (
	"crypto/sha256"
	"io"
	"strconv"

	"termkit/internal/symbols"
	"termkit/internal/term"
)

// printItem is either a term to render or literal text (id == NoTerm).
type printItem struct {
	id   term.ID
	text string
}

// AppendTerm appends the canonical text of id to dst. It uses an explicit
// stack, so arbitrarily deep terms and long lists are safe to print.
// Printing a dead id panics with term.ErrInvalidTerm.
func AppendTerm(dst []byte, s *term.Store, id term.ID) []byte {
	syms := s.Symbols()
	stack := []printItem{{id: id}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.id == term.NoTerm {
			dst = append(dst, it.text...)
			continue
		}

		switch s.Tag(it.id) {
		case term.TagInt:
			dst = strconv.AppendInt(dst, s.IntValue(it.id), 10)
		case term.TagEmpty:
			dst = append(dst, "[]"...)
		case term.TagList:
			dst = append(dst, '[')
			stack = pushSeq(stack, s.Elements(it.id), "]")
		case term.TagAppl:
			sym := s.ApplSymbol(it.id)
			dst = AppendSymbol(dst, syms, sym)
			if s.Arity(it.id) > 0 || (!syms.Quoted(sym) && syms.Name(sym) == "") {
				dst = append(dst, '(')
				stack = pushSeq(stack, s.Args(it.id), ")")
			}
		}
	}
	return dst
}

// pushSeq schedules elems separated by commas and followed by closing.
func pushSeq(stack []printItem, elems []term.ID, closing string) []printItem {
	stack = append(stack, printItem{text: closing})
	for i := len(elems) - 1; i >= 0; i-- {
		stack = append(stack, printItem{id: elems[i]})
		if i > 0 {
			stack = append(stack, printItem{text: ","})
		}
	}
	return stack
}

// AppendSymbol appends the name of sym, quoted and escaped when the
// symbol is quoted.
func AppendSymbol(dst []byte, syms *symbols.Table, sym symbols.ID) []byte {
	name := syms.Name(sym)
	if !syms.Quoted(sym) {
		return append(dst, name...)
	}
	dst = append(dst, '"')
	for i := 0; i < len(name); i++ {
		switch b := name[i]; b {
		case '\\', '"':
			dst = append(dst, '\\', b)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\r':
			dst = append(dst, '\\', 'r')
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, '"')
}

// Print returns the canonical text of id.
func Print(s *term.Store, id term.ID) string {
	return string(AppendTerm(nil, s, id))
}

// Write writes the canonical text of id to w.
func Write(w io.Writer, s *term.Store, id term.ID) error {
	_, err := w.Write(AppendTerm(nil, s, id))
	return err
}

// Checksum returns the SHA-256 digest of the canonical text of id. Equal
// terms have equal checksums in every store.
func Checksum(s *term.Store, id term.ID) [32]byte {
	return sha256.Sum256(AppendTerm(nil, s, id))
}
