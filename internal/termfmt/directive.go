package termfmt

import "strings"

// Kind classifies a compiled directive.
type Kind uint8

const (
	Literal  Kind = iota // text copied as is
	Numeric              // d i o u x X c e E f g G
	String               // s v q
	Term                 // t
	TermList             // <sep>l
	Symbol               // y a
	Node                 // n
	Checksum             // h
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case Term:
		return "term"
	case TermList:
		return "termlist"
	case Symbol:
		return "symbol"
	case Node:
		return "node"
	case Checksum:
		return "checksum"
	default:
		return "unknown"
	}
}

// Directive is one compiled piece of a format string.
//
// For Literal, Text holds the text. For TermList, Text holds the
// separator written between elements. For every other kind Spec is the
// fmt verb with its flags and width, e.g. "%-8d" or "%s".
type Directive struct {
	Kind Kind
	Verb byte
	Text string
	Spec string
}

// Format is a compiled format string.
type Format struct {
	src  string
	dirs []Directive
	args int
}

// Directives returns the compiled directives in order.
func (f *Format) Directives() []Directive { return f.dirs }

// NumArgs returns how many arguments the format consumes.
func (f *Format) NumArgs() int { return f.args }

func (f *Format) String() string { return f.src }

// Compile splits format into directives. Compilation never fails: a '%'
// at the end of the string is literal, and an unknown verb prints itself.
func Compile(format string) *Format {
	f := &Format{src: format}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			f.dirs = append(f.dirs, Directive{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			lit.WriteByte('%')
			i++
			continue
		}
		// флаги, ширина и разделитель тянутся до первой буквы
		j := i + 1
		for j < len(format) && !isAlpha(format[j]) {
			j++
		}
		if j == len(format) {
			lit.WriteString(format[i:])
			break
		}
		mods, verb := format[i+1:j], format[j]
		i = j

		d := Directive{Verb: verb, Spec: "%" + mods + string(verb)}
		switch verb {
		case 'd', 'i', 'u':
			d.Kind, d.Spec = Numeric, "%"+mods+"d"
		case 'o', 'x', 'X', 'c', 'e', 'E', 'f', 'g', 'G':
			d.Kind = Numeric
		case 's', 'v', 'q':
			d.Kind = String
		case 't':
			d.Kind = Term
		case 'l':
			d.Kind, d.Text, d.Spec = TermList, mods, ""
		case 'y', 'a':
			d.Kind = Symbol
		case 'n':
			d.Kind = Node
		case 'h':
			d.Kind = Checksum
		default:
			lit.WriteByte(verb)
			continue
		}
		flush()
		f.dirs = append(f.dirs, d)
		f.args++
	}
	flush()
	return f
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
