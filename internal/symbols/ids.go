package symbols

// ID identifies a function symbol inside a Table.
type ID uint32

const (
	// NoID marks the absence of a symbol reference.
	NoID ID = 0
)

// IsValid reports whether the ID can refer to an allocated symbol.
func (id ID) IsValid() bool { return id != NoID }
