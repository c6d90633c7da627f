package symbols

import "errors"

var (
	// ErrOversizedSymbol is returned when a symbol name exceeds the table limit.
	ErrOversizedSymbol = errors.New("symbol name too long")
	// ErrInvalidName is returned for unquoted names the text format cannot read back.
	ErrInvalidName = errors.New("invalid unquoted symbol name")
	// ErrInvalidArity is returned for negative arities.
	ErrInvalidArity = errors.New("invalid symbol arity")

	// ErrBadSymbol is the panic value for operations on unknown or evicted ids.
	ErrBadSymbol = errors.New("bad symbol id")
	// ErrUseCountUnderflow is the panic value for unbalanced Release/Unprotect.
	ErrUseCountUnderflow = errors.New("symbol count underflow")
)
