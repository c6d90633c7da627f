package codec

import (
	"fmt"

	"termkit/internal/diag"
)

// ParseError is returned by ReadTerm for malformed or truncated input.
// Diag carries the code, position and the recently consumed characters.
type ParseError struct {
	Diag diag.Diagnostic
	Err  error // underlying cause, e.g. symbols.ErrOversizedSymbol
}

// Error renders "parse error at line L, col C:" and the recent input.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, col %d: %s", e.Diag.Pos.Line, e.Diag.Pos.Col, e.Diag.Context)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Code returns the diagnostic code of the failure.
func (e *ParseError) Code() diag.Code { return e.Diag.Code }
