package term

import "errors"

// Panic values for invariant violations. They are always wrapped with
// the offending ids; match them with errors.Is after recover.
var (
	ErrArityMismatch = errors.New("argument count does not match symbol arity")
	ErrInvalidTerm   = errors.New("invalid term")
	ErrBadRootHandle = errors.New("bad root handle")
	ErrCollecting    = errors.New("store is collecting")
	ErrCorruptStore  = errors.New("corrupt term store")
)
