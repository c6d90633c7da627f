package term

import "sync"

// Locked serialises access to a Store behind one coarse mutex. Every
// operation, including collection, runs inside Do.
type Locked struct {
	mu    sync.Mutex
	store *Store
}

// NewLocked wraps s. The caller must not use s directly afterwards.
func NewLocked(s *Store) *Locked {
	return &Locked{store: s}
}

// Do runs fn with exclusive access to the store.
func (l *Locked) Do(fn func(s *Store)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.store)
}
