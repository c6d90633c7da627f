// Package testkit holds assertions shared by the tests of the store, the
// codec and the driver.
package testkit

import (
	"fmt"

	"termkit/internal/codec"
	"termkit/internal/term"
)

// CheckStoreInvariants runs Store.Validate and a few cheap cross-checks on
// the occupancy counters:
// 1) the store's own structural invariants hold
// 2) live nodes plus free slots account for the whole arena
// 3) the empty list is alive
func CheckStoreInvariants(s *term.Store) error {
	if s == nil {
		return fmt.Errorf("nil store")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	st := s.Stats()
	if st.Nodes+st.FreeSlots != st.Capacity {
		return fmt.Errorf("arena accounting: %d live + %d free != %d slots", st.Nodes, st.FreeSlots, st.Capacity)
	}
	if !s.Valid(s.Empty()) {
		return fmt.Errorf("empty list is not alive")
	}
	return nil
}

// CheckRoundTrip prints id, reads the text back into the same store and
// into a fresh one, and reports any difference. id must be protected or
// otherwise reachable if the store may collect during the read.
func CheckRoundTrip(s *term.Store, id term.ID) error {
	text := codec.Print(s, id)
	back, err := codec.ParseExact(s, text)
	if err != nil {
		return fmt.Errorf("canonical text %q does not parse: %w", text, err)
	}
	if back != id {
		return fmt.Errorf("canonical text %q reads back as term %d, want %d", text, back, id)
	}

	fresh := term.NewStore(term.Options{})
	other, err := codec.ParseExact(fresh, text)
	if err != nil {
		return fmt.Errorf("canonical text %q does not parse in a fresh store: %w", text, err)
	}
	if got := codec.Print(fresh, other); got != text {
		return fmt.Errorf("fresh store prints %q, want %q", got, text)
	}
	if codec.Checksum(fresh, other) != codec.Checksum(s, id) {
		return fmt.Errorf("checksum of %q differs between stores", text)
	}
	return nil
}
