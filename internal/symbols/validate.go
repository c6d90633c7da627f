package symbols

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// Validate checks that the name index, the arena and the free list agree.
// Returns nil if everything is consistent; otherwise aggregates all issues.
func (t *Table) Validate() error {
	var errs []error

	live := 0
	for idx := 1; idx < len(t.data); idx++ {
		e := t.data[idx]
		if !e.live {
			continue
		}
		live++
		id := toID(idx)
		got, ok := t.index[key{name: e.name, arity: e.arity, quoted: e.quoted}]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("symbol %d (%s) missing from index", id, t.String(id)))
		case got != id:
			errs = append(errs, fmt.Errorf("symbol %d (%s) indexed as %d", id, t.String(id), got))
		}
		if !e.quoted && !ValidUnquoted(e.name) {
			errs = append(errs, fmt.Errorf("symbol %d has unreadable unquoted name %q", id, e.name))
		}
	}
	if live != t.live {
		errs = append(errs, fmt.Errorf("live counter %d, arena holds %d", t.live, live))
	}
	if len(t.index) != live {
		errs = append(errs, fmt.Errorf("index holds %d entries, arena holds %d", len(t.index), live))
	}

	seen := make(map[ID]struct{}, len(t.free))
	for _, id := range t.free {
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("symbol %d appears twice on the free list", id))
		}
		seen[id] = struct{}{}
		if !id.IsValid() || int(id) >= len(t.data) {
			errs = append(errs, fmt.Errorf("free list holds out-of-range id %d", id))
			continue
		}
		if t.data[id].live {
			errs = append(errs, fmt.Errorf("free list holds live symbol %d", id))
		}
	}

	return errors.Join(errs...)
}

func toID(idx int) ID {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		panic(fmt.Errorf("symbol index %d overflow: %w", idx, err))
	}
	return ID(value)
}
