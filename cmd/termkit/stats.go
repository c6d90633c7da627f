package main

import (
	"cmp"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"termkit/internal/codec"
	"termkit/internal/source"
	"termkit/internal/term"
)

var statsCmd = &cobra.Command{
	Use:   "stats [file|-]",
	Short: "Measure one term and the store holding it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "emit machine-readable JSON")
	statsCmd.Flags().Int("top", 10, "number of symbols to list (0 = all)")
}

type symbolRow struct {
	Symbol string `json:"symbol"`
	Nodes  int    `json:"nodes"`
}

type storeRow struct {
	Nodes       int    `json:"nodes"`
	FreeSlots   int    `json:"free_slots"`
	Capacity    int    `json:"capacity"`
	Symbols     int    `json:"symbols"`
	Collections uint64 `json:"collections"`
	Marked      int    `json:"marked"`
	Swept       int    `json:"swept"`
	Evicted     int    `json:"symbols_evicted"`
}

type statsPayload struct {
	Path              string      `json:"path"`
	Subterms          int         `json:"subterms"`
	UniqueSubterms    int         `json:"unique_subterms"`
	Depth             int         `json:"depth"`
	UniqueSymbols     int         `json:"unique_symbols"`
	SymbolOccurrences int         `json:"symbol_occurrences"`
	NaiveOccurrences  int         `json:"naive_occurrences"`
	Checksum          string      `json:"checksum"`
	Symbols           []symbolRow `json:"symbols"`
	Store             storeRow    `json:"store"`
}

func runStats(cmd *cobra.Command, args []string) (err error) {
	input := "-"
	if len(args) == 1 {
		input = args[0]
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return fmt.Errorf("failed to get top flag: %w", err)
	}

	sess, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer func() { err = sess.finish(cmd.ErrOrStderr(), err) }()

	fileSet := source.NewFileSet()
	fileID, err := fileSet.Load(input)
	if err != nil {
		return err
	}
	file := fileSet.Get(fileID)

	store := sess.newStore()
	var id term.ID
	err = sess.phase("parse", func() error {
		var readErr error
		id, readErr = codec.NewFileReader(store, file).ReadTerm()
		return readErr
	})
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: no term in input", file.Path)
	}
	if err != nil {
		return sess.reportReadError(cmd.ErrOrStderr(), err, fileSet)
	}

	var payload statsPayload
	_ = sess.phase("inspect", func() error {
		payload = inspectTerm(store, id, top)
		return nil
	})
	payload.Path = file.Path

	_ = sess.phase("collect", func() error {
		h := store.Protect(id)
		gc := store.Collect()
		st := store.Stats()
		store.Unprotect(h)
		payload.Store = storeRow{
			Nodes:       st.Nodes,
			FreeSlots:   st.FreeSlots,
			Capacity:    st.Capacity,
			Symbols:     st.Symbols,
			Collections: st.Collections,
			Marked:      gc.Marked,
			Swept:       gc.Swept,
			Evicted:     gc.SymbolsEvicted,
		}
		return nil
	})

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}
	renderStats(out, &payload)
	return nil
}

// inspectTerm gathers the per-term measures and the symbol census, most
// frequent symbols first.
func inspectTerm(store *term.Store, id term.ID, top int) statsPayload {
	census := store.CountSymbols(id)
	sum := codec.Checksum(store, id)
	p := statsPayload{
		Subterms:          store.Subterms(id),
		UniqueSubterms:    store.UniqueSubterms(id),
		Depth:             store.Depth(id),
		UniqueSymbols:     census.Unique,
		SymbolOccurrences: census.Occurrences,
		NaiveOccurrences:  store.NaiveSymbolOccurrences(id),
		Checksum:          hex.EncodeToString(sum[:]),
	}
	for key, n := range census.PerSymbol {
		p.Symbols = append(p.Symbols, symbolRow{Symbol: symbolKeyName(store, key), Nodes: n})
	}
	slices.SortFunc(p.Symbols, func(a, b symbolRow) int {
		if c := cmp.Compare(b.Nodes, a.Nodes); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	if top > 0 && len(p.Symbols) > top {
		p.Symbols = p.Symbols[:top]
	}
	return p
}

func symbolKeyName(store *term.Store, key term.SymbolKey) string {
	switch key.Tag {
	case term.TagAppl:
		return fmt.Sprintf("%s/%d", codec.AppendSymbol(nil, store.Symbols(), key.Sym), store.Symbols().Arity(key.Sym))
	case term.TagInt:
		return "<int>"
	case term.TagList:
		return "<list>"
	case term.TagEmpty:
		return "<empty>"
	default:
		return "<" + key.Tag.String() + ">"
	}
}

func renderStats(w io.Writer, p *statsPayload) {
	fmt.Fprintf(w, "%s\n", p.Path)
	fmt.Fprintf(w, "  subterms         %d\n", p.Subterms)
	fmt.Fprintf(w, "  unique subterms  %d\n", p.UniqueSubterms)
	fmt.Fprintf(w, "  depth            %d\n", p.Depth)
	fmt.Fprintf(w, "  symbols          %d unique, %d occurrences (%d naive)\n",
		p.UniqueSymbols, p.SymbolOccurrences, p.NaiveOccurrences)
	fmt.Fprintf(w, "  checksum         %s\n", p.Checksum)
	for _, row := range p.Symbols {
		fmt.Fprintf(w, "    %-24s %d\n", row.Symbol, row.Nodes)
	}
	fmt.Fprintf(w, "store after collection\n")
	fmt.Fprintf(w, "  nodes %d, free %d, capacity %d, symbols %d\n",
		p.Store.Nodes, p.Store.FreeSlots, p.Store.Capacity, p.Store.Symbols)
	fmt.Fprintf(w, "  collections %d (last: marked %d, swept %d, evicted %d symbols)\n",
		p.Store.Collections, p.Store.Marked, p.Store.Swept, p.Store.Evicted)
}
