package driver

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"termkit/internal/codec"
	"termkit/internal/diag"
	"termkit/internal/source"
	"termkit/internal/term"
)

// lintTerms reports quoted symbol names that are not in Unicode NFC and
// top-level terms that repeat an earlier one. Hash consing makes the
// duplicate check an id comparison.
func lintTerms(store *term.Store, terms []parsedTerm, file *source.File, bag *diag.Bag) {
	r := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	seenNames := make(map[string]struct{})
	first := make(map[term.ID]source.Span, len(terms))
	for _, pt := range terms {
		pos := file.LineCol(pt.span.Start)
		for _, name := range pt.quoted {
			if _, ok := seenNames[name]; ok {
				continue
			}
			seenNames[name] = struct{}{}
			if norm.NFC.IsNormalString(name) {
				continue
			}
			diag.ReportWarning(r, diag.LntNonNFCSymbol, file.Path,
				fmt.Sprintf("quoted symbol %q is not in Unicode NFC", name)).
				At(pt.span, pos).
				WithNote(source.Span{}, fmt.Sprintf("NFC form: %q", norm.NFC.String(name))).
				Emit()
		}

		if prev, ok := first[pt.id]; ok {
			diag.ReportWarning(r, diag.LntDuplicateTerm, file.Path,
				fmt.Sprintf("term %s repeats an earlier term", summary(store, pt.id))).
				At(pt.span, pos).
				WithNote(prev, "first occurrence").
				Emit()
			continue
		}
		first[pt.id] = pt.span
	}
}

// summary shortens long canonical texts for messages to at most 40
// display columns, never splitting a rune.
func summary(store *term.Store, id term.ID) string {
	const limit = 40
	text := codec.Print(store, id)
	if runewidth.StringWidth(text) <= limit {
		return text
	}
	return runewidth.Truncate(text, limit, "...")
}
