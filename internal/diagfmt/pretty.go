package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"termkit/internal/diag"
	"termkit/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку исходника с подчёркиванием ^~~~ по Span (или прочитанный
// контекст, если Span нет), затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		d := &items[i]
		loc := locate(d, fs, opts.PathMode)

		header := fmt.Sprintf("%s: %s %s: %s",
			loc, p.severity(d.Severity).Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), d.Message)
		fmt.Fprintln(w, clip(header, opts.Width))

		switch {
		case loc.file != nil:
			writeExcerpt(w, p, loc, opts)
		case d.Context != "":
			fmt.Fprintf(w, "  %s %s\n", p.gutter.Sprint("|"), clip(quoteContext(d.Context), opts.Width))
			fmt.Fprintf(w, "  %s %s%s\n", p.gutter.Sprint("|"),
				strings.Repeat(" ", runewidth.StringWidth(quoteContext(d.Context))-1), p.caret.Sprint("^"))
		}

		if opts.ShowNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				if path, pos, ok := noteLocation(n, fs, opts.PathMode); ok {
					fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n", p.note.Sprint("note"), path, pos.Line, pos.Col, n.Msg)
					continue
				}
				fmt.Fprintf(w, "  %s: %s\n", p.note.Sprint("note"), n.Msg)
			}
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "... %d more diagnostics not shown\n", dropped)
	}
}

// writeExcerpt prints the lines around the primary span with a caret
// line under the first one.
func writeExcerpt(w io.Writer, p palette, loc location, opts PrettyOpts) {
	f := loc.file
	first := loc.pos.Line
	from := first
	if n := uint32(max(opts.Context, 0)); from > n {
		from -= n
	} else {
		from = 1
	}
	to := first + uint32(max(opts.Context, 0))
	lastLine := uint32(len(f.LineIdx)) + 1

	digits := len(strconv.FormatUint(uint64(min(to, lastLine)), 10))
	gutter := func(num string) string {
		return p.gutter.Sprint(fmt.Sprintf("%*s |", digits, num))
	}
	for ln := from; ln <= to && ln <= lastLine; ln++ {
		text := strings.TrimRight(f.GetLine(ln), "\r")
		if text == "" && ln != first && ln == lastLine {
			break
		}
		fmt.Fprintf(w, "%s %s\n", gutter(itoa(ln)), clip(expandTabs(text), opts.Width))
		if ln != first {
			continue
		}

		// ширина в колонках терминала, а не в байтах
		col := int(loc.pos.Col) - 1
		if col > len(text) {
			col = len(text)
		}
		pad := runewidth.StringWidth(expandTabs(text[:col]))
		spanLen := int(loc.span.End) - int(loc.span.Start)
		rest := text[col:]
		if spanLen > len(rest) {
			spanLen = len(rest)
		}
		width := max(runewidth.StringWidth(expandTabs(rest[:max(spanLen, 0)])), 1)
		marker := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, "%s %s%s\n", gutter(""), strings.Repeat(" ", pad), p.caret.Sprint(marker))
	}
}

// Short prints one line per diagnostic: <path>:<line>:<col>: <SEV> <CODE>: <Message>.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	items := bag.Items()
	for i := range items {
		d := &items[i]
		fmt.Fprintf(w, "%s: %s %s: %s\n", locate(d, fs, mode), d.Severity, d.Code.ID(), d.Message)
	}
}

func quoteContext(ctx string) string {
	q := strconv.Quote(ctx)
	return q[1 : len(q)-1]
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "...")
}

func itoa(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}
