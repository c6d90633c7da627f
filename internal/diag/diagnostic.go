package diag

import (
	"termkit/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one finding about a term file.
//
// Pos and Context are filled by producers that track positions themselves
// (the stream reader has no FileSet); Primary is set when the input came
// from a FileSet and lets renderers show the source line.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Path     string
	Primary  source.Span
	HasSpan  bool
	Pos      source.LineCol
	Context  string // last consumed characters before the failure
	Notes    []Note
}

func New(sev Severity, code Code, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Message: msg}
}

func NewError(code Code, msg string) Diagnostic {
	return New(SevError, code, msg)
}

func (d Diagnostic) WithSpan(sp source.Span) Diagnostic {
	d.Primary = sp
	d.HasSpan = true
	return d
}

func (d Diagnostic) WithPos(pos source.LineCol, context string) Diagnostic {
	d.Pos = pos
	d.Context = context
	return d
}

func (d Diagnostic) WithPath(path string) Diagnostic {
	d.Path = path
	return d
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
