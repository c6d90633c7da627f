package diagfmt

import (
	"termkit/internal/diag"
	"termkit/internal/source"
)

// location is where a diagnostic points, resolved for display.
type location struct {
	path string
	pos  source.LineCol
	file *source.File // nil when the diagnostic carries no span
	span source.Span
}

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}

func locate(d *diag.Diagnostic, fs *source.FileSet, mode PathMode) location {
	if d.HasSpan && fs != nil && int(d.Primary.File) < fs.Len() {
		f := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)
		return location{path: formatPath(f, fs, mode), pos: start, file: f, span: d.Primary}
	}
	loc := location{path: d.Path, pos: d.Pos}
	if loc.path != "" && mode == PathModeBasename {
		loc.path = source.BaseName(loc.path)
	}
	return loc
}

func noteLocation(n diag.Note, fs *source.FileSet, mode PathMode) (string, source.LineCol, bool) {
	if fs == nil || n.Span == (source.Span{}) || int(n.Span.File) >= fs.Len() {
		return "", source.LineCol{}, false
	}
	f := fs.Get(n.Span.File)
	start, _ := fs.Resolve(n.Span)
	return formatPath(f, fs, mode), start, true
}

func (l location) String() string {
	path := l.path
	if path == "" {
		path = "<input>"
	}
	if !l.pos.IsValid() {
		return path
	}
	return path + ":" + itoa(l.pos.Line) + ":" + itoa(l.pos.Col)
}
