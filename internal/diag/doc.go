// Package diag defines the diagnostic model shared by the codec, the check
// driver and the CLI.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – compact numeric identifier (see codes.go) with a stable string
//     form such as SYN2001.
//   - Message – short human text.
//   - Path, Pos – file and 1-based line/column of the finding.
//   - Context – for parse errors, the last characters consumed before the
//     failure (at most 32 bytes).
//   - Primary – byte span when the input was loaded through a source.FileSet.
//
// # Emitting diagnostics
//
// Producers report through a Reporter. BagReporter aggregates into a Bag,
// which supports a limit, sorting, deduplication and severity filtering.
// Rendering lives in internal/diagfmt.
package diag
