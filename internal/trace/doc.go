// Package trace provides structured event tracing for termkit.
//
// The store, the codec driver and the CLI emit spans and point events
// through a Tracer so collections, per-file checks and slow reads can be
// inspected after the fact.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	termkit check --trace=- --trace-level=detail terms/*.trm
//
// # Architecture
//
//   - Nop: zero-overhead tracer used when tracing is disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped on failure
//   - MultiTracer: fan-out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: driver and store-wide events (collections)
//   - LevelDetail: per-file events
//   - LevelDebug: everything including per-term events
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStore, "gc", parentID)
//	defer span.End("")
package trace
