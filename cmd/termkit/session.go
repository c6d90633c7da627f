package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"termkit/internal/codec"
	"termkit/internal/diag"
	"termkit/internal/diagfmt"
	"termkit/internal/observ"
	"termkit/internal/prof"
	"termkit/internal/source"
	"termkit/internal/term"
	"termkit/internal/trace"
)

// session is the per-invocation state shared by the commands: merged
// settings, the tracer and the phase timer.
type session struct {
	*settings
	tracer  trace.Tracer
	cleanup func(error)
	timer   *observ.Timer
	prof    *prof.Session
}

func startSession(cmd *cobra.Command) (*session, error) {
	st, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	profiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	tracer, cleanup, err := setupTracing(cmd, &st.cfg)
	if err != nil {
		_ = profiling.Stop()
		return nil, err
	}
	return &session{settings: st, tracer: tracer, cleanup: cleanup, timer: observ.NewTimer(), prof: profiling}, nil
}

// setupProfiling starts the profilers named by the persistent flags.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	root := cmd.Root()
	var opts prof.Options
	var err error
	if opts.CPU, err = root.PersistentFlags().GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = root.PersistentFlags().GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.RuntimeTrace, err = root.PersistentFlags().GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !opts.Enabled() {
		return nil, nil
	}
	return prof.Start(opts)
}

// newStore builds a store from the [store] section with the session tracer.
func (s *session) newStore() *term.Store {
	opts := s.cfg.StoreOptions()
	opts.Tracer = s.tracer
	return term.NewStore(opts)
}

// storeOptions is the template for stores created elsewhere.
func (s *session) storeOptions() term.Options {
	opts := s.cfg.StoreOptions()
	opts.Tracer = s.tracer
	return opts
}

// phase runs fn as a timed phase.
func (s *session) phase(name string, fn func() error) error {
	idx := s.timer.Begin(name)
	err := fn()
	s.timer.End(idx, "")
	return err
}

// finish prints timings when asked and releases the tracer. It returns
// runErr unchanged.
func (s *session) finish(w io.Writer, runErr error) error {
	if s.timings {
		fmt.Fprint(w, s.timer.Summary())
	}
	s.cleanup(runErr)
	if err := s.prof.Stop(); err != nil {
		fmt.Fprintf(w, "profile: %v\n", err)
	}
	return runErr
}

// reportReadError renders a parse error as a diagnostic on w and returns
// errReported. Other errors are returned as they are.
func (s *session) reportReadError(w io.Writer, err error, fs *source.FileSet) error {
	var perr *codec.ParseError
	if !errors.As(err, &perr) {
		return err
	}
	bag := diag.NewBag(s.maxDiagnostics)
	bag.Add(perr.Diag)
	diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{Color: s.color, Context: 1})
	return errReported
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
