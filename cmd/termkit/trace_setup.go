package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"termkit/internal/config"
	"termkit/internal/trace"
)

// setupTracing merges the trace flags over the [trace] section and
// initializes the tracer. The tracer is attached to the command context;
// the returned cleanup stops the heartbeat and flushes the output. When the
// command failed, a ring buffer is dumped to stderr.
func setupTracing(cmd *cobra.Command, cfg *config.Config) (trace.Tracer, func(error), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}

	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}

	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}

	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	merged := cfg.Trace
	if traceOutput != "" {
		merged.Output = traceOutput
		// --trace без уровня включает фазы
		if levelStr == "" && merged.Level == "off" {
			merged.Level = "phase"
		}
	}
	if levelStr != "" {
		merged.Level = levelStr
	}
	if modeStr != "" {
		merged.Mode = modeStr
	}
	if ringSize > 0 {
		merged.RingSize = ringSize
	}

	view := config.Config{Trace: merged}
	traceCfg, err := view.TraceOptions()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace settings: %w", err)
	}

	if traceCfg.Level == trace.LevelOff {
		ctx := trace.WithTracer(cmd.Context(), trace.Nop)
		cmd.SetContext(ctx)
		return trace.Nop, func(error) {}, nil
	}

	tracer, err := trace.New(traceCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	cleanup := func(runErr error) {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if runErr != nil {
			if ring := ringOf(tracer); ring != nil {
				if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
				}
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}

	return tracer, cleanup, nil
}

func ringOf(t trace.Tracer) *trace.RingTracer {
	switch t := t.(type) {
	case *trace.RingTracer:
		return t
	case *trace.MultiTracer:
		return t.Ring()
	default:
		return nil
	}
}
