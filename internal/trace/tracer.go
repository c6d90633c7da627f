package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Tracer receives events from the store, the codec and the check driver.
// Implementations must accept Emit from several goroutines at once.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	// Close flushes and releases the output. The tracer is unusable after.
	Close() error
	Level() Level
	// Enabled is false when nothing would ever be written.
	Enabled() bool
}

// StorageMode selects where events go: straight to an output, into an
// in-memory ring dumped when a command fails, or both.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1
	ModeRing
	ModeBoth
)

// DefaultRingSize is the ring capacity used when Config.RingSize is unset.
const DefaultRingSize = 4096

var modeNames = map[string]StorageMode{
	"stream": ModeStream,
	"ring":   ModeRing,
	"both":   ModeBoth,
}

func (m StorageMode) String() string {
	for name, mode := range modeNames {
		if mode == m {
			return name
		}
	}
	return "unknown"
}

// ParseMode reads a [trace] mode setting. An empty value means ring.
func ParseMode(s string) (StorageMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeRing, nil
	}
	if m, ok := modeNames[s]; ok {
		return m, nil
	}
	return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// Config is the resolved [trace] section plus command line overrides.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format    // FormatAuto picks from OutputPath
	Output     io.Writer // takes precedence over OutputPath
	OutputPath string    // "" or "-" is stderr; parent dirs are created
	RingSize   int
}

// New builds the tracer described by cfg. A LevelOff config yields Nop
// without touching the output.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	switch cfg.Mode {
	case ModeRing:
		return NewRingTracer(cfg.ringSize(), cfg.Level), nil
	case ModeStream, ModeBoth:
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}

	w, err := cfg.sink()
	if err != nil {
		return nil, err
	}
	stream := NewStreamTracer(w, cfg.Level, cfg.format())
	if cfg.Mode == ModeStream {
		return stream, nil
	}
	return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.ringSize(), cfg.Level)), nil
}

func (cfg Config) ringSize() int {
	if cfg.RingSize <= 0 {
		return DefaultRingSize
	}
	return cfg.RingSize
}

func (cfg Config) format() Format {
	if cfg.Format != FormatAuto {
		return cfg.Format
	}
	return detectFormat(cfg.OutputPath)
}

// detectFormat maps trace file extensions to formats: .ndjson and .jsonl
// get NDJSON, anything else text.
func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	default:
		return FormatText
	}
}

func (cfg Config) sink() (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return stderrSink{os.Stderr}, nil
	}
	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trace directory: %w", err)
		}
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

// stderrSink marks a writer that StreamTracer.Close must leave open.
type stderrSink struct{ io.Writer }
