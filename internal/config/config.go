// Package config loads termkit.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"termkit/internal/term"
	"termkit/internal/trace"
)

// FileName is the name looked up by Find.
const FileName = "termkit.toml"

// ErrUnknownKeys reports keys the file sets that no section defines.
var ErrUnknownKeys = errors.New("unknown keys")

// StoreConfig is the [store] section.
type StoreConfig struct {
	InitialCapacity int  `toml:"initial_capacity"`
	HighWater       int  `toml:"high_water"`
	MaxSymbolLength int  `toml:"max_symbol_length"`
	EvictSymbols    bool `toml:"evict_symbols"`
}

// CheckConfig is the [check] section.
type CheckConfig struct {
	Jobs           int    `toml:"jobs"`  // 0 - по числу CPU
	Cache          string `toml:"cache"` // каталог кеша, пусто - без кеша
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

// TraceConfig is the [trace] section.
type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

// Config is the whole file. Path is where it was loaded from, empty for
// defaults.
type Config struct {
	Store StoreConfig `toml:"store"`
	Check CheckConfig `toml:"check"`
	Trace TraceConfig `toml:"trace"`

	Path string `toml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Store: StoreConfig{
			HighWater:    term.DefaultHighWater,
			EvictSymbols: true,
		},
		Check: CheckConfig{
			MaxDiagnostics: 100,
		},
		Trace: TraceConfig{
			Level:    "off",
			Mode:     "stream",
			Output:   "-",
			RingSize: 4096,
		},
	}
}

// Find walks up from startDir to locate termkit.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path over the defaults. Keys missing from the file keep
// their default; keys the file sets but no section knows are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Resolve loads explicit when it is set, otherwise the nearest
// termkit.toml above startDir, otherwise the defaults.
func Resolve(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks ranges and enumerations of every section.
func (c *Config) Validate() error {
	var errs []error
	if c.Store.InitialCapacity < 0 {
		errs = append(errs, fmt.Errorf("store.initial_capacity must not be negative, got %d", c.Store.InitialCapacity))
	}
	if c.Store.HighWater < 0 {
		errs = append(errs, fmt.Errorf("store.high_water must not be negative, got %d", c.Store.HighWater))
	}
	if c.Store.MaxSymbolLength < 0 {
		errs = append(errs, fmt.Errorf("store.max_symbol_length must not be negative, got %d", c.Store.MaxSymbolLength))
	}
	if c.Check.Jobs < 0 {
		errs = append(errs, fmt.Errorf("check.jobs must not be negative, got %d", c.Check.Jobs))
	}
	if c.Check.MaxDiagnostics < 1 {
		errs = append(errs, fmt.Errorf("check.max_diagnostics must be positive, got %d", c.Check.MaxDiagnostics))
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("trace.level: %w", err))
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		errs = append(errs, fmt.Errorf("trace.mode: %w", err))
	}
	if c.Trace.RingSize < 1 {
		errs = append(errs, fmt.Errorf("trace.ring_size must be positive, got %d", c.Trace.RingSize))
	}
	return errors.Join(errs...)
}

// StoreOptions maps the [store] section onto term.Options. The tracer is
// left for the caller.
func (c *Config) StoreOptions() term.Options {
	return term.Options{
		InitialCapacity:   uint(c.Store.InitialCapacity),
		HighWater:         c.Store.HighWater,
		MaxSymbolLen:      c.Store.MaxSymbolLength,
		KeepUnusedSymbols: !c.Store.EvictSymbols,
	}
}

// TraceOptions maps the [trace] section onto trace.Config.
func (c *Config) TraceOptions() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}
