package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"termkit/internal/config"
)

// settings is the configuration file merged with the global flags.
type settings struct {
	cfg            config.Config
	color          bool
	timings        bool
	maxDiagnostics int
}

// loadSettings resolves termkit.toml (or --config) and applies the global
// flags on top of it. Flags win over the file.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Root().PersistentFlags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Resolve(configPath, wd)
	if err != nil {
		return nil, err
	}

	colorMode, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := readColorMode(colorMode, os.Stderr)
	if err != nil {
		return nil, err
	}
	// fatih/color решает сам по NO_COLOR и TTY, флаг имеет приоритет
	color.NoColor = !useColor

	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}

	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiagnostics < 0 {
		return nil, fmt.Errorf("--max-diagnostics must not be negative, got %d", maxDiagnostics)
	}
	if maxDiagnostics == 0 {
		maxDiagnostics = cfg.Check.MaxDiagnostics
	}

	return &settings{
		cfg:            cfg,
		color:          useColor,
		timings:        timings,
		maxDiagnostics: maxDiagnostics,
	}, nil
}

func readColorMode(value string, f *os.File) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return os.Getenv("NO_COLOR") == "" && isTerminal(f), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}
