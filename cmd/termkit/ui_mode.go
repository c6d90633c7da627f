package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode selects the check progress display.
type uiMode uint8

const (
	uiModeAuto uiMode = iota
	uiModeOn
	uiModeOff
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return uiModeAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides whether to run the progress model on out. Auto
// mode needs a real terminal and a machine-unfriendly output format.
func shouldUseTUI(mode uiMode, format string, out *os.File) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	if format == "json" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return out != nil && isTerminal(out)
}
