package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"termkit/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show termkit build fingerprints",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := readColorMode(colorMode, os.Stdout)
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	info := version.Current()
	if strings.TrimSpace(info.Version) == "" {
		info.Version = "dev"
	}

	switch strings.ToLower(format) {
	case "pretty":
		fmt.Fprint(cmd.OutOrStdout(), info.Pretty())
		return nil
	case "json":
		data, err := info.JSON()
		if err != nil {
			return fmt.Errorf("failed to encode version: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}
