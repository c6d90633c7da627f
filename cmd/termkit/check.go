package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"termkit/internal/diag"
	"termkit/internal/diagfmt"
	"termkit/internal/driver"
	"termkit/internal/trace"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.trm|directory>...",
	Short: "Parse and verify every term of the given files",
	Long: `Parse every term of every file, each file in its own store, and verify that
the terms print back to themselves and that the store stays consistent.
Directories are expanded to their *.trm files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "max parallel files (0 = from config, then GOMAXPROCS)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().String("cache", "", "result cache directory (\"auto\" for the user cache, \"off\" to disable; default from config)")
	checkCmd.Flags().Bool("no-lint", false, "skip lints, report only errors")
	checkCmd.Flags().String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().String("path-mode", "auto", "how to print file paths (auto|absolute|relative|basename)")
	checkCmd.Flags().String("ui", "auto", "progress display (auto|on|off)")
}

func runCheck(cmd *cobra.Command, args []string) (err error) {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}
	cacheFlag, err := cmd.Flags().GetString("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	noLint, err := cmd.Flags().GetBool("no-lint")
	if err != nil {
		return fmt.Errorf("failed to get no-lint flag: %w", err)
	}
	minSevStr, err := cmd.Flags().GetString("min-severity")
	if err != nil {
		return fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	minSev, ok := diag.ParseSeverity(minSevStr)
	if !ok {
		return fmt.Errorf("invalid --min-severity value %q (expected info|warning|error)", minSevStr)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q", pathModeStr)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	if jobs < 0 {
		return fmt.Errorf("--jobs must not be negative, got %d", jobs)
	}

	sess, err := startSession(cmd)
	if err != nil {
		return err
	}
	// таймеры идут в вывод как диагностика, не отдельной сводкой
	showTimings := sess.timings
	sess.timings = false
	defer func() { err = sess.finish(cmd.ErrOrStderr(), err) }()

	if jobs == 0 {
		jobs = sess.cfg.Check.Jobs
	}
	opts := driver.CheckOptions{
		Jobs:           jobs,
		MaxDiagnostics: sess.maxDiagnostics,
		Store:          sess.storeOptions(),
		NoLint:         noLint,
		Timer:          sess.timer,
	}
	if opts.Cache, err = openCache(cacheFlag, sess.cfg.Check.Cache); err != nil {
		return err
	}

	files, err := driver.ExpandPaths(args)
	if err != nil {
		return err
	}

	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "cmd:check")
	started := time.Now()
	var res *driver.CheckResult
	if shouldUseTUI(mode, format, os.Stderr) {
		res, err = runCheckWithUI(ctx, "termkit check", files, opts)
	} else {
		res, err = driver.Check(ctx, files, opts)
	}
	span.End("")
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	bag := res.Diagnostics(sess.maxDiagnostics)
	bag.Filter(minSev)
	if showTimings {
		bag.Add(sess.timer.Diagnostic())
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes || showTimings,
			IncludeContext:   true,
		})
		if err != nil {
			return fmt.Errorf("failed to write diagnostics: %w", err)
		}
	case "short":
		diagfmt.Short(out, bag, res.FileSet, pathMode)
	default:
		diagfmt.Pretty(out, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     sess.color,
			Context:   1,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
		writeCheckSummary(cmd, res, elapsed)
	}

	if res.HasErrors() {
		return errReported
	}
	return nil
}

// openCache picks the cache directory: the flag wins over the config, "off"
// disables caching, "auto" is the per-user cache directory.
func openCache(flagValue, configValue string) (*driver.DiskCache, error) {
	dir := flagValue
	if dir == "" {
		dir = configValue
	}
	switch dir {
	case "", "off":
		return nil, nil
	case "auto":
		dir = ""
	}
	cache, err := driver.OpenDiskCache(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return cache, nil
}

func writeCheckSummary(cmd *cobra.Command, res *driver.CheckResult, elapsed time.Duration) {
	var terms, cached, failed int
	for i := range res.Files {
		f := &res.Files[i]
		terms += f.Terms
		if f.Cached {
			cached++
		}
		if f.Bag.HasErrors() {
			failed++
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "checked %d files, %d terms (%d cached, %d failed) in %.1f ms\n",
		len(res.Files), terms, cached, failed, toMillis(elapsed))
}
