// --- START OF FINAL REVISED FILE cmd/stack-formatter/root.go ---
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stackvity/stack-formatter/internal/cli"
	"github.com/stackvity/stack-formatter/internal/cli/config"
	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/cache"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	cfgFile     string
	profileName string
	verbose     bool
}

// newRootCmd builds the command tree. A bare invocation behaves like format.
func newRootCmd() *cobra.Command {
	ro := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "stack-formatter [paths...]",
		Short: "Formats Python sources with a pool of concurrent workers.",
		Long: `stack-formatter fixes PEP 8 issues in files or selected line ranges.

Jobs run on a bounded pool of workers and their results are folded into one
report: a diff in preview mode, or changes written back to their origin.
Files that were already clean are remembered in a content-hash cache, and
the watch command formats files as soon as they are saved.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error { // minimal comment
			return runFormat(cmd, ro, args)
		},
	}
	rootCmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&ro.cfgFile, "config", "", "Configuration file path (default is search standard locations like ., $HOME/.config/stack-formatter/)")
	pf.StringVar(&ro.profileName, "profile", "", "Name of configuration profile to use")
	pf.BoolVarP(&ro.verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables TUI)")

	// Formatting options
	pf.StringSlice("ignore", nil, "Rule ids or prefixes to ignore (e.g. E501,W6)")
	pf.StringSlice("select", nil, "Rule ids or prefixes to fix exclusively")
	pf.Int("max-line-length", formatter.DefaultMaxLineLength, "Maximum allowed line length")
	pf.Int("indent-size", formatter.DefaultIndentSize, "Number of spaces per indentation level")
	pf.CountP("aggressive", "a", "Enable aggressive fixes; repeat to raise the level")
	pf.Bool("hang-closing", false, "Hang closing brackets")
	pf.StringSlice("exclude", nil, "Glob patterns for files/directories to exclude (can be specified multiple times)")
	pf.String("global-config", "", "Path to a global pep8 configuration file")
	pf.Bool("ignore-local-config", false, "Ignore project-local pep8 configuration")
	pf.Bool("preview", false, "Show a diff instead of applying changes")
	pf.Bool("avoid-new-line", false, "Strip the trailing newline from formatted line ranges")

	// Pipeline
	pf.Int("max-threads", formatter.DefaultMaxWorkers, "Number of concurrent workers")
	pf.Int("diff-min-lines", formatter.DefaultMinDiffLines, "Smallest preview diff reported as a change")
	pf.Bool("show-output-panel", formatter.DefaultShowOutputPanel, "Reveal the diagnostics panel when issues remain unfixed")

	// Files & languages
	pf.StringSlice("syntax-list", formatter.DefaultSyntaxList, "Languages eligible for formatting")
	pf.String("encoding", formatter.DefaultEncoding, "Encoding used to read and write files")

	// Engine
	pf.String("engine", string(formatter.DefaultEngineName), `Formatting engine ("builtin" or "exec")`)
	pf.StringSlice("engine-command", nil, "Command line of the exec engine (e.g. autopep8)")
	pf.String("engine-protocol", string(formatter.DefaultEngineProtocol), `Exec engine protocol ("args" or "json")`)
	pf.Duration("engine-timeout", 0, "Per-job timeout of the exec engine (0 uses the configured default)")

	// Output & caching
	pf.String("output-format", string(formatter.DefaultOutputFormat), `Final report format ("text", "json", "yaml", "toml")`)
	pf.String("template", "", "Path to a custom Go template file for the text report")
	pf.String("cache-format", cache.CacheFormatGob, `Cache file encoding ("gob", "json", "msgpack")`)
	pf.Bool("no-cache", false, "Force reformatting by ignoring cache reads (still writes cache)")
	pf.Bool("clear-cache", false, "Delete the cache file before starting")
	pf.Bool("no-tui", false, "Disable interactive Terminal UI even if in a TTY")
	pf.Bool("debug", formatter.DefaultVerbose, "Log at debug level")
	pf.String("logfile", "", "Append logs to this file instead of stderr")

	// Workflow
	pf.Bool("format-on-save", false, "Keep watching paths after formatting them")
	pf.String("watch-debounce", formatter.DefaultWatchDebounceString, "Watch debounce duration string (e.g., '300ms', '1s')")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address while watching (e.g. :9090)")
	pf.Bool("git-diff-only", false, "Format only files changed in the Git index/working tree vs HEAD")
	pf.String("git-since", "", "Format only files changed since the specified Git reference (commit/tag/branch)")

	rootCmd.AddCommand(newFormatCmd(ro), newRegionCmd(ro), newWatchCmd(ro))
	return rootCmd
}

func newFormatCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "format [paths...]",
		Short: "Format files and directories (default \".\")",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, ro, args)
		},
	}
}

func newRegionCmd(ro *rootOptions) *cobra.Command {
	var lines []string
	cmd := &cobra.Command{
		Use:   "region <file>",
		Short: "Format line ranges of one file",
		Long: `Formats the given 1-based inclusive line ranges of a file in memory and
saves it when something changed. Without --lines the whole file is formatted.`,
		Example: "  stack-formatter region app.py --lines 3-10 --lines 42",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := loadConfig(cmd, ro)
			if err != nil {
				return err
			}
			defer cfg.Close()

			_, err = cli.RunRegion(ctx, cfg, args[0], lines, newStreams(cmd))
			return err
		},
	}
	cmd.Flags().StringSliceVar(&lines, "lines", nil, `Line range to format, "N" or "N-M" (repeatable)`)
	return cmd
}

func newWatchCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Format files whenever they are saved",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := loadConfig(cmd, ro)
			if err != nil {
				return err
			}
			defer cfg.Close()

			return cli.RunWatch(ctx, cfg, args, newStreams(cmd))
		},
	}
}

// runFormat formats args once and, with format-on-save, keeps watching them.
func runFormat(cmd *cobra.Command, ro *rootOptions, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd, ro)
	if err != nil {
		return err
	}
	defer cfg.Close()

	streams := newStreams(cmd)
	_, err = cli.RunFormat(ctx, cfg, args, streams)
	if !cfg.FormatOnSave {
		return err
	}
	if err != nil && !errors.Is(err, cli.ErrJobsFailed) {
		return err
	}
	return cli.RunWatch(ctx, cfg, args, streams)
}

func loadConfig(cmd *cobra.Command, ro *rootOptions) (*config.Config, error) {
	// config.LoadAndValidate logs the specific error itself
	cfg, _, err := config.LoadAndValidate(ro.cfgFile, ro.profileName, version, ro.verbose, cmd.Flags())
	return cfg, err
}

// newStreams binds the command's writers; the TUI and progress bar are only
// used when stderr is a terminal.
func newStreams(cmd *cobra.Command) cli.Streams {
	errOut := cmd.ErrOrStderr()
	isTTY := false
	if f, ok := errOut.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return cli.Streams{Out: cmd.OutOrStdout(), Err: errOut, IsTTY: isTTY}
}

// Execute runs the command tree. Cobra prints the error; the exit code is 1.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// --- END OF FINAL REVISED FILE cmd/stack-formatter/root.go ---
