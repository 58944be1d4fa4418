// --- START OF FINAL REVISED FILE internal/cli/runner/runner.go ---

// Package runner executes an external formatting engine as a subprocess.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/plugin"
)

const (
	// maxLogOutputBytes limits the size of stdout/stderr captured in logs on decode errors.
	maxLogOutputBytes = 1024
	// maxEngineReadBytes caps stdout/stderr capture per call.
	maxEngineReadBytes = 10 * 1024 * 1024
	// waitDelay bounds how long Wait blocks on pipes held open by grandchildren after a kill.
	waitDelay = 2 * time.Second
)

// ExecEngine implements formatter.FormattingEngine by running a command once per job.
// It is safe for concurrent use.
type ExecEngine struct {
	command  []string
	protocol formatter.EngineProtocol
	timeout  time.Duration
	config   map[string]any
	logger   *slog.Logger
}

var _ formatter.FormattingEngine = (*ExecEngine)(nil)

// NewExecEngine creates an engine for command. A zero timeout disables the per-call limit.
func NewExecEngine(command []string, protocol formatter.EngineProtocol, timeout time.Duration, config map[string]any, loggerHandler slog.Handler) (*ExecEngine, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, fmt.Errorf("%w: engine command cannot be empty", formatter.ErrConfigValidation)
	}
	switch protocol {
	case formatter.EngineProtocolArgs, formatter.EngineProtocolJSON:
	case "":
		protocol = formatter.DefaultEngineProtocol
	default:
		return nil, fmt.Errorf("%w: unsupported engine protocol '%s'", formatter.ErrConfigValidation, protocol)
	}
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	return &ExecEngine{
		command:  append([]string(nil), command...),
		protocol: protocol,
		timeout:  timeout,
		config:   config,
		logger:   slog.New(loggerHandler).With(slog.String("component", "engineRunner")),
	}, nil
}

// BuildArgs renders opts as autopep8-compatible flags reading from stdin.
func BuildArgs(opts *formatter.FormatOptions) []string {
	var args []string
	if ignore := opts.Ignore(); len(ignore) > 0 {
		args = append(args, "--ignore="+strings.Join(ignore, ","))
	}
	if sel := opts.Select(); len(sel) > 0 {
		args = append(args, "--select="+strings.Join(sel, ","))
	}
	args = append(args,
		"--max-line-length="+strconv.Itoa(opts.MaxLineLength()),
		"--indent-size="+strconv.Itoa(opts.IndentSize()),
	)
	for i := 0; i < opts.Aggressive(); i++ {
		args = append(args, "-a")
	}
	if opts.HangClosing() {
		args = append(args, "--hang-closing")
	}
	if gc := opts.GlobalConfig(); gc != "" {
		args = append(args, "--global-config="+gc)
	}
	if opts.IgnoreLocalConfig() {
		args = append(args, "--ignore-local-config")
	}
	return append(args, "-vv", "-")
}

// Format implements formatter.FormattingEngine.
func (e *ExecEngine) Format(ctx context.Context, source string, opts *formatter.FormatOptions, diagnostics io.Writer) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if e.protocol == formatter.EngineProtocolJSON {
		return e.formatJSON(ctx, source, opts, diagnostics)
	}
	return e.formatArgs(ctx, source, opts, diagnostics)
}

func (e *ExecEngine) formatArgs(ctx context.Context, source string, opts *formatter.FormatOptions, diagnostics io.Writer) (string, error) {
	args := append(append([]string(nil), e.command[1:]...), BuildArgs(opts)...)
	stdout, stderr, err := e.run(ctx, args, []byte(source))
	// autopep8 writes its verbose report to stderr
	if len(stderr) > 0 {
		_, _ = diagnostics.Write(stderr)
	}
	if err != nil {
		return "", err
	}
	if len(stdout) == 0 && source != "" {
		e.logger.Error("Engine returned empty output", slog.String("command", e.command[0]))
		return "", plugin.WrapEngineError(formatter.ErrEngineBadOutput, "engine '%s' returned empty stdout", e.command[0])
	}
	return string(stdout), nil
}

func (e *ExecEngine) formatJSON(ctx context.Context, source string, opts *formatter.FormatOptions, diagnostics io.Writer) (string, error) {
	input, err := json.Marshal(plugin.NewEngineInput(source, opts, e.config))
	if err != nil {
		return "", plugin.WrapEngineError(formatter.ErrEngineBadOutput, "failed to marshal input for engine '%s': %v", e.command[0], err)
	}
	stdout, stderr, err := e.run(ctx, e.command[1:], input)
	if err != nil {
		if len(stderr) > 0 {
			_, _ = diagnostics.Write(stderr)
		}
		return "", err
	}
	if len(stdout) == 0 {
		e.logger.Error("Engine returned empty output", slog.String("command", e.command[0]))
		return "", plugin.WrapEngineError(formatter.ErrEngineBadOutput, "engine '%s' returned empty stdout", e.command[0])
	}

	var output plugin.EngineOutput
	if err := json.Unmarshal(stdout, &output); err != nil {
		prefix := string(stdout)
		if len(prefix) > maxLogOutputBytes {
			prefix = prefix[:maxLogOutputBytes] + "... (truncated)"
		}
		e.logger.Error("Failed to unmarshal engine output JSON", slog.Any("error", err), slog.String("stdout_prefix", prefix))
		return "", plugin.WrapEngineError(formatter.ErrEngineBadOutput, "failed to unmarshal JSON output from engine '%s': %v", e.command[0], err)
	}
	if output.Diagnostics != "" {
		_, _ = io.WriteString(diagnostics, output.Diagnostics)
	}
	if len(stderr) > 0 {
		e.logger.Debug("Engine stderr output (on success)", slog.String("engine_stderr", strings.TrimSpace(string(stderr))))
	}
	if err := output.Validate(); err != nil {
		e.logger.Error("Engine output rejected", slog.Any("error", err))
		return "", err
	}
	return output.Formatted, nil
}

// run starts the command, feeds stdin and collects stdout/stderr up to maxEngineReadBytes.
func (e *ExecEngine) run(ctx context.Context, args []string, stdin []byte) ([]byte, []byte, error) {
	name := e.command[0]
	logArgs := []any{slog.String("command", name)}

	stdout := &limitedBuffer{limit: maxEngineReadBytes}
	stderr := &limitedBuffer{limit: maxEngineReadBytes}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		e.logger.Error("Failed to start engine process", append(logArgs, slog.Any("error", err))...)
		return nil, nil, plugin.Errorf("failed to start engine '%s': %w", name, err)
	}
	waitErr := cmd.Wait()

	stderrData := stderr.Bytes()
	if s := strings.TrimSpace(string(stderrData)); s != "" {
		logArgs = append(logArgs, slog.String("engine_stderr", s))
	}
	if stderr.truncated {
		e.logger.Warn("Engine stderr truncated", append(logArgs, slog.Int("limit_bytes", maxEngineReadBytes))...)
	}

	if ctx.Err() != nil {
		e.logger.Error("Engine execution cancelled or timed out", append(logArgs, slog.Any("error", ctx.Err()))...)
		return nil, stderrData, plugin.WrapEngineError(formatter.ErrEngineTimeout, "engine '%s' execution cancelled or timed out: %v", name, ctx.Err())
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			e.logger.Error("Engine I/O failed", append(logArgs, slog.Any("error", waitErr))...)
			return nil, stderrData, plugin.Errorf("engine '%s' I/O failed: %w", name, waitErr)
		}
		e.logger.Error("Engine execution failed", append(logArgs, slog.Int("exitCode", exitErr.ExitCode()), slog.Any("error", waitErr))...)
		return nil, stderrData, plugin.WrapEngineError(formatter.ErrEngineNonZeroExit, "engine '%s' failed with exit code %d: %v", name, exitErr.ExitCode(), waitErr)
	}
	if stdout.truncated {
		e.logger.Error("Engine stdout exceeded read limit", append(logArgs, slog.Int("limit_bytes", maxEngineReadBytes))...)
		return nil, stderrData, plugin.WrapEngineError(formatter.ErrEngineBadOutput, "engine '%s' stdout exceeded read limit (%d bytes)", name, maxEngineReadBytes)
	}
	e.logger.Debug("Engine finished successfully", logArgs...)
	return stdout.Bytes(), stderrData, nil
}

// limitedBuffer keeps the first limit bytes and silently drops the rest so a
// chatty process never blocks on a full pipe.
type limitedBuffer struct {
	bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

// --- END OF FINAL REVISED FILE internal/cli/runner/runner.go ---
