// --- START OF FINAL REVISED FILE internal/cli/runner/runner_test.go ---
package runner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/plugin"
)

// --- Test Helpers ---

// createMockEngineScript writes a POSIX shell script and returns its path.
func createMockEngineScript(t *testing.T, content string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping shell script engine test on Windows")
	}
	path := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+content), 0755))
	return path
}

func testOptions(t *testing.T, mutate func(*formatter.FormatOptionsConfig)) *formatter.FormatOptions {
	t.Helper()
	cfg := formatter.DefaultFormatOptionsConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	opts, err := formatter.NewFormatOptions(cfg)
	require.NoError(t, err)
	return opts
}

func newEngine(t *testing.T, script string, protocol formatter.EngineProtocol, timeout time.Duration) *ExecEngine {
	t.Helper()
	engine, err := NewExecEngine([]string{script}, protocol, timeout, map[string]any{"profile": "test"}, nil)
	require.NoError(t, err)
	return engine
}

// --- Test Suite ---

func TestNewExecEngine_Validation(t *testing.T) {
	_, err := NewExecEngine(nil, formatter.EngineProtocolArgs, 0, nil, nil)
	assert.ErrorIs(t, err, formatter.ErrConfigValidation)

	_, err = NewExecEngine([]string{"autopep8"}, "grpc", 0, nil, nil)
	assert.ErrorIs(t, err, formatter.ErrConfigValidation)

	engine, err := NewExecEngine([]string{"autopep8"}, "", 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, formatter.EngineProtocolArgs, engine.protocol)
}

func TestBuildArgs(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*formatter.FormatOptionsConfig)
		want   []string
	}{
		{
			name: "defaults",
			want: []string{"--max-line-length=79", "--indent-size=4", "-vv", "-"},
		},
		{
			name: "everything",
			mutate: func(c *formatter.FormatOptionsConfig) {
				c.Ignore = []string{"E501", "W6"}
				c.Select = []string{"W2"}
				c.MaxLineLength = 100
				c.IndentSize = 2
				c.Aggressive = 2
				c.HangClosing = true
				c.GlobalConfig = "/etc/pep8"
				c.IgnoreLocalConfig = true
			},
			want: []string{
				"--ignore=E501,W6", "--select=W2", "--max-line-length=100", "--indent-size=2",
				"-a", "-a", "--hang-closing", "--global-config=/etc/pep8", "--ignore-local-config", "-vv", "-",
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildArgs(testOptions(t, tc.mutate)))
		})
	}
}

func TestExecEngine_Args_Success(t *testing.T) {
	script := createMockEngineScript(t, `echo "args: $*" >&2
echo "--->  1 issue(s) to fix {'W291': {1}}" >&2
echo "--->  Not fixing E501 on line 2" >&2
sed -e 's/[[:space:]]*$//'
`)
	engine := newEngine(t, script, formatter.EngineProtocolArgs, 5*time.Second)

	var diag strings.Builder
	got, err := engine.Format(context.Background(), "x = 1   \ny = 2\n", testOptions(t, nil), &diag)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\ny = 2\n", got)
	assert.Contains(t, diag.String(), "args: --max-line-length=79 --indent-size=4 -vv -")
	assert.Equal(t, []formatter.Issue{{Code: "E501", Line: 2}}, formatter.FindNotFixed(diag.String()))
}

func TestExecEngine_Args_EmptyOutput(t *testing.T) {
	script := createMockEngineScript(t, "cat >/dev/null\n")
	engine := newEngine(t, script, formatter.EngineProtocolArgs, 5*time.Second)

	_, err := engine.Format(context.Background(), "x = 1\n", testOptions(t, nil), &strings.Builder{})
	assert.ErrorIs(t, err, formatter.ErrEngineBadOutput)
	assert.ErrorIs(t, err, formatter.ErrEngineExecution)

	got, err := engine.Format(context.Background(), "", testOptions(t, nil), &strings.Builder{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExecEngine_NonZeroExit(t *testing.T) {
	script := createMockEngineScript(t, "cat >/dev/null\necho boom >&2\nexit 3\n")
	engine := newEngine(t, script, formatter.EngineProtocolArgs, 5*time.Second)

	var diag strings.Builder
	_, err := engine.Format(context.Background(), "x = 1\n", testOptions(t, nil), &diag)
	require.Error(t, err)
	assert.ErrorIs(t, err, formatter.ErrEngineNonZeroExit)
	assert.ErrorIs(t, err, formatter.ErrEngineExecution)
	assert.Contains(t, err.Error(), "exit code 3")
	assert.Contains(t, diag.String(), "boom")
}

func TestExecEngine_Timeout(t *testing.T) {
	script := createMockEngineScript(t, "exec sleep 5\n")
	engine := newEngine(t, script, formatter.EngineProtocolArgs, 100*time.Millisecond)

	start := time.Now()
	_, err := engine.Format(context.Background(), "x = 1\n", testOptions(t, nil), &strings.Builder{})
	assert.ErrorIs(t, err, formatter.ErrEngineTimeout)
	assert.ErrorIs(t, err, formatter.ErrEngineExecution)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExecEngine_CommandNotFound(t *testing.T) {
	engine, err := NewExecEngine([]string{filepath.Join(t.TempDir(), "missing-engine")}, formatter.EngineProtocolArgs, 0, nil, nil)
	require.NoError(t, err)
	_, err = engine.Format(context.Background(), "x = 1\n", testOptions(t, nil), &strings.Builder{})
	assert.ErrorIs(t, err, formatter.ErrEngineExecution)
}

func TestExecEngine_JSON_Success(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "input.json")
	script := createMockEngineScript(t, `cat > "`+inputPath+`"
printf '%s' '{"$schemaVersion":"1.0","formatted":"x = 1\n","diagnostics":"--->  Not fixing E501 on line 1\n"}'
`)
	engine := newEngine(t, script, formatter.EngineProtocolJSON, 5*time.Second)
	opts := testOptions(t, func(c *formatter.FormatOptionsConfig) { c.Ignore = []string{"W6"} })

	var diag strings.Builder
	got, err := engine.Format(context.Background(), "x = 1   \n", opts, &diag)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", got)
	assert.Contains(t, diag.String(), "Not fixing E501 on line 1")

	data, err := os.ReadFile(inputPath)
	require.NoError(t, err)
	var in plugin.EngineInput
	require.NoError(t, json.Unmarshal(data, &in))
	assert.Equal(t, formatter.EngineSchemaVersion, in.SchemaVersion)
	assert.Equal(t, "x = 1   \n", in.Source)
	assert.Equal(t, []string{"W6"}, in.Options.Ignore)
	assert.Equal(t, "test", in.Config["profile"])
}

func TestExecEngine_JSON_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		output  string
		wantMsg string
	}{
		{name: "invalid json", output: "not-json", wantMsg: "failed to unmarshal"},
		{name: "schema mismatch", output: `{"$schemaVersion":"0.1","formatted":"x"}`, wantMsg: "incompatible schema version"},
		{name: "engine error", output: `{"$schemaVersion":"1.0","error":"cannot parse"}`, wantMsg: "cannot parse"},
		{name: "empty output", output: "", wantMsg: "empty stdout"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			script := createMockEngineScript(t, "cat >/dev/null\nprintf '%s' '"+tc.output+"'\n")
			engine := newEngine(t, script, formatter.EngineProtocolJSON, 5*time.Second)
			_, err := engine.Format(context.Background(), "x = 1\n", testOptions(t, nil), &strings.Builder{})
			require.Error(t, err)
			assert.ErrorIs(t, err, formatter.ErrEngineBadOutput)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{limit: 4}
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = b.Write([]byte("def"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abcd", b.String())
	assert.True(t, b.truncated)
}

// --- END OF FINAL REVISED FILE internal/cli/runner/runner_test.go ---
