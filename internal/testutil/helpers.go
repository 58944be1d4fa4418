// --- START OF FINAL REVISED FILE internal/testutil/helpers.go ---
package testutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// CreateDummyFile creates a dummy file with specified content at the given path,
// ensuring parent directories exist. It uses require assertions for test setup.
func CreateDummyFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	dir := filepath.Dir(fullPath)
	err := os.MkdirAll(dir, 0o755)
	require.NoError(t, err, "Failed to create directory %s for dummy file", dir)
	err = os.WriteFile(fullPath, []byte(content), 0o644)
	require.NoError(t, err, "Failed to write dummy file %s", fullPath)
}

// CreateDummyDir ensures a directory exists at the given path, creating parents if needed.
func CreateDummyDir(t *testing.T, path string) {
	t.Helper()
	err := os.MkdirAll(filepath.Clean(path), 0o755)
	require.NoError(t, err, "Failed to create dummy directory %s", path)
}

// NewTestLogger returns a debug-level handler writing to the returned buffer.
func NewTestLogger() (slog.Handler, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}), buf
}

// DiscardLogger returns a handler that drops everything.
func DiscardLogger() slog.Handler {
	return slog.NewTextHandler(nopWriter{}, nil)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// MustFormatOptions builds FormatOptions from the defaults, optionally mutated.
func MustFormatOptions(t *testing.T, mutate func(*formatter.FormatOptionsConfig)) *formatter.FormatOptions {
	t.Helper()
	cfg := formatter.DefaultFormatOptionsConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	opts, err := formatter.NewFormatOptions(cfg)
	require.NoError(t, err)
	return opts
}

// --- END OF FINAL REVISED FILE internal/testutil/helpers.go ---
