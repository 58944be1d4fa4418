package pep8_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/pep8"
)

func options(t *testing.T, mutate func(*formatter.FormatOptionsConfig)) *formatter.FormatOptions {
	t.Helper()
	cfg := formatter.DefaultFormatOptionsConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	opts, err := formatter.NewFormatOptions(cfg)
	require.NoError(t, err)
	return opts
}

func TestEngine_Format(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*formatter.FormatOptionsConfig)
		source string
		want   string
	}{
		{
			name:   "clean source is untouched",
			source: "def f():\n    return 1\n",
			want:   "def f():\n    return 1\n",
		},
		{
			name:   "trailing whitespace",
			source: "x = 1   \ny = 2\t\n",
			want:   "x = 1\ny = 2\n",
		},
		{
			name:   "whitespace on blank line",
			source: "x = 1\n    \ny = 2\n",
			want:   "x = 1\n\ny = 2\n",
		},
		{
			name:   "tab indentation uses indent size",
			mutate: func(c *formatter.FormatOptionsConfig) { c.IndentSize = 2 },
			source: "if x:\n\ty = 1\n",
			want:   "if x:\n  y = 1\n",
		},
		{
			name:   "missing final newline",
			source: "x = 1",
			want:   "x = 1\n",
		},
		{
			name:   "trailing blank lines",
			source: "x = 1\n\n\n  \n",
			want:   "x = 1\n",
		},
		{
			name:   "crlf line endings are kept",
			source: "x = 1 \r\ny = 2",
			want:   "x = 1\r\ny = 2\r\n",
		},
		{
			name:   "too many blank lines kept without aggressive",
			source: "x = 1\n\n\n\n\ny = 2\n",
			want:   "x = 1\n\n\n\n\ny = 2\n",
		},
		{
			name:   "too many blank lines collapsed with aggressive",
			mutate: func(c *formatter.FormatOptionsConfig) { c.Aggressive = 1 },
			source: "x = 1\n\n\n\n\ny = 2\n",
			want:   "x = 1\n\n\ny = 2\n",
		},
		{
			name:   "ignored rule is left alone",
			mutate: func(c *formatter.FormatOptionsConfig) { c.Ignore = []string{"W2"} },
			source: "x = 1   \ny = 2",
			want:   "x = 1   \ny = 2",
		},
		{
			name:   "select restricts fixes",
			mutate: func(c *formatter.FormatOptionsConfig) { c.Select = []string{"W292"} },
			source: "x = 1   \ny = 2",
			want:   "x = 1   \ny = 2\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var diag strings.Builder
			got, err := pep8.New().Format(context.Background(), tc.source, options(t, tc.mutate), &diag)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Contains(t, diag.String(), "issue(s) to fix")
		})
	}
}

func TestEngine_Format_Idempotent(t *testing.T) {
	opts := options(t, func(c *formatter.FormatOptionsConfig) { c.Aggressive = 1 })
	source := "if x:\n\ty = 1   \n\n\n\n\nz = 2\n\n\n"
	engine := pep8.New()

	var diag strings.Builder
	once, err := engine.Format(context.Background(), source, opts, &diag)
	require.NoError(t, err)
	twice, err := engine.Format(context.Background(), once, opts, &diag)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Empty(t, pep8.Lint(twice, opts))
}

func TestEngine_Format_ReportsUnfixedIssues(t *testing.T) {
	opts := options(t, func(c *formatter.FormatOptionsConfig) { c.MaxLineLength = 10 })
	source := "x = 1  \nvery_long_name = 1\n\n\n\ny = 2\n"

	var diag strings.Builder
	_, err := pep8.New().Format(context.Background(), source, opts, &diag)
	require.NoError(t, err)

	issues := formatter.FindNotFixed(diag.String())
	assert.Equal(t, []formatter.Issue{{Code: "E501", Line: 2}, {Code: "E303", Line: 6}}, issues)
	assert.Contains(t, diag.String(), "--->  1 issue(s) to fix {'W291': {1}}")
}

func TestEngine_Format_Faults(t *testing.T) {
	opts := options(t, nil)

	_, err := pep8.New().Format(context.Background(), "x = 1\x00\n", opts, &strings.Builder{})
	assert.ErrorIs(t, err, pep8.ErrNulByte)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pep8.New().Format(ctx, "x = 1\n", opts, &strings.Builder{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLint(t *testing.T) {
	opts := options(t, nil)
	issues := pep8.Lint("\tx = 1 \n\n\n\n\ny = 2", opts)
	assert.Equal(t, []pep8.Issue{
		{Code: pep8.CodeTabIndent, Line: 1, Fixable: true},
		{Code: pep8.CodeTrailingWhitespace, Line: 1, Fixable: true},
		{Code: pep8.CodeTooManyBlankLines, Line: 6, Fixable: false},
		{Code: pep8.CodeNoFinalNewline, Line: 6, Fixable: true},
	}, issues)
}
