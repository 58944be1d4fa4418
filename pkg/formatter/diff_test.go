package formatter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

func TestCreateDiff(t *testing.T) {
	t.Run("identical text", func(t *testing.T) {
		assert.Empty(t, formatter.CreateDiff("x = 1\n", "x = 1\n", "a.py", 3))
	})

	t.Run("headers and hunks", func(t *testing.T) {
		diff := formatter.CreateDiff("x = 1 \ny = 2\n", "x = 1\ny = 2\n", "a.py", 3)
		assert.True(t, strings.HasPrefix(diff, "--- original: a.py\n+++ fixed: a.py\n"), diff)
		assert.Contains(t, diff, "-x = 1 \n")
		assert.Contains(t, diff, "+x = 1\n")
		assert.True(t, strings.HasSuffix(diff, "\n"))
	})

	t.Run("missing final newline is visible", func(t *testing.T) {
		diff := formatter.CreateDiff("x = 1", "x = 1\n", "a.py", 3)
		assert.Contains(t, diff, "\\ No newline at end of file")
	})

	t.Run("below threshold is dropped", func(t *testing.T) {
		diff := formatter.CreateDiff("x = 1 \n", "x = 1\n", "a.py", 3)
		assert.NotEmpty(t, diff)
		assert.Empty(t, formatter.CreateDiff("x = 1 \n", "x = 1\n", "a.py", formatter.DiffLineCount(diff)+1))
	})
}

func TestDiffLineCount(t *testing.T) {
	assert.Equal(t, 0, formatter.DiffLineCount(""))
	assert.Equal(t, 1, formatter.DiffLineCount("a"))
	assert.Equal(t, 2, formatter.DiffLineCount("a\nb\n"))
	assert.Equal(t, 3, formatter.DiffLineCount("a\nb\nc"))
}
