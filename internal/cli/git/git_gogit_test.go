// --- START OF FINAL REVISED FILE internal/cli/git/git_gogit_test.go ---
package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libgit "github.com/stackvity/stack-formatter/pkg/formatter/git"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func commitAll(t *testing.T, repo *git.Repository, msg string) string {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddGlob("."))
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

// setupTestGitRepo creates a repository with one commit holding a.py and b.py.
func setupTestGitRepo(t *testing.T) (string, *git.Repository, string) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	writeFile(t, dir, "a.py", "a = 1\n")
	writeFile(t, dir, "pkg/b.py", "b = 1\n")
	first := commitAll(t, repo, "initial")
	return dir, repo, first
}

func TestGoGitClient_GetChangedFiles_DiffOnly(t *testing.T) {
	dir, repo, _ := setupTestGitRepo(t)
	writeFile(t, dir, "a.py", "a = 2\n")
	writeFile(t, dir, "untracked.py", "x = 1\n")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	writeFile(t, dir, "staged.py", "s = 1\n")
	_, err = wt.Add("staged.py")
	require.NoError(t, err)

	client := NewGoGitClient(nil)
	files, err := client.GetChangedFiles(dir, libgit.ModeDiffOnly, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.py"), filepath.Join(dir, "staged.py")}, files)
}

func TestGoGitClient_GetChangedFiles_Since(t *testing.T) {
	dir, repo, first := setupTestGitRepo(t)
	writeFile(t, dir, "pkg/b.py", "b = 2\n")
	writeFile(t, dir, "c.py", "c = 1\n")
	require.NoError(t, os.Remove(filepath.Join(dir, "a.py")))
	commitAll(t, repo, "second")

	client := NewGoGitClient(nil)
	files, err := client.GetChangedFiles(filepath.Join(dir, "pkg"), libgit.ModeSince, first)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "c.py"), filepath.Join(dir, "pkg", "b.py")}, files, "deleted files are left out")
}

func TestGoGitClient_GetChangedFiles_Errors(t *testing.T) {
	dir, _, _ := setupTestGitRepo(t)
	client := NewGoGitClient(nil)

	testCases := []struct {
		name string
		path string
		mode string
		ref  string
	}{
		{"not a repository", t.TempDir(), libgit.ModeDiffOnly, ""},
		{"since without ref", dir, libgit.ModeSince, ""},
		{"unknown ref", dir, libgit.ModeSince, "no-such-branch"},
		{"unknown mode", dir, "bogus", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.GetChangedFiles(tc.path, tc.mode, tc.ref)
			require.Error(t, err)
			assert.ErrorIs(t, err, libgit.ErrGitOperation)
		})
	}
}

// --- END OF FINAL REVISED FILE internal/cli/git/git_gogit_test.go ---
