// --- START OF FINAL REVISED FILE pkg/formatter/git/client.go ---
package git

import (
	"errors"
	"fmt"
)

// Diff modes understood by GitClient.GetChangedFiles.
const (
	ModeDiffOnly = "diffOnly"
	ModeSince    = "since"
)

// ErrGitOperation indicates a failure during a Git operation performed via the GitClient.
// Implementations wrap underlying errors with it (see Errorf).
var ErrGitOperation = errors.New("git operation failed")

// GitClient lists files changed in a repository so discovery can restrict
// formatting to them.
type GitClient interface {
	// GetChangedFiles returns absolute, cleaned paths of files changed in the
	// repository containing repoPath. mode is ModeDiffOnly (staged and
	// unstaged changes, untracked files excluded) or ModeSince (changed
	// between ref and HEAD).
	GetChangedFiles(repoPath, mode string, ref string) ([]string, error)
}

// Errorf returns a formatted error that wraps ErrGitOperation.
func Errorf(format string, args ...any) error {
	// minimal comment
	return fmt.Errorf("%w: "+format, append([]any{ErrGitOperation}, args...)...)
}

// --- END OF FINAL REVISED FILE pkg/formatter/git/client.go ---
