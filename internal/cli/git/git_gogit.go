// --- START OF FINAL REVISED FILE internal/cli/git/git_gogit.go ---
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	libgit "github.com/stackvity/stack-formatter/pkg/formatter/git"
)

// patchTimeout bounds the tree diff in "since" mode.
const patchTimeout = 60 * time.Second

// GoGitClient implements libgit.GitClient using go-git.
type GoGitClient struct {
	logger *slog.Logger
}

// NewGoGitClient creates a new GoGitClient.
func NewGoGitClient(loggerHandler slog.Handler) libgit.GitClient {
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "gitClient"), slog.String("backend", "go-git"))
	return &GoGitClient{logger: logger}
}

// openRepo opens the repository at or above repoPath.
func (c *GoGitClient) openRepo(repoPath string) (*git.Repository, error) {
	absRepoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, libgit.Errorf("failed to get absolute path for repository '%s': %w", repoPath, err)
	}
	repo, err := git.PlainOpenWithOptions(absRepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, libgit.Errorf("repository not found at or above path '%s': %w", absRepoPath, err)
		}
		return nil, libgit.Errorf("failed to open repository at '%s': %w", absRepoPath, err)
	}
	return repo, nil
}

func (c *GoGitClient) resolveRevision(repo *git.Repository, refName string) (*plumbing.Hash, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(refName))
	if err != nil {
		c.logger.Error("Failed to resolve revision", slog.String("ref", refName), slog.Any("error", err))
		if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, libgit.Errorf("invalid git reference '%s': %w", refName, err)
		}
		return nil, libgit.Errorf("could not resolve git reference '%s': %w", refName, err)
	}
	return hash, nil
}

// GetChangedFiles implements libgit.GitClient. Paths are absolute and sorted.
// Deleted files are not returned: there is nothing left to format.
func (c *GoGitClient) GetChangedFiles(repoPath, mode string, ref string) ([]string, error) {
	logger := c.logger.With(slog.String("repo", repoPath), slog.String("mode", mode), slog.String("ref", ref))

	repo, err := c.openRepo(repoPath)
	if err != nil {
		return nil, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, libgit.Errorf("failed to get worktree for repository '%s': %w", repoPath, err)
	}

	var rel []string
	switch mode {
	case libgit.ModeDiffOnly:
		rel, err = c.worktreeChanges(worktree, logger)
	case libgit.ModeSince:
		rel, err = c.changesSince(repo, ref, logger)
	default:
		return nil, libgit.Errorf("unsupported git diff mode: %s", mode)
	}
	if err != nil {
		return nil, err
	}

	root := worktree.Filesystem.Root()
	files := make([]string, 0, len(rel))
	for _, r := range rel {
		files = append(files, filepath.Join(root, filepath.FromSlash(r)))
	}
	slices.Sort(files)
	files = slices.Compact(files)
	logger.Debug("Resolved changed files", slog.Int("count", len(files)))
	return files, nil
}

// worktreeChanges lists staged or unstaged modifications against HEAD.
// Untracked files are left to discovery.
func (c *GoGitClient) worktreeChanges(worktree *git.Worktree, logger *slog.Logger) ([]string, error) {
	status, err := worktree.Status()
	if err != nil {
		return nil, libgit.Errorf("failed to get git status: %w", err)
	}
	var rel []string
	for path, fs := range status {
		switch {
		case fs.Staging == git.Untracked && fs.Worktree == git.Untracked:
		case fs.Worktree == git.Deleted, fs.Staging == git.Deleted && fs.Worktree == git.Unmodified:
		case fs.Staging != git.Unmodified || fs.Worktree != git.Unmodified:
			logger.Debug("Changed in worktree", slog.String("path", path),
				slog.String("status", fmt.Sprintf("%c%c", fs.Staging, fs.Worktree)))
			rel = append(rel, path)
		}
	}
	return rel, nil
}

// changesSince lists files whose content differs between ref and HEAD.
func (c *GoGitClient) changesSince(repo *git.Repository, ref string, logger *slog.Logger) ([]string, error) {
	if ref == "" {
		return nil, libgit.Errorf("git diff mode 'since' requires a non-empty reference")
	}
	headRef, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			logger.Warn("HEAD reference not found, repository might be empty")
			return nil, nil
		}
		return nil, libgit.Errorf("failed to get HEAD reference: %w", err)
	}
	headCommit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, libgit.Errorf("failed to get HEAD commit: %w", err)
	}
	sinceHash, err := c.resolveRevision(repo, ref)
	if err != nil {
		return nil, err
	}
	sinceCommit, err := repo.CommitObject(*sinceHash)
	if err != nil {
		return nil, libgit.Errorf("failed to get commit for reference '%s': %w", ref, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), patchTimeout)
	defer cancel()
	patch, err := sinceCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return nil, libgit.Errorf("failed to diff '%s' against HEAD: %w", ref, err)
	}
	var rel []string
	for _, fp := range patch.FilePatches() {
		// a nil destination means the file was deleted
		if _, to := fp.Files(); to != nil {
			rel = append(rel, to.Path())
		}
	}
	return rel, nil
}

// --- END OF FINAL REVISED FILE internal/cli/git/git_gogit.go ---
