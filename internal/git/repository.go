package git

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository wraps a go-git repository together with a command runner rooted
// at the same directory
type Repository struct {
	*git.Repository
	path   string
	runner *CommandRunner
}

// OpenRepository opens a git repository at the given path. When discover is
// true, parent directories are searched for the enclosing repository.
func OpenRepository(path string, discover bool) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{
		DetectDotGit: discover,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", absPath, err)
	}

	root := absPath
	if discover {
		if wt, err := repo.Worktree(); err == nil {
			root = wt.Filesystem.Root()
		}
	}

	return &Repository{
		Repository: repo,
		path:       root,
		runner:     NewCommandRunner(root),
	}, nil
}

// Root returns the root directory of the repository's working tree
func (r *Repository) Root() string {
	return r.path
}

// Runner returns the command runner bound to this repository
func (r *Repository) Runner() *CommandRunner {
	return r.runner
}

// HeadBranch returns the name of the currently checked-out branch
func (r *Repository) HeadBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not on a branch")
	}

	return head.Name().Short(), nil
}

// branchReference returns the resolved reference for a local branch
func (r *Repository) branchReference(name string) (*plumbing.Reference, error) {
	return r.Reference(plumbing.NewBranchReferenceName(name), true)
}
