package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	backporterrors "backport.dev/backport/internal/errors"
)

// Signature identifies an author or committer at a point in time
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is an immutable, content-addressed view of a commit object. Parent
// order matters: the first parent is conventionally the mainline.
type Commit struct {
	SHA       string
	Parents   []string
	Author    Signature
	Committer Signature
	Message   string
	Tree      string
}

// IsMerge returns true if the commit has more than one parent
func (c *Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// ResolveBranch returns the tip commit SHA of a local branch
func (r *Repository) ResolveBranch(name string) (string, error) {
	ref, err := r.branchReference(name)
	if err != nil {
		return "", backporterrors.NewBranchNotFoundError(name)
	}
	return ref.Hash().String(), nil
}

// ReadCommit reads a commit object by SHA
func (r *Repository) ReadCommit(sha string) (*Commit, error) {
	obj, err := r.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", sha, err)
	}

	parents := make([]string, 0, obj.NumParents())
	for _, p := range obj.ParentHashes {
		parents = append(parents, p.String())
	}

	return &Commit{
		SHA:     obj.Hash.String(),
		Parents: parents,
		Author: Signature{
			Name:  obj.Author.Name,
			Email: obj.Author.Email,
			When:  obj.Author.When,
		},
		Committer: Signature{
			Name:  obj.Committer.Name,
			Email: obj.Committer.Email,
			When:  obj.Committer.When,
		},
		Message: obj.Message,
		Tree:    obj.TreeHash.String(),
	}, nil
}

// IsAncestor checks whether ancestor is reachable from descendant
func (r *Repository) IsAncestor(ancestor, descendant string) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}

	ancestorCommit, err := r.CommitObject(plumbing.NewHash(ancestor))
	if err != nil {
		return false, fmt.Errorf("failed to get ancestor commit: %w", err)
	}

	descendantCommit, err := r.CommitObject(plumbing.NewHash(descendant))
	if err != nil {
		return false, fmt.Errorf("failed to get descendant commit: %w", err)
	}

	return ancestorCommit.IsAncestor(descendantCommit)
}

// MergeTrees performs a three-way tree merge of ours and theirs against their
// computed merge base, with rename detection. The working tree is not touched.
// A content conflict is returned as a MergeConflictError; the run treats it as
// fatal.
func (r *Repository) MergeTrees(ctx context.Context, ours, theirs string) (string, error) {
	return r.mergeTree(ctx, ours, theirs, "")
}

// CherryPickTree computes the tree that results from applying commitSHA onto
// the commit ontoSHA, using mainlineParent as the diff base. Equivalent to a
// cherry-pick at the object level; the working tree is not touched.
func (r *Repository) CherryPickTree(ctx context.Context, commitSHA, ontoSHA, mainlineParent string) (string, error) {
	return r.mergeTree(ctx, ontoSHA, commitSHA, mainlineParent)
}

// mergeTree wraps git merge-tree --write-tree. merge-tree exits 1 on content
// conflicts, which is distinct from other failures.
func (r *Repository) mergeTree(ctx context.Context, ours, theirs, base string) (string, error) {
	args := []string{"merge-tree", "--write-tree", "--messages"}
	if base != "" {
		args = append(args, "--merge-base", base)
	}
	args = append(args, ours, theirs)

	out, code, err := r.runner.RunExitCode(ctx, args...)
	if err != nil {
		return "", err
	}

	lines := strings.SplitN(out, "\n", 2)
	switch code {
	case 0:
		return lines[0], nil
	case 1:
		details := ""
		if len(lines) > 1 {
			details = lines[1]
		}
		return "", backporterrors.NewMergeConflictError(ours, theirs, details)
	default:
		return "", backporterrors.NewGitCommandError("git", args, out, "", fmt.Errorf("merge-tree exited with status %d", code))
	}
}

// CreateCommit writes a new commit object with the given parents, signatures,
// message, and tree, and returns its SHA. The message is passed on stdin so it
// is preserved verbatim.
func (r *Repository) CreateCommit(ctx context.Context, parents []string, author, committer Signature, message, tree string) (string, error) {
	args := []string{"commit-tree", tree}
	for _, p := range parents {
		args = append(args, "-p", p)
	}

	env := []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_AUTHOR_DATE=" + author.When.Format(time.RFC3339),
		"GIT_COMMITTER_NAME=" + committer.Name,
		"GIT_COMMITTER_EMAIL=" + committer.Email,
		"GIT_COMMITTER_DATE=" + committer.When.Format(time.RFC3339),
	}

	sha, err := r.runner.RunWithInputAndEnv(ctx, message, env, args...)
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	return sha, nil
}

// SetBranchRef force-updates a local branch ref to the given commit
func (r *Repository) SetBranchRef(ctx context.Context, name, sha string) error {
	_, err := r.runner.Run(ctx, "update-ref", "refs/heads/"+name, sha)
	if err != nil {
		return fmt.Errorf("failed to update branch %s: %w", name, err)
	}
	return nil
}

// HasRef reports whether a fully-qualified ref exists
func (r *Repository) HasRef(name string) bool {
	_, err := r.Reference(plumbing.ReferenceName(name), false)
	return err == nil
}

// CreateRef creates a new fully-qualified ref pointing at the given commit.
// It refuses to overwrite an existing ref.
func (r *Repository) CreateRef(ctx context.Context, name, sha string) error {
	if r.HasRef(name) {
		return fmt.Errorf("ref %s already exists", name)
	}
	// The empty old-value argument makes update-ref fail if the ref exists,
	// closing the race with the existence check above.
	_, err := r.runner.Run(ctx, "update-ref", name, sha, "")
	if err != nil {
		return fmt.Errorf("failed to create ref %s: %w", name, err)
	}
	return nil
}

// DefaultSignature returns the run identity used for synthesized commits,
// taken from git config
func (r *Repository) DefaultSignature(ctx context.Context) (Signature, error) {
	name, err := r.runner.Run(ctx, "config", "user.name")
	if err != nil {
		return Signature{}, fmt.Errorf("could not determine run identity (git config user.name): %w", err)
	}
	email, err := r.runner.Run(ctx, "config", "user.email")
	if err != nil {
		return Signature{}, fmt.Errorf("could not determine run identity (git config user.email): %w", err)
	}
	return Signature{Name: name, Email: email, When: time.Now()}, nil
}
