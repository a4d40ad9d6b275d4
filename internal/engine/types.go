package engine

import (
	"context"
	"strings"

	"backport.dev/backport/internal/git"
)

// Store is the object-store contract the engine consumes. *git.Repository
// implements it; tests may substitute their own.
type Store interface {
	ResolveBranch(name string) (string, error)
	ReadCommit(sha string) (*git.Commit, error)
	MergeTrees(ctx context.Context, ours, theirs string) (string, error)
	CherryPickTree(ctx context.Context, commitSHA, ontoSHA, mainlineParent string) (string, error)
	CreateCommit(ctx context.Context, parents []string, author, committer git.Signature, message, tree string) (string, error)
	SetBranchRef(ctx context.Context, name, sha string) error
	CreateRef(ctx context.Context, name, sha string) error
	HasRef(name string) bool
	DefaultSignature(ctx context.Context) (git.Signature, error)
}

// Item is a work record pairing one original commit with its mutable target
// branch index. Index 0 is the head (most junior) branch; larger indices are
// more senior. Items live only for the duration of a run.
type Item struct {
	SHA string
	// BranchIndex is the target branch; the editor may change it
	BranchIndex int
	// SegmentIndex is the branch pair the commit was collected from; it never
	// changes and records which branch tips are genuinely untouched
	SegmentIndex int
}

// ItemView is the immutable per-commit view handed to the editor
type ItemView struct {
	SHA         string
	ShortSHA    string
	Subject     string
	Author      string
	BranchIndex int
}

// EditView is the immutable view of the collected chain handed to the editor
type EditView struct {
	// Branches holds branch names ordered junior (index 0) to most senior
	Branches []string
	// Items holds the collected commits, newest-first per segment, segments
	// ordered head to most senior
	Items []ItemView
}

// Reassignment moves one item to a different target branch
type Reassignment struct {
	ItemIndex   int
	BranchIndex int
}

// Editor reassigns collected commits to target branches. It is invoked exactly
// once, before any store mutation, and may block arbitrarily long. Returning
// an error aborts the run before any rewrite has begun.
type Editor interface {
	Edit(view EditView) ([]Reassignment, error)
}

// EditorFunc adapts a function to the Editor interface
type EditorFunc func(view EditView) ([]Reassignment, error)

// Edit implements Editor
func (f EditorFunc) Edit(view EditView) ([]Reassignment, error) {
	return f(view)
}

// NoopEditor accepts the collected assignment unchanged
type NoopEditor struct{}

// Edit implements Editor
func (NoopEditor) Edit(EditView) ([]Reassignment, error) {
	return nil, nil
}

// subjectOf returns the first line of a commit message
func subjectOf(message string) string {
	subject := message
	if i := strings.IndexAny(subject, "\r\n"); i >= 0 {
		subject = subject[:i]
	}
	return subject
}

// shortSHA abbreviates a commit id for display
func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
