// Package errors provides sentinel errors and custom error types for git-backport.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrGitVersionTooOld indicates the installed git lacks the merge-tree
	// plumbing the rewrite depends on
	ErrGitVersionTooOld = errors.New("git version too old")

	// ErrWorkingTreeNotClean indicates the working tree has local changes
	ErrWorkingTreeNotClean = errors.New("working tree not clean")

	// ErrEmptyBranchChain indicates that fewer than two branches were supplied
	ErrEmptyBranchChain = errors.New("empty branch chain")

	// ErrBranchNotFound indicates that a branch does not exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrNotAncestor indicates a branch chain whose seniority ordering does not hold
	ErrNotAncestor = errors.New("branch is not an ancestor of its junior neighbor")

	// ErrAmbiguousAncestor indicates a merge commit with zero or multiple parents
	// reaching the next senior tip
	ErrAmbiguousAncestor = errors.New("ambiguous ancestor")

	// ErrMergeConflict indicates a tree merge or cherry-pick hit a content conflict
	ErrMergeConflict = errors.New("merge conflict")

	// ErrInvariantViolation indicates an internal bookkeeping bug, never a valid
	// runtime state
	ErrInvariantViolation = errors.New("internal invariant violation")

	// ErrUnsupportedParentRemap indicates a side-chain parent whose own ancestry
	// was rewritten; remapping such parents is not supported
	ErrUnsupportedParentRemap = errors.New("unsupported parent remap")

	// ErrEditAborted indicates the operator aborted the run from the editor
	ErrEditAborted = errors.New("edit aborted")

	// ErrNothingToBackport indicates that every branch in the chain already points
	// into the same commit region and there is nothing to rewrite
	ErrNothingToBackport = errors.New("nothing to backport")
)

// GitVersionError reports an installed git too old to run the merge-tree
// plumbing used for tree-level merges and cherry-picks
type GitVersionError struct {
	Found    string
	Required string
}

func (e *GitVersionError) Error() string {
	return fmt.Sprintf("%s is too old: git %s or newer is required for merge-tree based history rewrites", e.Found, e.Required)
}

// Is returns true if the target error is ErrGitVersionTooOld
func (e *GitVersionError) Is(target error) bool {
	return target == ErrGitVersionTooOld
}

// NewGitVersionError creates a new GitVersionError
func NewGitVersionError(found, required string) *GitVersionError {
	return &GitVersionError{Found: found, Required: required}
}

// WorkingTreeNotCleanError reports the offending status entries of a dirty tree
type WorkingTreeNotCleanError struct {
	Entries []string
}

func (e *WorkingTreeNotCleanError) Error() string {
	return fmt.Sprintf("working tree not clean: %d uncommitted, untracked, or ignored entries present", len(e.Entries))
}

// Is returns true if the target error is ErrWorkingTreeNotClean
func (e *WorkingTreeNotCleanError) Is(target error) bool {
	return target == ErrWorkingTreeNotClean
}

// NewWorkingTreeNotCleanError creates a new WorkingTreeNotCleanError
func NewWorkingTreeNotCleanError(entries []string) *WorkingTreeNotCleanError {
	return &WorkingTreeNotCleanError{Entries: entries}
}

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrBranchNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// AmbiguousAncestorError reports a merge commit whose parent scan did not yield
// exactly one parent reaching the next senior tip
type AmbiguousAncestorError struct {
	CommitSHA string
	Branch    string
	Matches   int
}

func (e *AmbiguousAncestorError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("commit %s on %s has no parent reaching the next senior tip", e.CommitSHA, e.Branch)
	}
	return fmt.Sprintf("commit %s on %s has %d parents reaching the next senior tip; the next ancestor must be reachable via exactly one parent", e.CommitSHA, e.Branch, e.Matches)
}

// Is returns true if the target error is ErrAmbiguousAncestor
func (e *AmbiguousAncestorError) Is(target error) bool {
	return target == ErrAmbiguousAncestor
}

// NewAmbiguousAncestorError creates a new AmbiguousAncestorError
func NewAmbiguousAncestorError(commitSHA, branch string, matches int) *AmbiguousAncestorError {
	return &AmbiguousAncestorError{CommitSHA: commitSHA, Branch: branch, Matches: matches}
}

// MergeConflictError represents a content conflict during a tree merge or
// cherry-pick. Conflicts are always fatal; a conflict between commits collected
// from an already-consistent line signals an algorithm or input error, not a
// user-resolvable state.
type MergeConflictError struct {
	Ours    string
	Theirs  string
	Details string
}

func (e *MergeConflictError) Error() string {
	msg := fmt.Sprintf("merge conflict between %s and %s", e.Ours, e.Theirs)
	if e.Details != "" {
		msg += "\n" + e.Details
	}
	return msg
}

// Is returns true if the target error is ErrMergeConflict
func (e *MergeConflictError) Is(target error) bool {
	return target == ErrMergeConflict
}

// NewMergeConflictError creates a new MergeConflictError
func NewMergeConflictError(ours, theirs, details string) *MergeConflictError {
	return &MergeConflictError{Ours: ours, Theirs: theirs, Details: details}
}

// InvariantError represents a violated internal bookkeeping invariant, such as
// a duplicate map key or a missing branch head. It always indicates a bug.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violation: %s", e.Message)
}

// Is returns true if the target error is ErrInvariantViolation
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// NewInvariantError creates a new InvariantError
func NewInvariantError(format string, args ...interface{}) *InvariantError {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// UnsupportedParentRemapError reports a side-chain parent that cannot be
// carried over unchanged because part of its ancestry was rewritten
type UnsupportedParentRemapError struct {
	ParentSHA  string
	TouchedSHA string
}

func (e *UnsupportedParentRemapError) Error() string {
	return fmt.Sprintf("cannot remap side-chain parent %s: its ancestor %s was rewritten; rewriting side chains is not supported", e.ParentSHA, e.TouchedSHA)
}

// Is returns true if the target error is ErrUnsupportedParentRemap
func (e *UnsupportedParentRemapError) Is(target error) bool {
	return target == ErrUnsupportedParentRemap
}

// NewUnsupportedParentRemapError creates a new UnsupportedParentRemapError
func NewUnsupportedParentRemapError(parentSHA, touchedSHA string) *UnsupportedParentRemapError {
	return &UnsupportedParentRemapError{ParentSHA: parentSHA, TouchedSHA: touchedSHA}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
