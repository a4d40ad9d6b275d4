package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	backporterrors "backport.dev/backport/internal/errors"
)

func TestErrorIdentity(t *testing.T) {
	for _, tc := range []struct {
		name     string
		err      error
		sentinel error
	}{
		{"git version", backporterrors.NewGitVersionError("git version 2.39.5", "2.40"), backporterrors.ErrGitVersionTooOld},
		{"working tree", backporterrors.NewWorkingTreeNotCleanError([]string{"?? a.txt"}), backporterrors.ErrWorkingTreeNotClean},
		{"branch not found", backporterrors.NewBranchNotFoundError("release"), backporterrors.ErrBranchNotFound},
		{"ambiguous ancestor", backporterrors.NewAmbiguousAncestorError("abc", "main", 2), backporterrors.ErrAmbiguousAncestor},
		{"merge conflict", backporterrors.NewMergeConflictError("abc", "def", ""), backporterrors.ErrMergeConflict},
		{"invariant", backporterrors.NewInvariantError("head missing for %s", "main"), backporterrors.ErrInvariantViolation},
		{"parent remap", backporterrors.NewUnsupportedParentRemapError("abc", "def"), backporterrors.ErrUnsupportedParentRemap},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.err, tc.sentinel)
			require.NotEmpty(t, tc.err.Error())
		})
	}
}

func TestGitCommandErrorUnwrap(t *testing.T) {
	cause := stderrors.New("exit status 128")
	err := backporterrors.NewGitCommandError("git", []string{"merge-tree"}, "", "fatal: bad object", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "merge-tree")
	require.Contains(t, err.Error(), "fatal: bad object")
}

func TestAmbiguousAncestorErrorMessage(t *testing.T) {
	none := backporterrors.NewAmbiguousAncestorError("abc", "main", 0)
	require.Contains(t, none.Error(), "no parent")

	many := backporterrors.NewAmbiguousAncestorError("abc", "main", 2)
	require.Contains(t, many.Error(), "2 parents")
}
