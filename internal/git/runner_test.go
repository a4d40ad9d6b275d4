package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	backporterrors "backport.dev/backport/internal/errors"
)

func TestCommandRunner(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t)
	require.NoError(t, repo.CommitFile("a.txt", "a", "add a"))
	runner := store.Runner()

	t.Run("returns trimmed output", func(t *testing.T) {
		out, err := runner.Run(ctx, "rev-parse", "HEAD")
		require.NoError(t, err)
		require.Len(t, out, 40)
	})

	t.Run("wraps failures with command and stderr", func(t *testing.T) {
		_, err := runner.Run(ctx, "rev-parse", "--verify", "no-such-rev")
		require.Error(t, err)

		var cmdErr *backporterrors.GitCommandError
		require.ErrorAs(t, err, &cmdErr)
		require.Equal(t, "git", cmdErr.Command)
		require.NotEmpty(t, cmdErr.Stderr)
	})

	t.Run("RunExitCode surfaces a non-zero exit as data", func(t *testing.T) {
		tip, err := repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.NoError(t, repo.CommitFile("b.txt", "b", "add b"))
		newTip, err := repo.GetRevision("HEAD")
		require.NoError(t, err)

		_, code, err := runner.RunExitCode(ctx, "merge-base", "--is-ancestor", newTip, tip)
		require.NoError(t, err)
		require.Equal(t, 1, code)

		_, code, err = runner.RunExitCode(ctx, "merge-base", "--is-ancestor", tip, newTip)
		require.NoError(t, err)
		require.Equal(t, 0, code)
	})

	t.Run("RunLines splits output and drops the trailing newline", func(t *testing.T) {
		lines, err := runner.RunLines(ctx, "branch", "--format=%(refname:short)")
		require.NoError(t, err)
		require.Equal(t, []string{"main"}, lines)
	})

	t.Run("RunWithInputAndEnv feeds stdin", func(t *testing.T) {
		sha, err := runner.RunWithInputAndEnv(ctx, "stdin content\n", nil, "hash-object", "--stdin")
		require.NoError(t, err)
		require.Len(t, sha, 40)
	})
}
