package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"backport.dev/backport/internal/cli"
	backporterrors "backport.dev/backport/internal/errors"
	"backport.dev/backport/testhelpers"
)

func execute(t *testing.T, repo *testhelpers.GitRepo, args ...string) error {
	t.Helper()
	cmd := cli.NewRootCmd("test", "none", "unknown")
	cmd.SetArgs(append([]string{"--repository", repo.Dir, "--no-edit"}, args...))
	return cmd.Execute()
}

func TestRootCmd(t *testing.T) {
	t.Run("backports the current branch over the given ancestors", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))
		require.NoError(t, repo.CreateBranch("stable"))
		require.NoError(t, repo.CommitFile("r.txt", "r", "add r"))
		require.NoError(t, repo.CreateBranch("release"))
		require.NoError(t, repo.CommitFile("m.txt", "m", "add m"))
		stableTip, err := repo.GetRevision("stable")
		require.NoError(t, err)

		require.NoError(t, execute(t, repo, "release", "stable"))

		require.Equal(t, stableTip, mustRev(t, repo, "stable"))
		require.True(t, repo.IsAncestor(mustRev(t, repo, "release"), mustRev(t, repo, "main")))
		require.True(t, repo.RefExists("refs/backports/main"))
	})

	t.Run("honors --no-backup", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))
		require.NoError(t, repo.CreateBranch("stable"))
		require.NoError(t, repo.CommitFile("m.txt", "m", "add m"))

		require.NoError(t, execute(t, repo, "--no-backup", "stable"))
		require.False(t, repo.RefExists("refs/backports/main"))
	})

	t.Run("treats an already-consistent chain as success", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))
		require.NoError(t, repo.CreateBranch("release"))

		require.NoError(t, execute(t, repo, "release"))
	})

	t.Run("refuses a dirty working tree before touching anything", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))
		require.NoError(t, repo.CreateBranch("stable"))
		require.NoError(t, repo.CommitFile("m.txt", "m", "add m"))
		mainTip := mustRev(t, repo, "main")
		require.NoError(t, repo.WriteFile("stray.txt", "uncommitted"))

		err = execute(t, repo, "stable")
		require.ErrorIs(t, err, backporterrors.ErrWorkingTreeNotClean)
		require.Equal(t, mainTip, mustRev(t, repo, "main"))
		require.False(t, repo.RefExists("refs/backports/main"))
	})

	t.Run("rejects an unknown branch", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))

		err = execute(t, repo, "no-such-branch")
		require.ErrorIs(t, err, backporterrors.ErrBranchNotFound)
	})

	t.Run("rejects a chain that is not ordered by ancestry", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))
		require.NoError(t, repo.CreateAndCheckoutBranch("diverged"))
		require.NoError(t, repo.CommitFile("d.txt", "d", "add d"))
		require.NoError(t, repo.CheckoutBranch("main"))
		require.NoError(t, repo.CommitFile("m.txt", "m", "add m"))

		err = execute(t, repo, "diverged")
		require.ErrorIs(t, err, backporterrors.ErrNotAncestor)
	})

	t.Run("accepts an explicit head branch", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))
		require.NoError(t, repo.CreateBranch("stable"))
		require.NoError(t, repo.CommitFile("f.txt", "f", "add f"))
		require.NoError(t, repo.CreateBranch("feature"))
		// Detached HEAD; the run must not depend on the checked-out branch.
		require.NoError(t, repo.RunGitCommand("checkout", "--detach", "HEAD"))

		require.NoError(t, execute(t, repo, "--head", "feature", "stable"))
		require.True(t, repo.IsAncestor(mustRev(t, repo, "stable"), mustRev(t, repo, "feature")))
	})
}

func mustRev(t *testing.T, repo *testhelpers.GitRepo, ref string) string {
	t.Helper()
	sha, err := repo.GetRevision(ref)
	require.NoError(t, err)
	return sha
}
