package git_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"backport.dev/backport/internal/git"
	"backport.dev/backport/testhelpers"
)

func TestOpenRepository(t *testing.T) {
	t.Run("opens a repository at its root", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)

		store, err := git.OpenRepository(repo.Dir, false)
		require.NoError(t, err)
		require.Equal(t, repo.Dir, store.Root())
	})

	t.Run("discovers the repository from a child directory", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		child := filepath.Join(repo.Dir, "some", "nested", "dir")
		require.NoError(t, os.MkdirAll(child, 0750))

		store, err := git.OpenRepository(child, true)
		require.NoError(t, err)
		require.Equal(t, repo.Dir, store.Root())
	})

	t.Run("refuses a child directory without discovery", func(t *testing.T) {
		repo, err := testhelpers.NewGitRepo(t.TempDir())
		require.NoError(t, err)
		child := filepath.Join(repo.Dir, "nested")
		require.NoError(t, os.MkdirAll(child, 0750))

		_, err = git.OpenRepository(child, false)
		require.Error(t, err)
	})

	t.Run("fails outside any repository", func(t *testing.T) {
		_, err := git.OpenRepository(t.TempDir(), false)
		require.Error(t, err)
	})
}

func TestHeadBranch(t *testing.T) {
	repo, store := newTestRepo(t)
	require.NoError(t, repo.CommitFile("a.txt", "a", "add a"))

	name, err := store.HeadBranch()
	require.NoError(t, err)
	require.Equal(t, "main", name)

	require.NoError(t, repo.CreateAndCheckoutBranch("feature"))
	name, err = store.HeadBranch()
	require.NoError(t, err)
	require.Equal(t, "feature", name)
}
