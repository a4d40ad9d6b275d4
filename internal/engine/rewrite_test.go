package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"backport.dev/backport/internal/git"
	"backport.dev/backport/internal/output"
)

func runRewriter(t *testing.T, ctx context.Context, store Store, branches []string, edit func([]*Item)) *rewriter {
	t.Helper()
	splog := output.NewSplog()

	tips := resolveTips(t, store, branches)
	items, err := collectItems(ctx, store, branches, tips, splog)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	if edit != nil {
		edit(items)
	}

	forks, err := detectForks(ctx, store, items, splog)
	require.NoError(t, err)

	identity := git.Signature{Name: "Backport", Email: "backport@example.com", When: time.Now()}
	rw := newRewriter(store, branches, tips, items, forks, identity, splog)
	rw.initialize()
	require.NoError(t, rw.run(ctx))
	return rw
}

func TestRewriter(t *testing.T) {
	ctx := context.Background()

	t.Run("forward and inverse maps stay mutual inverses", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))
		require.NoError(t, repo.CreateBranch("stable"))
		require.NoError(t, repo.CommitFile("f1.txt", "f1", "add f1"))
		require.NoError(t, repo.CommitFile("f2.txt", "f2", "add f2"))
		require.NoError(t, repo.CommitFile("f3.txt", "f3", "add f3"))

		require.NoError(t, repo.RunGitCommand("branch", "release", "stable"))

		store := openStore(t, repo)
		branches := []string{"main", "release", "stable"}

		// Move the middle commit to release so the run synthesizes a merge.
		rw := runRewriter(t, ctx, store, branches, func(items []*Item) {
			items[1].BranchIndex = 1
		})

		for orig, image := range rw.forward {
			require.Equal(t, orig, rw.inverse[image], "inverse of image %s", image)
		}
		for _, head := range rw.heads {
			require.NotEmpty(t, head)
		}
		for b, d := range rw.dirty {
			require.False(t, d, "branch %d still dirty after run", b)
		}
		// Synthesized merge commits appear in the inverse map only.
		require.Greater(t, len(rw.inverse), len(rw.forward))
	})

	t.Run("fast-forward catch-up records an overlay but no new inverse entry", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.CommitFile("base.txt", "base", "add base"))
		require.NoError(t, repo.CreateBranch("stable"))
		require.NoError(t, repo.CommitFile("r1.txt", "r1", "add r1"))
		r1, err := repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.NoError(t, repo.CreateBranch("release"))
		require.NoError(t, repo.CommitFile("m1.txt", "m1", "add m1"))

		store := openStore(t, repo)
		branches := []string{"main", "release", "stable"}
		rw := runRewriter(t, ctx, store, branches, nil)

		// The head branch fast-forwarded onto release before its cherry-pick:
		// the shared head keeps a single inverse entry, and the overlay records
		// which original the branch was caught up to.
		require.Len(t, rw.inverse, len(rw.forward))
		require.Equal(t, r1, rw.overlays[0][r1])
	})
}
