package engine

import (
	"context"
	"fmt"

	backporterrors "backport.dev/backport/internal/errors"
	"backport.dev/backport/internal/git"
	"backport.dev/backport/internal/output"
)

// rewriter holds the mutable state of one history rewrite: per-branch heads
// under construction, the forward/inverse commit maps, per-branch overlays of
// branch-local merge images, and the dirty flags that drive catch-up.
//
// Invariants maintained throughout:
//   - forward and inverse are exact mutual inverses over their shared domain
//   - every forward/inverse key is inserted at most once (duplicates are bugs)
//   - dirty[N-1] is never set; the most senior branch has nothing to catch up from
type rewriter struct {
	store    Store
	branches []string
	tips     []string
	identity git.Signature
	splog    *output.Splog

	items []*Item
	forks map[string]int

	heads    []string // rewritten tip per branch; "" = not yet touched
	forward  map[string]string
	inverse  map[string]string
	overlays []map[string]string
	dirty    []bool

	// cleanMemo caches commits whose entire ancestry is known untouched, so
	// repeated outside-parent resolutions skip re-walking side chains
	cleanMemo map[string]struct{}
}

func newRewriter(store Store, branches, tips []string, items []*Item, forks map[string]int, identity git.Signature, splog *output.Splog) *rewriter {
	n := len(branches)
	overlays := make([]map[string]string, n)
	for i := range overlays {
		overlays[i] = make(map[string]string)
	}
	return &rewriter{
		store:     store,
		branches:  branches,
		tips:      tips,
		identity:  identity,
		splog:     splog,
		items:     items,
		forks:     forks,
		heads:     make([]string, n),
		forward:   make(map[string]string),
		inverse:   make(map[string]string),
		overlays:  overlays,
		dirty:     make([]bool, n),
		cleanMemo: make(map[string]struct{}),
	}
}

// initialize seeds the rewrite state around the anchor, the oldest collected
// item and shared ancestor of everything being rewritten. The anchor maps to
// itself; every branch junior to it is dirty (it must later merge forward
// from the anchor). Branches senior to the anchor are untouched by
// construction, so their heads are seeded with their original tips and
// identity map entries; this is what guarantees every branch has a head when
// refs are finally published.
func (r *rewriter) initialize() {
	anchor := r.items[len(r.items)-1]

	// Branches senior to the anchor's collected segment never had commits
	// collected, so their original tips are correct as-is. Seeding keys off
	// the segment, not the edited target: if the anchor was reassigned junior,
	// the branches in between are left headless and the run fails loudly at
	// publish instead of silently keeping history they should have lost.
	for b := anchor.SegmentIndex + 1; b < len(r.branches); b++ {
		tip := r.tips[b]
		r.heads[b] = tip
		// Adjacent empty segments share tips; identity seeding must tolerate that.
		if _, ok := r.forward[tip]; !ok {
			r.forward[tip] = tip
			r.inverse[tip] = tip
		}
	}

	// The anchor itself is always unchanged.
	r.forward[anchor.SHA] = anchor.SHA
	r.inverse[anchor.SHA] = anchor.SHA
	r.heads[anchor.BranchIndex] = anchor.SHA

	for b := 0; b < anchor.BranchIndex; b++ {
		r.dirty[b] = true
	}
}

// catchUp ensures branch b's head reflects every more-senior change, fast
// forwarding or synthesizing merge commits level by level, and returns the
// original commit id that heads[b] now represents. The recursion over branch
// indices is expressed as an explicit climb and unwind.
func (r *rewriter) catchUp(ctx context.Context, b int) (string, error) {
	// Climb to the first clean (or most senior) level. Every level passed on
	// the way up is dirty and gets merged on the way back down.
	top := b
	for top < len(r.branches)-1 && r.dirty[top] {
		top++
	}

	if r.heads[top] == "" {
		return "", backporterrors.NewInvariantError("branch %s has no head to catch up from", r.branches[top])
	}
	orig, ok := r.inverse[r.heads[top]]
	if !ok {
		return "", backporterrors.NewInvariantError("head %s of branch %s has no inverse mapping", r.heads[top], r.branches[top])
	}

	for j := top - 1; j >= b; j-- {
		r.splog.Debug("Catching up branch %d...", j)
		seniorHead := r.heads[j+1]

		if r.heads[j] == "" {
			// Wholesale inheritance: the branch has no commits of its own yet,
			// so it simply adopts the senior head. No new commit, and the
			// inverse entry for this head already exists.
			r.heads[j] = seniorHead
		} else {
			tree, err := r.store.MergeTrees(ctx, r.heads[j], seniorHead)
			if err != nil {
				return "", err
			}
			message := fmt.Sprintf("Merge %s into %s\n", r.branches[j+1], r.branches[j])
			sha, err := r.store.CreateCommit(ctx, []string{r.heads[j], seniorHead}, r.identity, r.identity, message, tree)
			if err != nil {
				return "", err
			}
			r.heads[j] = sha

			if _, exists := r.inverse[sha]; exists {
				return "", backporterrors.NewInvariantError("inverse map already contains merge commit %s", sha)
			}
			r.inverse[sha] = orig
		}

		if _, exists := r.overlays[j][orig]; exists {
			return "", backporterrors.NewInvariantError("branch %s overlay already contains %s", r.branches[j], orig)
		}
		r.overlays[j][orig] = r.heads[j]
		r.dirty[j] = false
	}

	return orig, nil
}

// run executes the main rewrite pass: items oldest to newest, each cherry
// picked onto its target branch's head after the senior lines feeding that
// branch have been caught up. The oldest item is the anchor and is never
// rewritten.
func (r *rewriter) run(ctx context.Context) error {
	for i := len(r.items) - 2; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, prev := r.items[i], r.items[i+1]

		if _, err := r.catchUp(ctx, item.BranchIndex); err != nil {
			return err
		}

		if err := r.apply(ctx, item, prev); err != nil {
			return err
		}

		// Fold side-chain convergence in at this point of the timeline rather
		// than deferring it to the final catch-up.
		if forkIndex, ok := r.forks[item.SHA]; ok {
			if _, err := r.catchUp(ctx, forkIndex); err != nil {
				return err
			}
		}
	}

	_, err := r.catchUp(ctx, 0)
	return err
}

// apply cherry-picks one item's original commit onto its target branch head
// and registers the new commit in the maps.
func (r *rewriter) apply(ctx context.Context, item, prev *Item) error {
	commit, err := r.store.ReadCommit(item.SHA)
	if err != nil {
		return err
	}

	// The next-older item's commit is the diff base for the cherry-pick; it
	// must appear among the original parents.
	mainline := ""
	for _, p := range commit.Parents {
		if p == prev.SHA {
			mainline = p
			break
		}
	}
	if mainline == "" {
		return backporterrors.NewInvariantError("commit %s has no parent matching its chain predecessor %s", item.SHA, prev.SHA)
	}

	base := r.heads[item.BranchIndex]
	if base == "" {
		return backporterrors.NewInvariantError("branch %s has no head after catch-up", r.branches[item.BranchIndex])
	}

	r.splog.Debug("Cherry-picking %s onto %s (%s)", shortSHA(item.SHA), r.branches[item.BranchIndex], shortSHA(base))
	tree, err := r.store.CherryPickTree(ctx, item.SHA, base, mainline)
	if err != nil {
		return err
	}

	parents := make([]string, 0, len(commit.Parents))
	for _, p := range commit.Parents {
		if p == mainline {
			parents = append(parents, base)
			continue
		}
		resolved, err := r.resolveOutsideParent(ctx, p)
		if err != nil {
			return err
		}
		parents = append(parents, resolved)
	}

	sha, err := r.store.CreateCommit(ctx, parents, commit.Author, r.identity, commit.Message, tree)
	if err != nil {
		return err
	}

	if _, exists := r.forward[item.SHA]; exists {
		return backporterrors.NewInvariantError("forward map already contains %s", item.SHA)
	}
	if _, exists := r.inverse[sha]; exists {
		return backporterrors.NewInvariantError("inverse map already contains %s", sha)
	}
	r.forward[item.SHA] = sha
	r.inverse[sha] = item.SHA

	r.heads[item.BranchIndex] = sha
	for b := 0; b < item.BranchIndex; b++ {
		r.dirty[b] = true
	}
	return nil
}

// resolveOutsideParent maps a non-mainline original parent to the commit the
// rewritten history should reference. A parent that was itself rewritten is
// replaced by its image. A parent outside the edited region may be carried
// over unchanged only if every one of its ancestors is also untouched; if its
// ancestry was rewritten there is no sound remapping, and the run stops.
func (r *rewriter) resolveOutsideParent(ctx context.Context, parent string) (string, error) {
	if image, ok := r.forward[parent]; ok {
		return image, nil
	}

	stack := []string{parent}
	visited := make(map[string]struct{})

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, clean := r.cleanMemo[id]; clean {
			continue
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		if image, ok := r.forward[id]; ok {
			if image != id {
				return "", backporterrors.NewUnsupportedParentRemapError(parent, id)
			}
			// Identity-mapped commits (the anchor, seeded senior tips) are
			// unchanged and their ancestry is original by construction.
			continue
		}

		commit, err := r.store.ReadCommit(id)
		if err != nil {
			return "", err
		}
		stack = append(stack, commit.Parents...)
	}

	for id := range visited {
		r.cleanMemo[id] = struct{}{}
	}
	return parent, nil
}
