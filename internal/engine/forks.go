package engine

import (
	"context"

	"backport.dev/backport/internal/output"
)

// detectForks scans the DAG around the collected chain for commits reachable
// from more than one point, and records for each the most senior branch index
// that discovered it. The rewrite pass uses the table to fold side-chain
// convergence back in at the right point in the timeline.
//
// Items are processed oldest to newest. An item's expected parent is the
// next-older item; every other parent is a side-branch entry walked
// depth-first. Hitting an already-visited commit is a fork: the more senior
// claim wins so the convergence lands at the correctly stable point. Only
// forks that are themselves on the edited chain matter downstream, but the
// overhead of recording the rest is negligible. Forks of side chains are a
// documented limitation and not handled.
func detectForks(ctx context.Context, store Store, items []*Item, splog *output.Splog) (map[string]int, error) {
	visited := make(map[string]struct{})
	forks := make(map[string]int)

	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		expected := ""
		if i+1 < len(items) {
			expected = items[i+1].SHA
		}

		visited[item.SHA] = struct{}{}
		splog.Debug(" Checking parents of %s on branch %d...", item.SHA, item.BranchIndex)

		commit, err := store.ReadCommit(item.SHA)
		if err != nil {
			return nil, err
		}

		for _, parent := range commit.Parents {
			if parent == expected {
				continue
			}
			if err := walkSideChain(ctx, store, parent, item.BranchIndex, visited, forks, splog); err != nil {
				return nil, err
			}
		}
	}

	return forks, nil
}

// walkSideChain marks every commit reachable from entry as visited, recording
// forks where the walk meets already-visited history. Iterative with an
// explicit stack; history depth is unbounded.
func walkSideChain(ctx context.Context, store Store, entry string, branchIndex int, visited map[string]struct{}, forks map[string]int, splog *output.Splog) error {
	stack := []string{entry}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[id]; seen {
			splog.Debug("  Found fork commit %s.", id)
			if old, ok := forks[id]; !ok || branchIndex > old {
				forks[id] = branchIndex
			}
			continue
		}
		visited[id] = struct{}{}
		splog.Debug("  Found side chain commit %s.", id)

		commit, err := store.ReadCommit(id)
		if err != nil {
			return err
		}
		stack = append(stack, commit.Parents...)
	}

	return nil
}
