package engine

import (
	"context"

	backporterrors "backport.dev/backport/internal/errors"
	"backport.dev/backport/internal/output"
)

// collectItems walks each adjacent branch pair backward from the junior tip,
// stopping (exclusive) at the senior tip, and returns the concatenated item
// sequence: newest-first within each segment, segments ordered head to most
// senior.
func collectItems(ctx context.Context, store Store, branches, tips []string, splog *output.Splog) ([]*Item, error) {
	var items []*Item

	for b := 0; b < len(branches)-1; b++ {
		seniorTip := tips[b+1]
		// Reachability verdicts are stable for a fixed target, so the memo is
		// shared across the whole segment walk.
		memo := make(map[string]bool)

		for cur := tips[b]; cur != seniorTip; {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			commit, err := store.ReadCommit(cur)
			if err != nil {
				return nil, err
			}
			splog.Debug("Found commit: %s on %s", commit.SHA, branches[b])

			var parent string
			switch len(commit.Parents) {
			case 0:
				return nil, backporterrors.NewInvariantError(
					"walk from %s reached root commit %s without finding the tip of %s", branches[b], cur, branches[b+1])
			case 1:
				parent = commit.Parents[0]
			default:
				splog.Debug("Found %d parents. Scanning...", len(commit.Parents))
				var matches int
				parent, matches, err = selectMainlineParent(ctx, store, commit.Parents, seniorTip, memo)
				if err != nil {
					return nil, err
				}
				if matches != 1 {
					return nil, backporterrors.NewAmbiguousAncestorError(commit.SHA, branches[b], matches)
				}
			}

			items = append(items, &Item{SHA: cur, BranchIndex: b, SegmentIndex: b})
			cur = parent
		}
	}

	return items, nil
}

// selectMainlineParent scans a merge commit's parents for the unique one whose
// ancestry reaches the senior tip, and returns it along with the match count.
// Parents are scanned starting from the last-listed, as merged-in branches
// conventionally appear there. The caller requires exactly one match.
func selectMainlineParent(ctx context.Context, store Store, parents []string, target string, memo map[string]bool) (string, int, error) {
	var matches []string
	for i := len(parents) - 1; i >= 0; i-- {
		ok, err := reaches(ctx, store, parents[i], target, memo)
		if err != nil {
			return "", 0, err
		}
		if ok {
			matches = append(matches, parents[i])
		}
	}
	if len(matches) == 0 {
		return "", 0, nil
	}
	return matches[0], len(matches), nil
}

// reaches reports whether target equals from or is among from's ancestors.
// Verdicts are memoized: a positive answer caches the root, a negative answer
// caches every commit the exhausted search visited.
func reaches(ctx context.Context, store Store, from, target string, memo map[string]bool) (bool, error) {
	if from == target {
		return true, nil
	}
	if v, ok := memo[from]; ok {
		return v, nil
	}

	visited := make(map[string]struct{})
	stack := []string{from}
	found := false

	for len(stack) > 0 && !found {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id == target {
			found = true
			break
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		if v, ok := memo[id]; ok {
			if v {
				found = true
			}
			continue
		}

		commit, err := store.ReadCommit(id)
		if err != nil {
			return false, err
		}
		for i := len(commit.Parents) - 1; i >= 0; i-- {
			stack = append(stack, commit.Parents[i])
		}
	}

	if found {
		memo[from] = true
	} else {
		for id := range visited {
			memo[id] = false
		}
	}
	return found, nil
}
