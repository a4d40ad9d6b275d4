package engine

import (
	"context"
	"fmt"

	"backport.dev/backport/internal/output"
)

// createBackups snapshots every input branch's pre-run tip under a side ref in
// the given namespace. Existing refs are never overwritten; on collision a
// numeric suffix is appended until an unused name is found.
func createBackups(ctx context.Context, store Store, namespace string, branches, tips []string, splog *output.Splog) error {
	for i, branch := range branches {
		base := namespace + "/" + branch
		name := base
		for suffix := 1; store.HasRef(name); suffix++ {
			name = fmt.Sprintf("%s-%d", base, suffix)
		}
		if err := store.CreateRef(ctx, name, tips[i]); err != nil {
			return err
		}
		splog.Debug("Backed up %s to %s", branch, name)
	}
	return nil
}
