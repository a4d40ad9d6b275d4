package git

import (
	"context"

	backporterrors "backport.dev/backport/internal/errors"
)

// CheckWorkingTreeClean refuses to proceed if the working tree has any
// uncommitted, unstaged, untracked, or ignored-but-present changes. History
// rewriting with local changes around is how operators lose work, so the guard
// is strict.
func (r *Repository) CheckWorkingTreeClean(ctx context.Context) error {
	entries, err := r.runner.RunLines(ctx, "status", "--porcelain", "--ignored")
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return backporterrors.NewWorkingTreeNotCleanError(entries)
	}
	return nil
}
