package engine

import (
	"context"

	"backport.dev/backport/internal/config"
	backporterrors "backport.dev/backport/internal/errors"
	"backport.dev/backport/internal/git"
	"backport.dev/backport/internal/output"
)

// Options parameterizes one backport run
type Options struct {
	// Store is the object store the run operates on
	Store Store
	// Branches is the seniority chain: index 0 is the head (junior) branch,
	// the last entry the most senior. Each branch must be an ancestor of its
	// junior neighbor before the run.
	Branches []string
	// Editor reassigns collected commits to target branches. Nil keeps the
	// collected assignment.
	Editor Editor
	// Backup snapshots original branch tips under side refs before rewriting
	Backup bool
	// BackupNamespace overrides the default backup ref namespace
	BackupNamespace string
	// Identity overrides the committer identity for synthesized commits.
	// Zero value means the store's default signature.
	Identity git.Signature
	// Splog receives run progress. Nil means a default console logger.
	Splog *output.Splog
}

// Backport collects the commit chain across the branch seniority chain, hands
// it to the editor for reassignment, and rewrites every branch's history so it
// contains exactly its assigned commits plus all changes merged forward from
// every more-senior branch. Branch refs are only updated as the very last
// step; an abort anywhere earlier leaves all original branches untouched.
func Backport(ctx context.Context, opts Options) error {
	if len(opts.Branches) < 2 {
		return backporterrors.ErrEmptyBranchChain
	}

	splog := opts.Splog
	if splog == nil {
		splog = output.NewSplog()
	}
	store := opts.Store

	tips := make([]string, len(opts.Branches))
	for i, branch := range opts.Branches {
		tip, err := store.ResolveBranch(branch)
		if err != nil {
			return err
		}
		tips[i] = tip
	}

	identity := opts.Identity
	if identity.Name == "" {
		var err error
		identity, err = store.DefaultSignature(ctx)
		if err != nil {
			return err
		}
	}

	splog.Info("Collecting commits...")
	items, err := collectItems(ctx, store, opts.Branches, tips, splog)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return backporterrors.ErrNothingToBackport
	}

	if opts.Editor != nil {
		if err := runEdit(opts.Editor, opts.Branches, items, store); err != nil {
			return err
		}
	}

	splog.Info("Detecting forks...")
	forks, err := detectForks(ctx, store, items, splog)
	if err != nil {
		return err
	}

	if opts.Backup {
		namespace := opts.BackupNamespace
		if namespace == "" {
			namespace = config.DefaultBackupNamespace
		}
		splog.Info("Creating backup refs...")
		if err := createBackups(ctx, store, namespace, opts.Branches, tips, splog); err != nil {
			return err
		}
	}

	splog.Info("Transforming history...")
	rw := newRewriter(store, opts.Branches, tips, items, forks, identity, splog)
	rw.initialize()
	if err := rw.run(ctx); err != nil {
		return err
	}

	splog.Info("Setting branches...")
	// Every final head is checked before any ref moves; a hole in the heads
	// must abort the run with all original branches still in place.
	for i, branch := range opts.Branches {
		if rw.heads[i] == "" {
			return backporterrors.NewInvariantError("branch %s has no final head", branch)
		}
	}
	for i, branch := range opts.Branches {
		if err := store.SetBranchRef(ctx, branch, rw.heads[i]); err != nil {
			return err
		}
	}

	return nil
}

// runEdit builds the immutable view, invokes the editor once, validates its
// reassignment events, and applies them to the items. This is the run's single
// suspension point; the editor signaling an error aborts before any rewrite
// has begun.
func runEdit(editor Editor, branches []string, items []*Item, store Store) error {
	view := EditView{
		Branches: append([]string(nil), branches...),
		Items:    make([]ItemView, len(items)),
	}
	for i, item := range items {
		commit, err := store.ReadCommit(item.SHA)
		if err != nil {
			return err
		}
		view.Items[i] = ItemView{
			SHA:         item.SHA,
			ShortSHA:    shortSHA(item.SHA),
			Subject:     subjectOf(commit.Message),
			Author:      commit.Author.Name,
			BranchIndex: item.BranchIndex,
		}
	}

	events, err := editor.Edit(view)
	if err != nil {
		return err
	}

	for _, event := range events {
		if event.ItemIndex < 0 || event.ItemIndex >= len(items) {
			return backporterrors.NewInvariantError("editor returned reassignment for item %d, have %d items", event.ItemIndex, len(items))
		}
		if event.BranchIndex < 0 || event.BranchIndex >= len(branches) {
			return backporterrors.NewInvariantError("editor returned branch index %d for item %d, have %d branches", event.BranchIndex, event.ItemIndex, len(branches))
		}
		items[event.ItemIndex].BranchIndex = event.BranchIndex
	}
	return nil
}
