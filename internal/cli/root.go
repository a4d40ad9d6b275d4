// Package cli wires flag parsing, repository discovery, and preflight checks
// around the backport engine.
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"backport.dev/backport/internal/config"
	"backport.dev/backport/internal/engine"
	backporterrors "backport.dev/backport/internal/errors"
	"backport.dev/backport/internal/git"
	"backport.dev/backport/internal/output"
	"backport.dev/backport/internal/tui"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	var (
		repoPath    string
		noDiscovery bool
		head        string
		noBackup    bool
		noEdit      bool
	)

	cmd := &cobra.Command{
		Use:   "git-backport [flags] <ancestor>...",
		Short: "Interactively backport commits to ancestor branches",
		Long: `Interactively backport commits to ancestor branches.

Branches form a seniority chain: the head branch, then each ancestor from
most-junior-adjacent to most senior. Every collected commit can be reassigned
to a different seniority level; each branch is then rewritten to contain
exactly its assigned commits plus everything merged forward from every
more-senior branch.

Known issues:
- If you backport past a loop, the paths not taken are currently not rebased.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			splog := output.NewSplog()
			defer splog.Close()

			repo, err := git.OpenRepository(repoPath, !noDiscovery)
			if err != nil {
				return err
			}

			if err := repo.CheckGitVersion(cmd.Context()); err != nil {
				return err
			}

			if err := repo.CheckWorkingTreeClean(cmd.Context()); err != nil {
				return err
			}

			headBranch := head
			if headBranch == "" {
				headBranch, err = repo.HeadBranch()
				if err != nil {
					return err
				}
			}

			branches := append([]string{headBranch}, args...)
			if err := verifyChain(repo, branches); err != nil {
				return err
			}
			splog.Debug("Branches specified: %v", branches)

			cfg, err := config.Load(repo.Root())
			if err != nil {
				return err
			}

			var identity git.Signature
			if cfg.CommitterName != "" && cfg.CommitterEmail != "" {
				identity = git.Signature{
					Name:  cfg.CommitterName,
					Email: cfg.CommitterEmail,
					When:  time.Now(),
				}
			}

			var editor engine.Editor
			if noEdit {
				editor = engine.NoopEditor{}
			} else {
				if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
					return fmt.Errorf("stdin is not a terminal; use --no-edit to run without the interactive editor")
				}
				editor = tui.Editor{}
			}

			err = engine.Backport(cmd.Context(), engine.Options{
				Store:           repo,
				Branches:        branches,
				Editor:          editor,
				Backup:          !noBackup,
				BackupNamespace: cfg.BackupNamespace,
				Identity:        identity,
				Splog:           splog,
			})
			if errors.Is(err, backporterrors.ErrNothingToBackport) {
				splog.Info("Nothing to backport: all branches already point into the same history.")
				return nil
			}
			if errors.Is(err, backporterrors.ErrEditAborted) {
				splog.Info("Aborted. No branches were touched.")
				return err
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&repoPath, "repository", "r", ".", "Path to the repository (or any directory inside it).")
	cmd.Flags().BoolVarP(&noDiscovery, "no-discovery", "D", false, "Disables accepting child paths.")
	cmd.Flags().StringVarP(&head, "head", "H", "", "The head (most junior) branch. Defaults to the current branch.")
	cmd.Flags().BoolVarP(&noBackup, "no-backup", "B", false, "Disables backup branches.")
	cmd.Flags().BoolVar(&noEdit, "no-edit", false, "Skips the interactive editor and keeps the collected assignment.")

	return cmd
}

// verifyChain checks that every branch exists and that each senior branch is
// an ancestor of its junior neighbor, so the chain is strictly ordered before
// any mutation.
func verifyChain(repo *git.Repository, branches []string) error {
	tips := make([]string, len(branches))
	for i, branch := range branches {
		tip, err := repo.ResolveBranch(branch)
		if err != nil {
			return err
		}
		tips[i] = tip
	}

	for i := 0; i < len(branches)-1; i++ {
		ok, err := repo.IsAncestor(tips[i+1], tips[i])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s does not reach %s", backporterrors.ErrNotAncestor, branches[i], branches[i+1])
		}
	}
	return nil
}
