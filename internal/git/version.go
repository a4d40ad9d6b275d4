package git

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	backporterrors "backport.dev/backport/internal/errors"
)

// Tree-level merges and cherry-picks use `git merge-tree --write-tree`, and
// the cherry-pick variant needs --merge-base; both shipped with git 2.40.
const (
	minGitMajor = 2
	minGitMinor = 40
)

var gitVersionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

// CheckGitVersion verifies the installed git is recent enough for the
// merge-tree plumbing the rewrite shells out to, so an old installation fails
// up front with a legible error instead of dying mid-rewrite.
func (r *Repository) CheckGitVersion(ctx context.Context) error {
	out, err := r.runner.Run(ctx, "version")
	if err != nil {
		return err
	}

	major, minor, err := parseGitVersion(out)
	if err != nil {
		return err
	}
	if supportedGitVersion(major, minor) {
		return nil
	}
	return backporterrors.NewGitVersionError(out, fmt.Sprintf("%d.%d", minGitMajor, minGitMinor))
}

func parseGitVersion(output string) (major, minor int, err error) {
	matches := gitVersionPattern.FindStringSubmatch(output)
	if matches == nil {
		return 0, 0, fmt.Errorf("cannot parse git version from %q", output)
	}
	major, _ = strconv.Atoi(matches[1])
	minor, _ = strconv.Atoi(matches[2])
	return major, minor, nil
}

func supportedGitVersion(major, minor int) bool {
	return major > minGitMajor || (major == minGitMajor && minor >= minGitMinor)
}
