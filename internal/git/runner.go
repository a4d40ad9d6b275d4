package git

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	backporterrors "backport.dev/backport/internal/errors"
)

// DefaultCommandTimeout is the default timeout for git commands
const DefaultCommandTimeout = 5 * time.Minute

// CommandRunner handles execution of git commands in a repository directory
type CommandRunner struct {
	workingDir string
}

// NewCommandRunner creates a new CommandRunner
func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir}
}

// Run executes a git command with the given context and returns trimmed output
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	out, _, err := r.runInternal(ctx, nil, "", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RunWithEnv executes a git command with extra environment variables and
// returns trimmed output
func (r *CommandRunner) RunWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	out, _, err := r.runInternal(ctx, env, "", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RunWithInputAndEnv executes a git command feeding input on stdin, with extra
// environment variables, and returns trimmed output
func (r *CommandRunner) RunWithInputAndEnv(ctx context.Context, input string, env []string, args ...string) (string, error) {
	out, _, err := r.runInternal(ctx, env, input, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RunExitCode executes a git command and returns trimmed output plus the
// process exit code. A non-zero exit is not turned into an error; callers that
// need to distinguish expected non-zero exits (e.g. merge-tree conflicts) use
// this variant.
func (r *CommandRunner) RunExitCode(ctx context.Context, args ...string) (string, int, error) {
	out, code, err := r.runInternal(ctx, nil, "", args...)
	if err != nil {
		var cmdErr *backporterrors.GitCommandError
		if code >= 0 && errors.As(err, &cmdErr) {
			// Process ran and exited non-zero; surface output and code.
			return strings.TrimSpace(out), code, nil
		}
		return "", code, err
	}
	return strings.TrimSpace(out), code, nil
}

// RunLines executes a git command and returns output as lines
func (r *CommandRunner) RunLines(ctx context.Context, args ...string) ([]string, error) {
	output, err := r.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

// runInternal is the internal implementation shared by all Run variants
func (r *CommandRunner) runInternal(ctx context.Context, env []string, input string, args ...string) (string, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		if ctx.Err() == context.DeadlineExceeded {
			return stdout.String(), code, backporterrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), ctx.Err())
		}
		return stdout.String(), code, backporterrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), err)
	}
	return stdout.String(), 0, nil
}
