// Package gitutil runs the handful of git queries the hooks need. Every call
// carries a timeout so a hung git process never stalls the agent.
package gitutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every git invocation.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when git does not finish within the timeout.
var ErrTimeout = errors.New("gitutil: git timed out")

// Runner executes git with args in dir and returns its stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner shells out to the git binary on PATH.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: git %s", ErrTimeout, strings.Join(args, " "))
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("gitutil: git %s: %w", strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("gitutil: git %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return string(out), nil
}

// Repo runs git queries against one working tree.
type Repo struct {
	Dir     string
	Runner  Runner
	Timeout time.Duration
}

// New returns a Repo for dir backed by the git binary.
func New(dir string) *Repo {
	return &Repo{Dir: dir, Runner: ExecRunner{}, Timeout: DefaultTimeout}
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	runner := r.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	return runner.Run(ctx, r.Dir, args...)
}

func (r *Repo) lines(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result, nil
}

// Add stages one path.
func (r *Repo) Add(ctx context.Context, path string) error {
	_, err := r.run(ctx, "add", path)
	return err
}

// StagedFiles lists paths with staged changes.
func (r *Repo) StagedFiles(ctx context.Context) ([]string, error) {
	return r.lines(ctx, "diff", "--cached", "--name-only")
}

// UnstagedFiles lists tracked paths with unstaged changes.
func (r *Repo) UnstagedFiles(ctx context.Context) ([]string, error) {
	return r.lines(ctx, "diff", "--name-only")
}

// UntrackedFiles lists untracked paths that are not ignored.
func (r *Repo) UntrackedFiles(ctx context.Context) ([]string, error) {
	return r.lines(ctx, "ls-files", "--others", "--exclude-standard")
}

// StagedDiffStat returns `git diff --cached --stat`, trimmed.
func (r *Repo) StagedDiffStat(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "diff", "--cached", "--stat")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Status is a snapshot of uncommitted work.
type Status struct {
	Staged    []string
	Unstaged  []string
	Untracked []string
}

// Clean reports whether there is nothing to commit.
func (s Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0
}

// Status collects staged, unstaged and untracked files. A failing query
// contributes nothing; the first error is returned alongside the partial
// snapshot.
func (r *Repo) Status(ctx context.Context) (Status, error) {
	var (
		st       Status
		firstErr error
	)
	collect := func(dst *[]string, fn func(context.Context) ([]string, error)) {
		files, err := fn(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		*dst = files
	}
	collect(&st.Staged, r.StagedFiles)
	collect(&st.Unstaged, r.UnstagedFiles)
	collect(&st.Untracked, r.UntrackedFiles)
	return st, firstErr
}
