// Package cli builds the secondbrain command tree. Hook handlers are exposed
// as hidden subcommands for the agent host; the rest is for people.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kingrea/secondbrain/internal/logging"
)

const (
	envProjectDir = "CLAUDE_PROJECT_DIR"
	envDebug      = "CLAUDE_HOOK_DEBUG"
)

// ExitError carries a non-zero exit code without an error message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Option customizes the command tree for tests.
type Option func(*runtime)

// WithClock overrides the current time.
func WithClock(now func() time.Time) Option {
	return func(r *runtime) {
		if now != nil {
			r.now = now
		}
	}
}

// WithWorkingDir overrides the directory commands start from.
func WithWorkingDir(dir string) Option {
	return func(r *runtime) {
		r.cwd = dir
	}
}

// runtime is state shared by every command in one invocation.
type runtime struct {
	v   *viper.Viper
	now func() time.Time
	cwd string
}

// projectDir is --project-dir or CLAUDE_PROJECT_DIR, possibly empty.
func (r *runtime) projectDir() string {
	return strings.TrimSpace(r.v.GetString("project-dir"))
}

// start is where project discovery begins.
func (r *runtime) start() string {
	if dir := r.projectDir(); dir != "" {
		return dir
	}
	return r.cwd
}

func (r *runtime) debug() bool {
	return r.v.GetBool("debug")
}

// logger opens the debug log under dir when debugging is on, and returns a
// nil logger otherwise.
func (r *runtime) logger(dir string) *logging.Logger {
	if !r.debug() {
		return nil
	}
	log, err := logging.New(dir)
	if err != nil {
		return nil
	}
	return log
}

// NewRootCmd returns the secondbrain command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	cwd, _ := os.Getwd()
	rt := &runtime{v: viper.New(), now: time.Now, cwd: cwd}
	for _, opt := range opts {
		opt(rt)
	}

	root := &cobra.Command{
		Use:   "secondbrain",
		Short: "Secondbrain - project knowledge records and agent hooks",
		Long: `secondbrain keeps a project's decisions, tasks, notes and discussions as YAML
records under .claude/data/, reports the ones that have gone stale, and runs the
agent hooks that keep the repository tidy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("project-dir", "", "Project directory (default: $"+envProjectDir+" or the working directory)")
	root.PersistentFlags().Bool("debug", false, "Append diagnostics to .claude/hook-debug.log (env: "+envDebug+")")
	_ = rt.v.BindPFlag("project-dir", root.PersistentFlags().Lookup("project-dir"))
	_ = rt.v.BindPFlag("debug", root.PersistentFlags().Lookup("debug"))
	_ = rt.v.BindEnv("project-dir", envProjectDir)
	_ = rt.v.BindEnv("debug", envDebug)

	root.AddCommand(
		newHookCmd(rt),
		newFreshnessCmd(rt),
		newStatusCmd(rt),
		newBrowseCmd(rt),
	)
	return root
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) int {
	root := NewRootCmd(opts...)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
