// Package hooks implements the agent hook handlers. Each handler reads the
// JSON event from stdin, does its work against the project, and answers with
// at most one JSON response on stdout. Handlers never fail the agent: errors
// are logged and the hook exits quietly.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/tailscale/hujson"

	"github.com/kingrea/secondbrain/internal/gitutil"
	"github.com/kingrea/secondbrain/internal/logging"
)

// maxStdinBytes caps stdin reads; hook payloads are small JSON objects.
const maxStdinBytes = 1 << 20

// Exit codes understood by the host.
const (
	ExitContinue = 0
	ExitBlock    = 2
)

// ToolInput is the subset of tool arguments the handlers inspect.
type ToolInput struct {
	FilePath string `json:"file_path"`
	Command  string `json:"command"`
}

// Input is the hook event read from stdin.
type Input struct {
	CWD           string    `json:"cwd"`
	SessionID     string    `json:"session_id"`
	HookEventName string    `json:"hook_event_name"`
	ToolName      string    `json:"tool_name"`
	ToolInput     ToolInput `json:"tool_input"`
}

// ReadInput decodes the event. Unreadable or malformed input yields an empty
// Input; comments and trailing commas are tolerated.
func ReadInput(r io.Reader) (Input, error) {
	var in Input
	if r == nil {
		return in, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxStdinBytes))
	if err != nil {
		return Input{}, fmt.Errorf("hooks: read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return in, nil
	}
	standard, err := hujson.Standardize(data)
	if err != nil {
		return Input{}, fmt.Errorf("hooks: parse stdin: %w", err)
	}
	if err := json.Unmarshal(standard, &in); err != nil {
		return Input{}, fmt.Errorf("hooks: decode stdin: %w", err)
	}
	return in, nil
}

// Response is what a handler prints. The zero Response prints nothing.
type Response struct {
	Result   string `json:"result,omitempty"`
	Decision string `json:"decision,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Continue adds informational context and lets the agent proceed.
func Continue(message string) Response {
	return Response{Result: "continue", Message: message}
}

// Notify reports a short status line.
func Notify(message string) Response {
	return Response{Message: message}
}

// Block stops the agent with reason.
func Block(reason string) Response {
	return Response{Decision: "block", Reason: reason}
}

// Empty reports whether there is nothing to print.
func (r Response) Empty() bool {
	return r == Response{}
}

// ExitCode maps the response to the process exit code.
func (r Response) ExitCode() int {
	if r.Decision == "block" {
		return ExitBlock
	}
	return ExitContinue
}

// Write prints the response as one JSON line unless it is empty.
func (r Response) Write(w io.Writer) error {
	if r.Empty() {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// Launcher starts a background process that outlives the hook.
type Launcher interface {
	Start(dir, name string, args ...string) error
}

// Env is everything a handler may touch outside its input.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	// Cwd is the process working directory.
	Cwd string
	// ProjectDir is CLAUDE_PROJECT_DIR; empty when the host did not set it.
	ProjectDir string
	Home       string
	Now        func() time.Time
	Log        *logging.Logger
	Git        gitutil.Runner
	Launcher   Launcher
	LookPath   func(file string) (string, error)
}

// DefaultEnv wires the real process environment.
func DefaultEnv(projectDir string, log *logging.Logger) *Env {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	return &Env{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Cwd:        cwd,
		ProjectDir: projectDir,
		Home:       home,
		Now:        time.Now,
		Log:        log,
		Git:        gitutil.ExecRunner{},
		Launcher:   detachedLauncher{},
		LookPath:   exec.LookPath,
	}
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// start is the directory project discovery begins from.
func (e *Env) start(in Input) string {
	if strings.TrimSpace(in.CWD) != "" {
		return in.CWD
	}
	return e.Cwd
}

// workDir is the project directory for git and marketplace checks, falling
// back to the working directory.
func (e *Env) workDir() string {
	if e.ProjectDir != "" {
		return e.ProjectDir
	}
	return e.Cwd
}

func (e *Env) repo(dir string) *gitutil.Repo {
	return &gitutil.Repo{Dir: dir, Runner: e.Git, Timeout: gitutil.DefaultTimeout}
}

// Handler answers one hook event.
type Handler func(ctx context.Context, env *Env, in Input) (Response, error)

var registry = map[string]Handler{
	"freshness-check":      FreshnessCheck,
	"session-context":      SessionContext,
	"sidebar-check":        SidebarCheck,
	"search-index-update":  SearchIndexUpdate,
	"auto-stage":           AutoStage,
	"pre-stop-commit":      PreStopCommit,
	"validate-marketplace": ValidateMarketplace,
	"backup-settings":      BackupSettings,
}

// Names lists the registered hooks in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the handler registered under name.
func Lookup(name string) (Handler, bool) {
	h, ok := registry[name]
	return h, ok
}

// Run executes the named hook against env and returns the exit code. Only an
// unknown name is an error; handler failures are logged and swallowed.
func Run(ctx context.Context, name string, env *Env) (int, error) {
	handler, ok := Lookup(name)
	if !ok {
		return ExitContinue, fmt.Errorf("hooks: unknown hook %q", name)
	}
	log := env.Log.With(name)
	scoped := *env
	scoped.Log = log

	in, err := ReadInput(env.Stdin)
	if err != nil {
		log.Printf("input ignored: %v", err)
	}
	log.Printf("event=%s tool=%s", in.HookEventName, in.ToolName)

	resp, err := handler(ctx, &scoped, in)
	if err != nil {
		log.Printf("failed: %v", err)
		return ExitContinue, nil
	}
	if err := resp.Write(env.Stdout); err != nil {
		log.Printf("write response: %v", err)
		return ExitContinue, nil
	}
	return resp.ExitCode(), nil
}
