package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/secondbrain/internal/config"
	"github.com/kingrea/secondbrain/internal/logging"
	"github.com/kingrea/secondbrain/internal/project"
)

var testNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)

type fakeGit struct {
	mu      sync.Mutex
	outputs map[string]string
	fail    map[string]bool
	calls   []string
}

func (f *fakeGit) Run(_ context.Context, dir string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.Join(args, " ")
	f.calls = append(f.calls, dir+": "+key)
	if f.fail[key] {
		return "", errors.New("git failed")
	}
	return f.outputs[key], nil
}

type started struct {
	dir  string
	name string
	args []string
}

type fakeLauncher struct{ started []started }

func (f *fakeLauncher) Start(dir, name string, args ...string) error {
	f.started = append(f.started, started{dir: dir, name: name, args: args})
	return nil
}

type harness struct {
	env      *Env
	stdout   *bytes.Buffer
	git      *fakeGit
	launcher *fakeLauncher
}

func newHarness(t *testing.T, cwd string) *harness {
	t.Helper()
	h := &harness{
		stdout:   &bytes.Buffer{},
		git:      &fakeGit{outputs: map[string]string{}, fail: map[string]bool{}},
		launcher: &fakeLauncher{},
	}
	h.env = &Env{
		Stdin:    strings.NewReader(""),
		Stdout:   h.stdout,
		Cwd:      cwd,
		Home:     t.TempDir(),
		Now:      func() time.Time { return testNow },
		Git:      h.git,
		Launcher: h.launcher,
		LookPath: func(string) (string, error) { return "/usr/bin/qmd", nil },
	}
	return h
}

func (h *harness) run(t *testing.T, name string, in string) (int, Response) {
	t.Helper()
	h.stdout.Reset()
	h.env.Stdin = strings.NewReader(in)
	code, err := Run(context.Background(), name, h.env)
	require.NoError(t, err)
	var resp Response
	if out := strings.TrimSpace(h.stdout.String()); out != "" {
		require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout: %s", out)
	}
	return code, resp
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func toolEvent(tool, key, value string) string {
	payload, _ := json.Marshal(map[string]any{
		"hook_event_name": "PostToolUse",
		"tool_name":       tool,
		"tool_input":      map[string]string{key: value},
	})
	return string(payload)
}

func TestReadInput(t *testing.T) {
	in, err := ReadInput(strings.NewReader(`{
		// host payload
		"cwd": "/work",
		"tool_name": "Write",
		"tool_input": {"file_path": "/work/a.md", "content": "x"},
	}`))
	require.NoError(t, err)
	require.Equal(t, "/work", in.CWD)
	require.Equal(t, "/work/a.md", in.ToolInput.FilePath)

	in, err = ReadInput(strings.NewReader("   "))
	require.NoError(t, err)
	require.Equal(t, Input{}, in)

	in, err = ReadInput(strings.NewReader("{not json"))
	require.Error(t, err)
	require.Equal(t, Input{}, in)
}

func TestResponseWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Response{}.Write(&buf))
	require.Empty(t, buf.String())

	require.NoError(t, Continue("a <b> & c").Write(&buf))
	require.Equal(t, `{"result":"continue","message":"a <b> & c"}`+"\n", buf.String())
	require.Equal(t, ExitContinue, Continue("x").ExitCode())
	require.Equal(t, ExitBlock, Block("x").ExitCode())
}

func TestRunUnknownHook(t *testing.T) {
	h := newHarness(t, t.TempDir())
	_, err := Run(context.Background(), "nope", h.env)
	require.Error(t, err)
	require.Len(t, Names(), 8)
}

func TestRunMalformedInputStillRuns(t *testing.T) {
	h := newHarness(t, t.TempDir())
	h.env.ProjectDir = h.env.Cwd
	h.git.outputs["ls-files --others --exclude-standard"] = "new.txt\n"
	code, resp := h.run(t, "pre-stop-commit", "{broken")
	require.Equal(t, ExitBlock, code)
	require.Equal(t, "block", resp.Decision)
}

const freshnessConfig = `# secondbrain config
project:
  name: Atlas
entities:
  tasks:
    enabled: true
    stale_after_days: 30
`

func TestFreshnessCheckReportsAndRateLimits(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/data/config.yaml": freshnessConfig,
		".claude/data/tasks/records.yaml": `records:
  - id: T1
    title: Write docs
    status: open
    created: 2024-01-01
  - id: T2
    status: done
    created: 2023-01-01
`,
	})
	h := newHarness(t, filepath.Join(root, "src"))

	code, resp := h.run(t, "freshness-check", `{"hook_event_name":"UserPromptSubmit"}`)
	require.Equal(t, ExitContinue, code)
	require.Equal(t, "continue", resp.Result)
	require.Contains(t, resp.Message, "**Secondbrain Freshness:** 1 item(s) may need review:")
	require.Contains(t, resp.Message, "- [tasks] T1: Write docs (status: open) — 60 days old")

	cfg, err := config.LoadProject(root)
	require.NoError(t, err)
	last, ok := cfg.LastFreshnessCheck()
	require.True(t, ok)
	require.True(t, last.Equal(testNow))
	data, err := os.ReadFile(project.ConfigFile(root))
	require.NoError(t, err)
	require.Equal(t, freshnessConfig, string(data), "config.yaml must stay byte for byte")
	require.FileExists(t, project.StateFile(root))

	h.env.Now = func() time.Time { return testNow.Add(30 * time.Minute) }
	_, resp = h.run(t, "freshness-check", "")
	require.True(t, resp.Empty(), "second check within the hour should be silent")
}

func TestFreshnessCheckOutsideProject(t *testing.T) {
	h := newHarness(t, t.TempDir())
	code, resp := h.run(t, "freshness-check", "")
	require.Equal(t, ExitContinue, code)
	require.True(t, resp.Empty())
}

func TestFreshnessCheckNothingStaleStillStamps(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{".claude/data/config.yaml": freshnessConfig})
	h := newHarness(t, root)
	_, resp := h.run(t, "freshness-check", "")
	require.True(t, resp.Empty())
	cfg, err := config.LoadProject(root)
	require.NoError(t, err)
	require.False(t, cfg.FreshnessDue(testNow))
}

func TestFreshnessCheckLogsSkippedConfig(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/data/config.yaml":        "project: Atlas\nentities:\n  tasks:\n    enabled: true\n  notes:\n    stale_after_days: thirty\n",
		".claude/data/tasks/records.yaml": "records:\n  - id: T1\n    created: 2023-01-01\n",
	})
	var log bytes.Buffer
	h := newHarness(t, root)
	h.env.Log = logging.NewWriter(&log)

	_, resp := h.run(t, "freshness-check", "")
	require.Contains(t, resp.Message, "- [tasks] T1")
	require.Contains(t, log.String(), "config: project is not a mapping")
	require.Contains(t, log.String(), "config: entity notes:")
}

func TestSessionContext(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/data/config.yaml": freshnessConfig,
		".claude/data/tasks/records.yaml": "records:\n  - id: T1\n    title: Ship it\n    created: 2024-02-01\n",
	})
	h := newHarness(t, "/")
	_, resp := h.run(t, "session-context", `{"cwd":"`+root+`"}`)
	require.Equal(t, "continue", resp.Result)
	require.Contains(t, resp.Message, "**Atlas Secondbrain**")
	require.Contains(t, resp.Message, "- Tasks: 1")
	require.Contains(t, resp.Message, `- Last task: "Ship it" (2024-02-01)`)
}

func TestDocsLink(t *testing.T) {
	require.Equal(t, "/guide/intro", DocsLink("guide/intro.md"))
	require.Equal(t, "/guide/", DocsLink("guide/index.md"))
	require.Equal(t, "/faq", DocsLink("faq.md"))
}

func TestSidebarCheck(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/data/config.yaml":  freshnessConfig,
		"docs/.vitepress/config.ts": `export default { themeConfig: { sidebar: [{ link: '/guide/intro' }, { link: "reference/api" }] } }`,
	})
	h := newHarness(t, root)

	cases := []struct {
		file string
		warn bool
	}{
		{"docs/guide/intro.md", false},
		{"docs/reference/api.md", false},
		{"docs/guide/orphan.md", true},
		{"docs/guide/index.md", false},
		{"docs/.vitepress/theme/notes.md", false},
		{"README.md", false},
		{"docs/guide/image.png", false},
	}
	for _, tc := range cases {
		_, resp := h.run(t, "sidebar-check", toolEvent("Write", "file_path", filepath.Join(root, tc.file)))
		if tc.warn {
			require.Contains(t, resp.Message, "New document `/guide/orphan` is not linked", tc.file)
		} else {
			require.True(t, resp.Empty(), "%s: unexpected %+v", tc.file, resp)
		}
	}
}

func TestSidebarCheckWithoutConfigAssumesLinked(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{".claude/data/config.yaml": freshnessConfig})
	h := newHarness(t, root)
	_, resp := h.run(t, "sidebar-check", toolEvent("Edit", "file_path", filepath.Join(root, "docs/new.md")))
	require.True(t, resp.Empty())
}

func TestSearchIndexUpdate(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/data/config.yaml":    freshnessConfig,
		".claude/search/index.sqlite": "x",
	})
	h := newHarness(t, root)

	_, resp := h.run(t, "search-index-update", toolEvent("Write", "file_path", filepath.Join(root, "docs/guide/a.md")))
	require.True(t, resp.Empty())
	require.Len(t, h.launcher.started, 1)
	require.Equal(t, started{dir: root, name: "qmd", args: []string{"index", "--incremental"}}, h.launcher.started[0])

	for _, file := range []string{"docs/TEMPLATE.md", "docs/.vitepress/x.md", "src/a.md", "docs/a.ts"} {
		h.run(t, "search-index-update", toolEvent("Write", "file_path", filepath.Join(root, file)))
	}
	require.Len(t, h.launcher.started, 1)

	h.env.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	h.run(t, "search-index-update", toolEvent("Write", "file_path", filepath.Join(root, "docs/b.md")))
	require.Len(t, h.launcher.started, 1)
}

func TestSearchIndexUpdateWithoutIndex(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{".claude/data/config.yaml": freshnessConfig})
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".claude", "search"), 0o755))
	h := newHarness(t, root)
	h.run(t, "search-index-update", toolEvent("Write", "file_path", filepath.Join(root, "docs/a.md")))
	require.Empty(t, h.launcher.started)
}
