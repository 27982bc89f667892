package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/secondbrain/internal/brain"
	"github.com/kingrea/secondbrain/internal/config"
	"github.com/kingrea/secondbrain/internal/project"
	"github.com/kingrea/secondbrain/internal/report"
)

// open returns nil without an error when the start directory is not a
// secondbrain project or the project has no usable config.
func (e *Env) open(in Input) (*brain.Snapshot, error) {
	root, cfg, err := brain.Locate(e.start(in))
	if err != nil {
		if errors.Is(err, brain.ErrNotProject) || errors.Is(err, config.ErrNoConfig) {
			e.Log.Printf("skipped: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return brain.Read(os.DirFS(root), root, cfg), nil
}

func (e *Env) logSkips(snap *brain.Snapshot) {
	for _, skip := range snap.Config.Skipped {
		e.Log.Printf("skip %s", skip)
	}
	for _, skip := range snap.ReadSkipped() {
		e.Log.Printf("skip %s", skip)
	}
}

// FreshnessCheck reports stale records at most once per interval.
func FreshnessCheck(_ context.Context, env *Env, in Input) (Response, error) {
	root, cfg, err := brain.Locate(env.start(in))
	if err != nil {
		if errors.Is(err, brain.ErrNotProject) || errors.Is(err, config.ErrNoConfig) {
			env.Log.Printf("skipped: %v", err)
			return Response{}, nil
		}
		return Response{}, err
	}
	now := env.now()
	if !cfg.FreshnessDue(now) {
		env.Log.Printf("checked recently, skipping")
		return Response{}, nil
	}

	snap := brain.Read(os.DirFS(root), root, cfg)
	env.logSkips(snap)
	res := snap.Freshness(now)
	for _, skip := range res.Skipped {
		env.Log.Printf("undated %s", skip)
	}
	if err := config.StampFreshnessCheck(root, now); err != nil {
		env.Log.Printf("stamp freshness check: %v", err)
	}

	digest, ok := report.Freshness(res.Items)
	if !ok {
		return Response{}, nil
	}
	env.Log.Printf("%d stale item(s)", digest.Payload.TotalStale)
	return Continue(digest.Text), nil
}

// SessionContext summarises the project when a session starts.
func SessionContext(_ context.Context, env *Env, in Input) (Response, error) {
	snap, err := env.open(in)
	if err != nil || snap == nil {
		return Response{}, err
	}
	env.logSkips(snap)
	return Continue(snap.SessionDigest()), nil
}

// SidebarCheck warns when a written docs page is missing from the VitePress
// sidebar.
func SidebarCheck(_ context.Context, env *Env, in Input) (Response, error) {
	root, ok := project.FindRoot(env.start(in))
	if !ok || in.ToolInput.FilePath == "" {
		return Response{}, nil
	}
	rel, ok := docsPage(root, in.ToolInput.FilePath)
	if !ok {
		return Response{}, nil
	}
	name := filepath.Base(rel)
	if name == "index.md" || strings.HasSuffix(name, ".data.ts") || strings.Contains(rel, ".vitepress") {
		return Response{}, nil
	}
	link := DocsLink(rel)
	sidebar := filepath.Join(root, project.DocsDir, ".vitepress", "config.ts")
	if sidebarLinks(sidebar, link) {
		return Response{}, nil
	}
	return Continue(fmt.Sprintf(
		"**Sidebar Warning:** New document `%s` is not linked in the VitePress sidebar. Consider adding it to `docs/.vitepress/config.ts`.",
		link,
	)), nil
}

// docsPage returns the slash path of file relative to the docs directory
// when file is a markdown page inside it.
func docsPage(root, file string) (string, bool) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(root, file)
	}
	docs := filepath.Join(root, project.DocsDir)
	rel, err := filepath.Rel(docs, filepath.Clean(file))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if filepath.Ext(rel) != ".md" {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// DocsLink converts a docs-relative page path to its VitePress link:
// guide/intro.md becomes /guide/intro and guide/index.md becomes /guide/.
func DocsLink(rel string) string {
	link := "/" + strings.TrimSuffix(rel, ".md")
	if strings.HasSuffix(link, "/index") {
		link = strings.TrimSuffix(link, "index")
	}
	return link
}

// sidebarLinks reports whether the sidebar config mentions link. A missing
// or unreadable config counts as linked.
func sidebarLinks(configPath, link string) bool {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return true
	}
	content := string(data)
	bare := strings.TrimLeft(link, "/")
	for _, candidate := range []string{link, link + "/", bare} {
		if strings.Contains(content, "'"+candidate+"'") || strings.Contains(content, `"`+candidate+`"`) {
			return true
		}
	}
	return false
}

// SearchIndexUpdate refreshes the docs search index in the background after a
// docs page changes. It never prints anything.
func SearchIndexUpdate(_ context.Context, env *Env, in Input) (Response, error) {
	root, ok := project.FindRoot(env.start(in))
	if !ok || !searchInitialized(root) {
		return Response{}, nil
	}
	if env.LookPath == nil {
		return Response{}, nil
	}
	if _, err := env.LookPath("qmd"); err != nil {
		env.Log.Printf("qmd not installed")
		return Response{}, nil
	}
	if in.ToolInput.FilePath == "" {
		return Response{}, nil
	}
	rel, ok := docsPage(root, in.ToolInput.FilePath)
	if !ok || filepath.Base(rel) == "TEMPLATE.md" || strings.Contains(rel, ".vitepress") {
		return Response{}, nil
	}
	if err := env.Launcher.Start(root, "qmd", "index", "--incremental"); err != nil {
		env.Log.Printf("start qmd: %v", err)
		return Response{}, nil
	}
	env.Log.Printf("reindexing after %s", rel)
	return Response{}, nil
}

func searchInitialized(root string) bool {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(project.SearchDir)))
	return err == nil && len(entries) > 0
}
