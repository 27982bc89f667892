package brain

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/secondbrain/internal/config"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestOpenFromNestedDirectory(t *testing.T) {
	root := writeProject(t, map[string]string{
		".claude/data/config.yaml": `
project:
  name: Atlas
entities:
  tasks:
    enabled: true
  notes:
    enabled: true
    partitioned: monthly
meta:
  last_freshness_check: "2024-03-01T07:00:00"
`,
		".claude/data/tasks/records.yaml": `
records:
  - id: T1
    title: Old task
    status: open
    created: 2024-01-01
  - id: T2
    status: done
    created: 2023-01-01
`,
		".claude/data/notes/2024-02.yaml": "- id: N1\n  title: Fresh note\n  date: 2024-02-28\n",
		".claude/data/notes/2024-01.yaml": "not: [valid\n",
		"src/pkg/main.go":                 "package main\n",
	})

	snap, err := Open(filepath.Join(root, "src", "pkg"))
	require.NoError(t, err)
	require.Equal(t, root, snap.Root)
	require.Len(t, snap.Sets, 2)

	skipped := snap.ReadSkipped()
	require.Len(t, skipped, 1)
	require.Contains(t, skipped[0].Path, "2024-01.yaml")

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	res := snap.Freshness(now)
	require.Len(t, res.Items, 1)
	require.Equal(t, "T1", res.Items[0].ID)
	require.Equal(t, 60, res.Items[0].DaysOld)

	digest := snap.SessionDigest()
	require.True(t, strings.HasPrefix(digest, "**Atlas Secondbrain**"))
	require.Contains(t, digest, "- Tasks: 1 active / 2 total")
	require.Contains(t, digest, "- Notes: 1")
	require.Contains(t, digest, `- Last note: "Fresh note" (2024-02-28)`)

	rep := snap.Report(now, 0)
	require.Equal(t, "Atlas", rep.ProjectName)
	require.False(t, rep.LastCheck.IsZero())
	require.Len(t, rep.ReadSkipped, 1)
}

func TestOpenOutsideProject(t *testing.T) {
	_, err := Open(t.TempDir())
	require.True(t, errors.Is(err, ErrNotProject))
}

func TestOpenMalformedConfig(t *testing.T) {
	root := writeProject(t, map[string]string{".claude/data/config.yaml": "entities: [\n"})
	_, err := Open(root)
	require.ErrorIs(t, err, config.ErrNoConfig)
}
