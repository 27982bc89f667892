// internal/project/project.go
//
// This package knows where a secondbrain project keeps its data. Every project
// that uses secondbrain has a .claude/data/ folder in its root, and the
// config.yaml inside it is the marker that identifies the root.

package project

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	// ClaudeDir is the per-project host directory.
	ClaudeDir = ".claude"
	// DataDir holds the config and one directory per entity, relative to the root.
	DataDir = ".claude/data"
	// ConfigFileName is the marker configuration file inside DataDir.
	ConfigFileName = "config.yaml"
	// StateDir holds hook bookkeeping. It ignores itself in git.
	StateDir = ".claude/data/.state"
	// StateFileName holds the freshness rate-limit stamp inside StateDir.
	StateFileName = "freshness.yaml"
	// SearchDir holds the docs search index when search is initialised.
	SearchDir = ".claude/search"
	// DocsDir is the VitePress documentation root.
	DocsDir = "docs"
)

// ConfigPath returns the slash-separated config path relative to the root,
// suitable for use with an fs.FS rooted at the project.
func ConfigPath() string {
	return path.Join(DataDir, ConfigFileName)
}

// EntityDir returns the slash-separated storage directory for an entity.
func EntityDir(entity string) string {
	return path.Join(DataDir, entity)
}

// ConfigFile returns the absolute on-disk config path for a project root.
func ConfigFile(root string) string {
	return filepath.Join(root, filepath.FromSlash(ConfigPath()))
}

// StatePath returns the slash-separated state file path relative to the root.
func StatePath() string {
	return path.Join(StateDir, StateFileName)
}

// StateDirectory returns the on-disk state directory for a project root.
func StateDirectory(root string) string {
	return filepath.Join(root, filepath.FromSlash(StateDir))
}

// StateFile returns the on-disk state file path for a project root.
func StateFile(root string) string {
	return filepath.Join(root, filepath.FromSlash(StatePath()))
}

// DebugLogFile returns the path of the hook debug log for a project root.
func DebugLogFile(root string) string {
	return filepath.Join(root, ClaudeDir, "hook-debug.log")
}

// FindRoot searches start and each of its ancestors, nearest first, for the
// marker config file. It returns the first directory that has one.
func FindRoot(start string) (string, bool) {
	dir := strings.TrimSpace(start)
	if dir == "" {
		return "", false
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	dir = filepath.Clean(abs)
	for {
		if isFile(ConfigFile(dir)) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
