package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// BackupDir is the settings backup directory inside the project.
const BackupDir = ".claude-backup"

// backupItems are copied from ~/.claude, in this order.
var backupItems = []string{"settings.json", "plugins", "projects", "ide", "commands"}

// excludePatterns keep logs and credentials out of the backup.
var excludePatterns = []string{"*.log", "*.jsonl", "credentials*", "auth*", "token*", "secret*"}

// BackupSettings copies the user's agent settings into the project so they
// travel with the repository. It never blocks.
func BackupSettings(_ context.Context, env *Env, _ Input) (Response, error) {
	if env.ProjectDir == "" || env.Home == "" {
		return Response{}, nil
	}
	source := filepath.Join(env.Home, ".claude")
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return Response{}, nil
	}
	dest := filepath.Join(env.ProjectDir, BackupDir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Response{}, fmt.Errorf("hooks: create backup dir: %w", err)
	}

	var copied []string
	for _, item := range backupItems {
		ok, err := backupItem(filepath.Join(source, item), filepath.Join(dest, item))
		if err != nil {
			env.Log.Printf("backup %s: %v", item, err)
			continue
		}
		if ok {
			copied = append(copied, item)
		}
	}
	if len(copied) == 0 {
		return Response{}, nil
	}
	if err := atomic.WriteFile(filepath.Join(dest, ".gitignore"), strings.NewReader(gitignore())); err != nil {
		env.Log.Printf("write .gitignore: %v", err)
	}
	return Notify("Backed up settings: " + strings.Join(copied, ", ")), nil
}

func gitignore() string {
	return "# Exclude sensitive files\n" + strings.Join(excludePatterns, "\n") + "\n"
}

// Excluded reports whether name matches an exclusion pattern, ignoring case.
func Excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range excludePatterns {
		switch {
		case strings.HasPrefix(pattern, "*"):
			if strings.HasSuffix(lower, pattern[1:]) {
				return true
			}
		case strings.HasSuffix(pattern, "*"):
			if strings.HasPrefix(lower, pattern[:len(pattern)-1]) {
				return true
			}
		case lower == pattern:
			return true
		}
	}
	return false
}

// backupItem copies a file, or replaces dest with a filtered copy of a
// directory. It reports whether anything was copied.
func backupItem(source, dest string) (bool, error) {
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !info.IsDir() {
		if Excluded(filepath.Base(source)) {
			return false, nil
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return false, err
		}
		return true, copyFile(source, dest, info.Mode().Perm())
	}

	if err := os.RemoveAll(dest); err != nil {
		return false, err
	}
	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		if rel != "." && Excluded(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode().Perm())
	})
	return err == nil, err
}

func copyFile(source, dest string, perm fs.FileMode) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(dest, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(dest, perm)
}
