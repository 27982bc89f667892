package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/secondbrain/internal/project"
)

// stateIgnore keeps the state directory, including this file, out of git.
const stateIgnore = "# Written by the secondbrain hooks\n*\n"

var checkLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// State is the hook bookkeeping kept outside the tracked config file.
type State struct {
	LastFreshnessCheck string `yaml:"last_freshness_check,omitempty"`
}

// LastFreshnessCheck returns the newer of meta.last_freshness_check and the
// stamp in the state file. Values without a zone are read in local time.
func (c *Config) LastFreshnessCheck() (time.Time, bool) {
	if c == nil {
		return time.Time{}, false
	}
	meta, metaOK := parseCheckTime(c.Meta.LastFreshnessCheck)
	state, stateOK := parseCheckTime(c.State.LastFreshnessCheck)
	switch {
	case metaOK && stateOK:
		if state.After(meta) {
			return state, true
		}
		return meta, true
	case stateOK:
		return state, true
	default:
		return meta, metaOK
	}
}

func parseCheckTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range checkLayouts {
		var (
			parsed time.Time
			err    error
		)
		if layout == time.RFC3339Nano {
			parsed, err = time.Parse(layout, raw)
		} else {
			parsed, err = time.ParseInLocation(layout, raw, time.Local)
		}
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FreshnessDue reports whether a full freshness scan may run at now. A scan
// is suppressed when the last one happened less than FreshnessInterval ago.
// An unparseable stamp never suppresses a scan.
func (c *Config) FreshnessDue(now time.Time) bool {
	last, ok := c.LastFreshnessCheck()
	if !ok {
		return true
	}
	return now.Sub(last) >= FreshnessInterval
}

// loadState reads the optional state file. A missing or malformed file
// leaves the state empty.
func (c *Config) loadState(fsys fs.FS) {
	data, err := fs.ReadFile(fsys, project.StatePath())
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return
	}
	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return
	}
	state.LastFreshnessCheck = strings.TrimSpace(state.LastFreshnessCheck)
	c.State = state
}

// StampFreshnessCheck records now as the last freshness check of the project
// at root. The stamp goes to the untracked state file; config.yaml is never
// written.
func StampFreshnessCheck(root string, now time.Time) error {
	if _, err := os.Stat(project.ConfigFile(root)); err != nil {
		return fmt.Errorf("config: stamp %s: %w", root, err)
	}
	dir := project.StateDirectory(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	ignore := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(ignore); errors.Is(err, fs.ErrNotExist) {
		if err := atomic.WriteFile(ignore, strings.NewReader(stateIgnore)); err != nil {
			return fmt.Errorf("config: write %s: %w", ignore, err)
		}
	}

	data, err := yaml.Marshal(State{
		LastFreshnessCheck: now.In(time.Local).Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("config: encode state: %w", err)
	}
	path := project.StateFile(root)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
