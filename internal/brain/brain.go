// Package brain ties the secondbrain pieces together: it locates a project,
// loads its configuration and reads every entity once, so hooks and commands
// work from the same snapshot.
package brain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kingrea/secondbrain/internal/activity"
	"github.com/kingrea/secondbrain/internal/config"
	"github.com/kingrea/secondbrain/internal/freshness"
	"github.com/kingrea/secondbrain/internal/project"
	"github.com/kingrea/secondbrain/internal/report"
	"github.com/kingrea/secondbrain/internal/store"
)

// ErrNotProject is returned when no ancestor of the start directory holds a
// secondbrain config.
var ErrNotProject = errors.New("brain: not inside a secondbrain project")

// Snapshot is one consistent read of a project.
type Snapshot struct {
	Root   string
	Config *config.Config
	Sets   []store.EntityRecords
}

// Locate finds the project root for start and loads its configuration
// without reading any records.
func Locate(start string) (string, *config.Config, error) {
	root, ok := project.FindRoot(start)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrNotProject, start)
	}
	cfg, err := config.LoadProject(root)
	if err != nil {
		return root, nil, err
	}
	return root, cfg, nil
}

// Open locates the project for start and reads every configured entity.
func Open(start string, opts ...store.Option) (*Snapshot, error) {
	root, cfg, err := Locate(start)
	if err != nil {
		return nil, err
	}
	return Read(os.DirFS(root), root, cfg, opts...), nil
}

// Read reads every entity in cfg from fsys, which must be rooted at root.
func Read(fsys fs.FS, root string, cfg *config.Config, opts ...store.Option) *Snapshot {
	reader := store.NewReader(fsys, opts...)
	return &Snapshot{Root: root, Config: cfg, Sets: reader.ReadAll(cfg.Entities)}
}

// ReadSkipped returns the storage faults met while reading, in entity order.
func (s *Snapshot) ReadSkipped() []store.Skip {
	var out []store.Skip
	for _, set := range s.Sets {
		out = append(out, set.Skipped...)
	}
	return out
}

// Freshness evaluates every enabled entity at now.
func (s *Snapshot) Freshness(now time.Time) freshness.Result {
	return freshness.Evaluate(s.Sets, now)
}

// Recent returns the latest record of each enabled entity, newest first.
func (s *Snapshot) Recent() []activity.Summary {
	return activity.Summarize(s.Sets, activity.DefaultLimit)
}

// SessionDigest renders the session-start summary.
func (s *Snapshot) SessionDigest() string {
	return report.Session(report.SessionInput{
		ProjectName: s.Config.ProjectName(),
		Stats:       freshness.Count(s.Sets),
		Recent:      s.Recent(),
	})
}

// Report builds the full terminal report at now. limit bounds the rows shown.
func (s *Snapshot) Report(now time.Time, limit int) report.TerminalReport {
	last, _ := s.Config.LastFreshnessCheck()
	return report.TerminalReport{
		ProjectName:   s.Config.ProjectName(),
		Result:        s.Freshness(now),
		ReadSkipped:   s.ReadSkipped(),
		ConfigSkipped: s.Config.Skipped,
		LastCheck:     last,
		Now:           now,
		Limit:         limit,
	}
}
