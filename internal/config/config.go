// internal/config/config.go
//
// This package loads the secondbrain entity schema from .claude/data/config.yaml.
// The file declares named entities (tasks, notes, decisions, ...) with a storage
// layout, a set of closed statuses and a staleness threshold.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/secondbrain/internal/project"
)

const (
	// DefaultStaleAfterDays applies when an entity sets no threshold.
	DefaultStaleAfterDays = 30

	// DefaultProjectName is used in digests when project.name is unset.
	DefaultProjectName = "Secondbrain"

	// FreshnessInterval is the minimum time between two full freshness scans.
	FreshnessInterval = time.Hour
)

var (
	// ErrNoConfig means the project has no readable configuration. Callers
	// treat it as "this project does not use secondbrain" and skip silently.
	ErrNoConfig = errors.New("config: no configuration")
)

// DefaultClosedStatuses exempt a record from staleness regardless of entity.
var DefaultClosedStatuses = []string{
	"archived",
	"completed",
	"done",
	"canceled",
	"rejected",
	"tested",
	"implemented",
}

// Partition names an entity storage layout.
type Partition string

const (
	PartitionNone    Partition = "none"
	PartitionMonthly Partition = "monthly"
)

// ProjectInfo models the optional project: block.
type ProjectInfo struct {
	Name string `yaml:"name"`
}

// Meta carries bookkeeping written by the hooks themselves.
type Meta struct {
	LastFreshnessCheck string `yaml:"last_freshness_check,omitempty"`
}

// FreshnessConfig is the nested freshness: block of an entity.
type FreshnessConfig struct {
	StaleAfterDays *int `yaml:"stale_after_days"`
}

// Entity is one entry under entities:.
type Entity struct {
	Name           string          `yaml:"-"`
	Enabled        bool            `yaml:"enabled"`
	Partitioned    Partition       `yaml:"partitioned"`
	Singular       string          `yaml:"singular"`
	ClosedStatuses []string        `yaml:"closed_statuses"`
	StaleAfterDays *int            `yaml:"stale_after_days"`
	Freshness      FreshnessConfig `yaml:"freshness"`

	closed map[string]struct{}
}

// SkippedEntity records an entity definition that could not be used. Name
// is empty when a whole top-level block was left out.
type SkippedEntity struct {
	Name   string
	Reason string
}

func (s SkippedEntity) String() string {
	if s.Name == "" {
		return "config: " + s.Reason
	}
	return fmt.Sprintf("config: entity %s: %s", s.Name, s.Reason)
}

// Config is the parsed configuration of one project.
type Config struct {
	// Root is the project directory when loaded from disk; empty otherwise.
	Root string

	Project  ProjectInfo
	Entities []Entity
	Meta     Meta
	// State is read from the untracked state file, never from config.yaml.
	State State

	// Skipped lists malformed entity definitions and top-level blocks that
	// were left out.
	Skipped []SkippedEntity
}

type document struct {
	Project  yaml.Node `yaml:"project"`
	Entities yaml.Node `yaml:"entities"`
	Meta     yaml.Node `yaml:"meta"`
}

// LoadProject loads the configuration of the project rooted at root.
func LoadProject(root string) (*Config, error) {
	cfg, err := Load(os.DirFS(root))
	if err != nil {
		return nil, err
	}
	cfg.Root = root
	return cfg, nil
}

// Load reads and parses the config file from a filesystem rooted at the
// project directory. Any failure is reported as ErrNoConfig.
func Load(fsys fs.FS) (*Config, error) {
	name := project.ConfigPath()
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s missing", ErrNoConfig, name)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrNoConfig, name, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoConfig, name, err)
	}
	cfg.loadState(fsys)
	return cfg, nil
}

// Parse decodes a config document. Entity definitions and the project and
// meta blocks that fail to decode are recorded in Skipped instead of failing
// the whole document.
func Parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("config: document is empty")
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg := &Config{}
	cfg.decodeBlock("project", &doc.Project, &cfg.Project)
	cfg.decodeBlock("meta", &doc.Meta, &cfg.Meta)
	cfg.Project.Name = strings.TrimSpace(cfg.Project.Name)
	cfg.Meta.LastFreshnessCheck = strings.TrimSpace(cfg.Meta.LastFreshnessCheck)
	cfg.decodeEntities(&doc.Entities)
	return cfg, nil
}

// decodeBlock decodes an optional top-level mapping into out. A field with the
// wrong type is recorded in Skipped; the fields that decoded are kept.
func (c *Config) decodeBlock(key string, node *yaml.Node, out any) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return
	}
	if node.Kind != yaml.MappingNode {
		c.Skipped = append(c.Skipped, SkippedEntity{Reason: key + " is not a mapping"})
		return
	}
	if err := node.Decode(out); err != nil {
		c.Skipped = append(c.Skipped, SkippedEntity{Reason: fmt.Sprintf("%s: %v", key, err)})
	}
}

func (c *Config) decodeEntities(node *yaml.Node) {
	if node == nil || node.Kind == 0 {
		return
	}
	if node.Kind != yaml.MappingNode {
		c.Skipped = append(c.Skipped, SkippedEntity{Reason: "entities is not a mapping"})
		return
	}
	// Mapping content alternates key, value; order follows the document.
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := strings.TrimSpace(node.Content[i].Value)
		if err := validateEntityName(name); err != nil {
			c.Skipped = append(c.Skipped, SkippedEntity{Name: name, Reason: err.Error()})
			continue
		}
		var entity Entity
		value := node.Content[i+1]
		if value.Kind != yaml.MappingNode {
			if value.Tag == "!!null" {
				entity.Name = name
				entity.normalize()
				c.Entities = append(c.Entities, entity)
				continue
			}
			c.Skipped = append(c.Skipped, SkippedEntity{Name: name, Reason: "definition is not a mapping"})
			continue
		}
		if err := value.Decode(&entity); err != nil {
			c.Skipped = append(c.Skipped, SkippedEntity{Name: name, Reason: err.Error()})
			continue
		}
		entity.Name = name
		entity.normalize()
		c.Entities = append(c.Entities, entity)
	}
}

func validateEntityName(name string) error {
	if name == "" {
		return fmt.Errorf("entity name is required")
	}
	if name != path.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("entity name %q must be a single path element", name)
	}
	return nil
}

func (e *Entity) normalize() {
	e.Partitioned = normalizePartition(e.Partitioned)
	e.Singular = strings.TrimSpace(e.Singular)
	if e.Singular == "" {
		e.Singular = singularize(e.Name)
	}
	e.closed = make(map[string]struct{}, len(DefaultClosedStatuses)+len(e.ClosedStatuses))
	for _, status := range DefaultClosedStatuses {
		e.closed[status] = struct{}{}
	}
	for _, status := range e.ClosedStatuses {
		if folded := strings.ToLower(strings.TrimSpace(status)); folded != "" {
			e.closed[folded] = struct{}{}
		}
	}
}

func normalizePartition(p Partition) Partition {
	if Partition(strings.ToLower(strings.TrimSpace(string(p)))) == PartitionMonthly {
		return PartitionMonthly
	}
	return PartitionNone
}

func singularize(name string) string {
	if len(name) > 1 && strings.HasSuffix(name, "s") {
		return strings.TrimSuffix(name, "s")
	}
	return name
}

// IsPartitioned reports whether the entity uses monthly files.
func (e Entity) IsPartitioned() bool {
	return e.Partitioned == PartitionMonthly
}

// StaleAfter returns the effective staleness threshold in days. The nested
// freshness.stale_after_days wins over the flat key.
func (e Entity) StaleAfter() int {
	for _, candidate := range []*int{e.Freshness.StaleAfterDays, e.StaleAfterDays} {
		if candidate != nil && *candidate >= 0 {
			return *candidate
		}
	}
	return DefaultStaleAfterDays
}

// IsClosed reports whether status is in the default or entity closed set,
// ignoring case and surrounding space.
func (e Entity) IsClosed(status string) bool {
	folded := strings.ToLower(strings.TrimSpace(status))
	if folded == "" {
		return false
	}
	if e.closed == nil {
		for _, s := range DefaultClosedStatuses {
			if s == folded {
				return true
			}
		}
		for _, s := range e.ClosedStatuses {
			if strings.EqualFold(strings.TrimSpace(s), folded) {
				return true
			}
		}
		return false
	}
	_, ok := e.closed[folded]
	return ok
}

// Entity returns the definition for name.
func (c *Config) Entity(name string) (Entity, bool) {
	for _, e := range c.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// EnabledEntities returns the enabled definitions in document order.
func (c *Config) EnabledEntities() []Entity {
	var out []Entity
	for _, e := range c.Entities {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// ProjectName returns project.name or the default name.
func (c *Config) ProjectName() string {
	if c == nil || c.Project.Name == "" {
		return DefaultProjectName
	}
	return c.Project.Name
}
