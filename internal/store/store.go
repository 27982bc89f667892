// Package store reads secondbrain entity records from a project's data
// directory. Reads are best-effort: a corrupt file or record is reported as a
// Skip and the rest of the entity is still returned.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/secondbrain/internal/config"
	"github.com/kingrea/secondbrain/internal/project"
	"github.com/kingrea/secondbrain/internal/record"
)

const (
	// RecordsFileName is the single container of an unpartitioned entity.
	RecordsFileName = "records.yaml"

	defaultConcurrency = 4
)

// wholeFile marks a Skip that covers a complete file rather than one record.
const wholeFile = -1

// Skip explains one piece of storage that did not contribute records.
type Skip struct {
	Entity string
	Path   string
	// Index is the record position inside Path, or -1 for the whole file.
	Index  int
	Reason string
}

func (s Skip) String() string {
	where := s.Path
	if where == "" {
		where = s.Entity
	}
	if s.Index == wholeFile {
		return fmt.Sprintf("%s: %s", where, s.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", where, s.Index, s.Reason)
}

// EntityRecords is the partial result of reading one entity.
type EntityRecords struct {
	Entity  config.Entity
	Records []record.Record
	Skipped []Skip
}

// Reader reads entity storage from a filesystem rooted at the project.
type Reader struct {
	fsys        fs.FS
	concurrency int
}

// Option customizes a Reader during construction.
type Option func(*Reader)

// WithConcurrency bounds how many entities ReadAll reads at once. Values
// below one read sequentially.
func WithConcurrency(n int) Option {
	return func(r *Reader) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// NewReader builds a reader over fsys, which must be rooted at the project
// directory (for example os.DirFS(root)).
func NewReader(fsys fs.FS, opts ...Option) *Reader {
	r := &Reader{fsys: fsys, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadAll reads every entity and returns the results in the same order as
// entities. Entities are independent, so they are read concurrently.
func (r *Reader) ReadAll(entities []config.Entity) []EntityRecords {
	results := make([]EntityRecords, len(entities))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, entity := range entities {
		i, entity := i, entity
		g.Go(func() error {
			results[i] = r.ReadEntity(entity)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ReadEntity returns all records for one entity in storage order. Disabled
// entities return an empty result without touching storage.
func (r *Reader) ReadEntity(entity config.Entity) EntityRecords {
	out := EntityRecords{Entity: entity}
	if !entity.Enabled {
		return out
	}
	if entity.IsPartitioned() {
		r.readPartitions(&out)
	} else {
		r.readContainer(&out)
	}
	return out
}

func (r *Reader) readContainer(out *EntityRecords) {
	name := path.Join(project.EntityDir(out.Entity.Name), RecordsFileName)
	root, ok := r.decodeFile(out, name)
	if !ok || root == nil {
		return
	}
	if root.Kind != yaml.MappingNode {
		out.skipFile(name, "container is not a mapping")
		return
	}
	seq := mappingValue(root, "records")
	if seq == nil || isNull(seq) {
		return
	}
	if seq.Kind != yaml.SequenceNode {
		out.skipFile(name, "records is not a sequence")
		return
	}
	out.appendSequence(name, seq)
}

func (r *Reader) readPartitions(out *EntityRecords) {
	dir := project.EntityDir(out.Entity.Name)
	entries, err := fs.ReadDir(r.fsys, dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			out.skipFile(dir, fmt.Sprintf("list partitions: %v", err))
		}
		return
	}
	// fs.ReadDir sorts by name, so YYYY-MM files come out chronologically.
	for _, entry := range entries {
		if entry.IsDir() || !isPartitionFile(entry.Name()) {
			continue
		}
		name := path.Join(dir, entry.Name())
		root, ok := r.decodeFile(out, name)
		if !ok || root == nil {
			continue
		}
		if root.Kind != yaml.SequenceNode {
			out.skipFile(name, "partition is not a sequence")
			continue
		}
		out.appendSequence(name, root)
	}
}

// decodeFile parses name into its top-level node. A missing file returns
// (nil, true); an empty or null document returns (nil, true) as well.
func (r *Reader) decodeFile(out *EntityRecords, name string) (*yaml.Node, bool) {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, true
		}
		out.skipFile(name, fmt.Sprintf("read: %v", err))
		return nil, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, true
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		out.skipFile(name, fmt.Sprintf("parse: %v", err))
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, true
	}
	root := doc.Content[0]
	if isNull(root) {
		return nil, true
	}
	return root, true
}

func (out *EntityRecords) appendSequence(name string, seq *yaml.Node) {
	for i, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			out.Skipped = append(out.Skipped, Skip{
				Entity: out.Entity.Name, Path: name, Index: i,
				Reason: "record is not a mapping",
			})
			continue
		}
		var rec record.Record
		if err := item.Decode(&rec); err != nil {
			out.Skipped = append(out.Skipped, Skip{
				Entity: out.Entity.Name, Path: name, Index: i,
				Reason: fmt.Sprintf("decode: %v", err),
			})
			continue
		}
		out.Records = append(out.Records, rec)
	}
}

func (out *EntityRecords) skipFile(name, reason string) {
	out.Skipped = append(out.Skipped, Skip{
		Entity: out.Entity.Name, Path: name, Index: wholeFile, Reason: reason,
	})
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// isPartitionFile accepts YAML files except the reserved schema file.
func isPartitionFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if !strings.HasSuffix(lower, ".yaml") && !strings.HasSuffix(lower, ".yml") {
		return false
	}
	base := strings.TrimSuffix(strings.TrimSuffix(lower, ".yaml"), ".yml")
	return base != "schema"
}
