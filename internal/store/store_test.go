package store

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/secondbrain/internal/config"
	"github.com/kingrea/secondbrain/internal/record"
)

func entity(t *testing.T, name, def string) config.Entity {
	t.Helper()
	cfg, err := config.Parse([]byte("entities:\n  " + name + ":\n" + def))
	require.NoError(t, err)
	e, ok := cfg.Entity(name)
	require.True(t, ok, "entity %s not parsed: %+v", name, cfg.Skipped)
	return e
}

func TestReadContainerPreservesOrder(t *testing.T) {
	fsys := fstest.MapFS{
		".claude/data/tasks/records.yaml": {Data: []byte(`
records:
  - id: T1
    title: First
    created: 2024-01-01
  - id: T2
    title: Second
  - id: T3
    status: done
`)},
	}
	tasks := entity(t, "tasks", "    enabled: true\n")
	got := NewReader(fsys).ReadEntity(tasks)

	require.Empty(t, got.Skipped)
	var ids []string
	for _, rec := range got.Records {
		ids = append(ids, rec.Identity())
	}
	require.Equal(t, []string{"T1", "T2", "T3"}, ids)
}

func TestReadIsIdempotent(t *testing.T) {
	fsys := fstest.MapFS{
		".claude/data/tasks/records.yaml": {Data: []byte("records:\n  - {id: A, date: 2024-02-02}\n  - {id: B}\n")},
		".claude/data/notes/2024-01.yaml": {Data: []byte("- {topic: x, date: 2024-01-05}\n")},
		".claude/data/notes/2024-02.yaml": {Data: []byte("- {topic: y, date: 2024-02-05}\n")},
	}
	entities := []config.Entity{
		entity(t, "tasks", "    enabled: true\n"),
		entity(t, "notes", "    enabled: true\n    partitioned: monthly\n"),
	}
	reader := NewReader(fsys)
	first := reader.ReadAll(entities)
	second := reader.ReadAll(entities)
	opt := cmp.AllowUnexported(config.Entity{})
	if diff := cmp.Diff(first, second, opt); diff != "" {
		t.Fatalf("reads differ (-first +second):\n%s", diff)
	}
}

func TestReadMissingStorageIsEmpty(t *testing.T) {
	reader := NewReader(fstest.MapFS{})
	for _, e := range []config.Entity{
		entity(t, "tasks", "    enabled: true\n"),
		entity(t, "notes", "    enabled: true\n    partitioned: monthly\n"),
	} {
		got := reader.ReadEntity(e)
		require.Empty(t, got.Records, e.Name)
		require.Empty(t, got.Skipped, e.Name)
	}
}

func TestReadPartitionsSkipsSchemaAndCorruptFiles(t *testing.T) {
	fsys := fstest.MapFS{
		".claude/data/notes/schema.yaml":  {Data: []byte("fields:\n  - topic\n")},
		".claude/data/notes/2024-01.yaml": {Data: []byte("- {topic: january, date: 2024-01-10}\n")},
		".claude/data/notes/2024-02.yaml": {Data: []byte("- {topic: [unterminated\n")},
		".claude/data/notes/2024-03.yml":  {Data: []byte("- {topic: march, date: 2024-03-10}\n- just a string\n")},
		".claude/data/notes/README.md":    {Data: []byte("# notes\n")},
		".claude/data/notes/2024-04.yaml": {Data: []byte("")},
	}
	notes := entity(t, "notes", "    enabled: true\n    partitioned: monthly\n")
	got := NewReader(fsys).ReadEntity(notes)

	var topics []string
	for _, rec := range got.Records {
		topics = append(topics, rec.DisplayTitle())
	}
	require.Equal(t, []string{"january", "march"}, topics)
	require.Len(t, got.Skipped, 2)
	require.Equal(t, ".claude/data/notes/2024-02.yaml", got.Skipped[0].Path)
	require.Equal(t, -1, got.Skipped[0].Index)
	require.Equal(t, ".claude/data/notes/2024-03.yml", got.Skipped[1].Path)
	require.Equal(t, 1, got.Skipped[1].Index)
}

func TestReadDisabledEntityDoesNotTouchStorage(t *testing.T) {
	fsys := fstest.MapFS{
		".claude/data/tasks/records.yaml": {Data: []byte("records:\n  - {id: T1, date: 2020-01-01}\n")},
	}
	tasks := entity(t, "tasks", "    enabled: false\n")
	got := NewReader(fsys).ReadEntity(tasks)
	require.Empty(t, got.Records)
	require.Empty(t, got.Skipped)
}

func TestReadContainerShapes(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		records int
		skipped int
	}{
		{"null document", "~\n", 0, 0},
		{"no records key", "schema: {}\n", 0, 0},
		{"null records", "records:\n", 0, 0},
		{"list at top level", "- {id: T1}\n", 0, 1},
		{"records not a list", "records: {id: T1}\n", 0, 1},
		{"unparseable", "records: [\n", 0, 1},
		{"scalar record", "records:\n  - {id: T1}\n  - 42\n", 1, 1},
	}
	tasks := entity(t, "tasks", "    enabled: true\n")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fsys := fstest.MapFS{".claude/data/tasks/records.yaml": {Data: []byte(tc.data)}}
			got := NewReader(fsys).ReadEntity(tasks)
			require.Len(t, got.Records, tc.records)
			require.Len(t, got.Skipped, tc.skipped)
		})
	}
}

func TestReadAllKeepsConfigOrder(t *testing.T) {
	fsys := fstest.MapFS{}
	var entities []config.Entity
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		fsys[".claude/data/"+name+"/records.yaml"] = &fstest.MapFile{
			Data: []byte("records:\n  - {id: " + name + "}\n"),
		}
		entities = append(entities, entity(t, name, "    enabled: true\n"))
	}
	got := NewReader(fsys, WithConcurrency(3)).ReadAll(entities)
	require.Len(t, got, len(entities))
	for i, res := range got {
		require.Equal(t, entities[i].Name, res.Entity.Name)
		require.Equal(t, []record.Record{{"id": entities[i].Name}}, res.Records)
	}
}

func TestIsPartitionFile(t *testing.T) {
	require.True(t, isPartitionFile("2024-01.yaml"))
	require.True(t, isPartitionFile("2024-01.YML"))
	require.False(t, isPartitionFile("schema.yaml"))
	require.False(t, isPartitionFile("Schema.yml"))
	require.False(t, isPartitionFile("notes.json"))
}
