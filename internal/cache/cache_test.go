package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/model"
)

func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	cache, err := Open(filepath.Join(t.TempDir(), ".seesoft"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func sampleEntry(key string) *Entry {
	return &Entry{
		Key:     key,
		Columns: 11,
		Rows:    3,
		PNG:     []byte{0x89, 'P', 'N', 'G'},
		Runs: []model.Run{
			{Category: model.Variable, Text: "local x = 1", Color: "#54A24B", Anchor: 1},
			{Category: model.None, Text: "\n"},
			{Category: model.Comment, Text: "-- note", Color: "#eaeaea", Anchor: 2},
		},
		Hits: []geometry.HitLine{
			{Line: 0, Regions: []geometry.HitRegion{{X: 22.5, Y: 25, ScrollOffset: 15, Anchor: 1}}},
		},
	}
}

func TestCacheOpenClose(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", ".seesoft")
	cache, err := Open(dir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	expectedPath := filepath.Join(dir, FileName)
	if cache.Path() != expectedPath {
		t.Errorf("path = %q, want %q", cache.Path(), expectedPath)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	cache2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer cache2.Close()
}

func TestPutGet(t *testing.T) {
	t.Parallel()

	cache := setupTestCache(t)

	if _, ok, err := cache.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}

	want := sampleEntry("k1")
	if err := cache.Put(want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := cache.Get("k1")
	if err != nil || !ok {
		t.Fatalf("Get(k1) = %v, %v", ok, err)
	}
	if got.Columns != 11 || got.Rows != 3 || string(got.PNG) != string(want.PNG) {
		t.Errorf("entry = %+v", got)
	}
	if len(got.Runs) != 3 {
		t.Fatalf("runs = %+v", got.Runs)
	}
	for i := range want.Runs {
		if got.Runs[i] != want.Runs[i] {
			t.Errorf("run %d = %+v, want %+v", i, got.Runs[i], want.Runs[i])
		}
	}
	if len(got.Hits) != 1 || got.Hits[0].Regions[0] != want.Hits[0].Regions[0] {
		t.Errorf("hits = %+v", got.Hits)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestPutReplaces(t *testing.T) {
	t.Parallel()

	cache := setupTestCache(t)

	if err := cache.Put(sampleEntry("k")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e := sampleEntry("k")
	e.Columns = 40
	if err := cache.Put(e); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, _, err := cache.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Columns != 40 {
		t.Errorf("columns = %d, want 40", got.Columns)
	}
	stats, err := cache.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Entries != 1 || stats.PNGBytes != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPruneAndClear(t *testing.T) {
	t.Parallel()

	cache := setupTestCache(t)

	old := sampleEntry("old")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	if err := cache.Put(old); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put(sampleEntry("new")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	n, err := cache.Prune(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if _, ok, _ := cache.Get("new"); !ok {
		t.Error("recent entry was pruned")
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err := cache.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("entries after clear = %d", stats.Entries)
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	nodes := []model.AnnotationNode{{Position: 1, Count: 3, Category: model.Function}}
	a, err := Key("abc", nodes, "diagram")
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	b, _ := Key("abc", nodes, "diagram")
	if a != b {
		t.Error("key is not deterministic")
	}
	if c, _ := Key("abc", nodes, "pastel"); c == a {
		t.Error("options did not change the key")
	}
	if c, _ := Key("abd", nodes, "diagram"); c == a {
		t.Error("text did not change the key")
	}
	if c, _ := Key("abc", nil, "diagram"); c == a {
		t.Error("nodes did not change the key")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64", len(a))
	}
}
