package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/phobologic/seesoft/internal/cache"
	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/palette"
	"github.com/phobologic/seesoft/internal/seesoft"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.lua"), []byte("local x = 1\n-- note\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := `{"path":"m.lua","nodes":[{"position":1,"characters_count":11,"container":"variable"}]}`
	path := filepath.Join(dir, "m.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDocument(t *testing.T) {
	t.Parallel()

	r := &Renderer{Options: seesoft.DefaultOptions()}
	out, err := r.Document(context.Background(), writeFixture(t))
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if out.Document == nil || out.Document.Path != "m.lua" {
		t.Errorf("document = %+v", out.Document)
	}
	if len(out.Runs) != 4 || out.Runs[2].Anchor != 2 {
		t.Errorf("runs = %+v", out.Runs)
	}
	if out.Grid.ImageWidth() != 95 || out.Grid.ImageHeight() != 70 {
		t.Errorf("grid = %+v", out.Grid)
	}
	if out.Cached {
		t.Error("uncached renderer reported a cache hit")
	}

	w, h := out.Fit(geometry.Dimension{}, geometry.Dimension{}, geometry.SmallBounds)
	if w.Pixels != 230 || h.Pixels != 200 {
		t.Errorf("Fit = %v x %v", w, h)
	}
}

func TestDocumentCached(t *testing.T) {
	t.Parallel()

	c, err := cache.Open(filepath.Join(t.TempDir(), ".seesoft"))
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()

	path := writeFixture(t)
	r := &Renderer{Options: seesoft.DefaultOptions(), Cache: c}

	first, err := r.Document(context.Background(), path)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := r.Document(context.Background(), path)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}

	if first.Cached || !second.Cached {
		t.Errorf("cached flags = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if !bytes.Equal(first.PNG, second.PNG) {
		t.Error("cached png differs")
	}
	if first.Grid != second.Grid {
		t.Errorf("grid %+v != %+v", first.Grid, second.Grid)
	}
	if len(second.Tokens) != len(first.Tokens) || len(second.Hits) != len(first.Hits) {
		t.Error("cached tokens or hits differ")
	}
	if first.Coverage != second.Coverage {
		t.Errorf("coverage %v != %v", first.Coverage, second.Coverage)
	}

	// A different palette is a different render.
	r2 := &Renderer{Options: seesoft.DefaultOptions(), Cache: c}
	r2.Options.Palette = palette.Pastel
	third, err := r2.Document(context.Background(), path)
	if err != nil {
		t.Fatalf("third render: %v", err)
	}
	if third.Cached {
		t.Error("palette change hit the cache")
	}
}

func TestOptionsKey(t *testing.T) {
	t.Parallel()

	a := seesoft.DefaultOptions()
	b := seesoft.DefaultOptions()
	if OptionsKey(a) != OptionsKey(b) {
		t.Error("equal options give different keys")
	}
	b.Comments = false
	if OptionsKey(a) == OptionsKey(b) {
		t.Error("comments flag not part of the key")
	}
}
