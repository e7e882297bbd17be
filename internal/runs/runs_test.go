package runs

import (
	"errors"
	"testing"

	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/palette"
	"github.com/phobologic/seesoft/internal/tagtable"
)

func buildTags(t *testing.T, source string, nodes []model.AnnotationNode) []model.CharacterTag {
	t.Helper()
	tags, err := tagtable.Build(source, nodes, tagtable.Options{Comments: true})
	if err != nil {
		t.Fatalf("tagtable.Build: %v", err)
	}
	return tags
}

func TestEncodeNoteScenario(t *testing.T) {
	t.Parallel()

	tags := buildTags(t, "local x = 1\n-- note\n", []model.AnnotationNode{
		{Position: 1, Count: 11, Category: model.Variable},
	})

	got, err := Encode(tags, palette.Diagram)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []model.Run{
		{Category: model.Variable, Text: "local x = 1", Color: "#54A24B", Anchor: 1},
		{Category: model.None, Text: "\n"},
		{Category: model.Comment, Text: "-- note", Color: "#eaeaea", Anchor: 2},
		{Category: model.None, Text: "\n"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	sources := []string{
		"local x = 1\n-- note\n",
		"function f()\n\treturn require('a')\nend\n",
		"",
		"\n\n\n",
		"a",
	}

	for _, source := range sources {
		var nodes []model.AnnotationNode
		if n := len([]rune(source)); n > 4 {
			nodes = []model.AnnotationNode{{Position: 2, Count: n - 3, Category: model.Function,
				Children: []model.AnnotationNode{{Position: 3, Count: 1, Category: model.Require}}}}
		}
		tags := buildTags(t, source, nodes)
		rs, err := Encode(tags, palette.Pastel)
		if err != nil {
			t.Fatalf("Encode(%q): %v", source, err)
		}
		if got, want := Text(rs), tagtable.Text(tags); got != want {
			t.Errorf("round trip %q: got %q, want %q", source, got, want)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	rs, err := Encode(nil, palette.Diagram)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(rs) != 0 {
		t.Errorf("expected no runs, got %d", len(rs))
	}
}

func TestAnchorMonotonicity(t *testing.T) {
	t.Parallel()

	source := "require 'a'\nlocal b = 2\n\nfunction c() return b end\n-- done\n"
	nodes := []model.AnnotationNode{
		{Position: 1, Count: 11, Category: model.Require},
		{Position: 13, Count: 11, Category: model.Variable},
		{Position: 26, Count: 25, Category: model.Function, Children: []model.AnnotationNode{
			{Position: 39, Count: 8, Category: model.Other},
		}},
	}
	tags := buildTags(t, source, nodes)
	rs, err := Encode(tags, palette.Diagram)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	next := 1
	for i, r := range rs {
		if r.Category == model.None {
			if r.Anchor != 0 || r.Color != "" {
				t.Errorf("run %d: uncategorized run has anchor %d color %q", i, r.Anchor, r.Color)
			}
			continue
		}
		if r.Anchor != next {
			t.Errorf("run %d: anchor = %d, want %d", i, r.Anchor, next)
		}
		next++
	}
	if next == 1 {
		t.Fatal("no categorized runs")
	}

	anchors := AnchorAt(tags)
	pos := 0
	for _, r := range rs {
		for range []rune(r.Text) {
			if anchors[pos] != r.Anchor {
				t.Errorf("AnchorAt[%d] = %d, want %d", pos, anchors[pos], r.Anchor)
			}
			pos++
		}
	}
}

func TestEncodeUnknownCategory(t *testing.T) {
	t.Parallel()

	partial := palette.New("partial", map[model.Category]string{model.Variable: "#000000"}, "#FFFFFF")
	tags := []model.CharacterTag{{Char: 'a', Category: model.Variable}, {Char: 'b', Category: model.Function}}
	if _, err := Encode(tags, partial); !errors.Is(err, model.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}
