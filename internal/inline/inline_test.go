package inline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/phobologic/seesoft/internal/model"
)

var noteRuns = []model.Run{
	{Category: model.Variable, Text: "local x = 1", Color: "#54A24B", Anchor: 1},
	{Category: model.None, Text: "\n"},
	{Category: model.Comment, Text: "-- note", Color: "#eaeaea", Anchor: 2},
	{Category: model.None, Text: "\n"},
	{Category: model.None, Text: "\n\n"},
}

func TestRender(t *testing.T) {
	t.Parallel()

	got, err := Render(noteRuns)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []Token{
		{Kind: Span, Text: "local x = 1", ID: 1, Color: "#54A24B"},
		{Kind: LineBreak},
		{Kind: Span, Text: "-- note", ID: 2, Color: "#eaeaea"},
		{Kind: LineBreak},
		{Kind: Text, Text: "\n\n"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRenderUnknownCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  model.Run
	}{
		{"missing color", model.Run{Category: model.Function, Text: "f", Anchor: 1}},
		{"out of range", model.Run{Category: model.Category(42), Text: "f", Color: "#000000", Anchor: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Render([]model.Run{tt.run}); !errors.Is(err, model.ErrUnknownCategory) {
				t.Errorf("expected ErrUnknownCategory, got %v", err)
			}
		})
	}
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	tokens, err := Render([]model.Run{
		{Category: model.Function, Text: "if a < b", Color: "#4C78A8", Anchor: 1},
		{Category: model.None, Text: "\n"},
		{Category: model.None, Text: "  "},
		{Category: model.Other, Text: "x", Color: "#EECA3B", Anchor: 2},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteHTML(&buf, tokens, HTMLOptions{Prefix: "code-", LineHeight: 20}); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<pre id="code-"`,
		`line-height:20px`,
		`<span id="code-1" style="background-color:#4C78A8">if a &lt; b</span>`,
		`<br>  <span id="code-2" style="background-color:#EECA3B">x</span>`,
		"</pre>\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteHTMLRejectsLineHeight(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteHTML(&buf, nil, HTMLOptions{Prefix: "code-"}); err == nil {
		t.Error("expected error for zero line height")
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q before failing", buf.String())
	}
}

func TestWriteANSIKeepsText(t *testing.T) {
	t.Parallel()

	tokens, err := Render(noteRuns)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteANSI(&buf, tokens); err != nil {
		t.Fatalf("WriteANSI: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"local x = 1", "-- note"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 4 {
		t.Errorf("expected 4 newlines, got %d in %q", got, out)
	}
}
