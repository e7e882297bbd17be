package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"require", Require, false},
		{"variable", Variable, false},
		{"function", Function, false},
		{"interface", Interface, false},
		{"other", Other, false},
		{"Function", Function, false},
		{"", None, false},
		{"none", None, false},
		{"comment", None, true},
		{"class", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCategory(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownCategory) {
				t.Errorf("error %v is not ErrUnknownCategory", err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDocumentUnmarshal(t *testing.T) {
	t.Parallel()

	data := `{
  "path": "init.lua",
  "nodes": [
    {"position": 1, "characters_count": 20, "container": "function",
     "children": [{"position": 10, "characters_count": 5, "container": "variable"}]},
    {"position": 22, "characters_count": 3, "container": null}
  ]
}`
	var doc Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.Path != "init.lua" {
		t.Errorf("Path = %q", doc.Path)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(doc.Nodes))
	}
	if doc.Nodes[0].Category != Function {
		t.Errorf("node 0 category = %v, want function", doc.Nodes[0].Category)
	}
	if len(doc.Nodes[0].Children) != 1 || doc.Nodes[0].Children[0].Category != Variable {
		t.Errorf("node 0 children = %+v", doc.Nodes[0].Children)
	}
	if doc.Nodes[1].Category != None {
		t.Errorf("node 1 category = %v, want none", doc.Nodes[1].Category)
	}
	if got := CountNodes(doc.Nodes); got != 3 {
		t.Errorf("CountNodes = %d, want 3", got)
	}
}

func TestDocumentUnmarshalUnknownCategory(t *testing.T) {
	t.Parallel()

	data := `{"path": "a.lua", "nodes": [{"position": 1, "characters_count": 1, "container": "klass"}]}`
	var doc Document
	err := json.Unmarshal([]byte(data), &doc)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestCategoryMarshal(t *testing.T) {
	t.Parallel()

	node := AnnotationNode{Position: 3, Count: 4, Category: Interface}
	data, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"position":3,"characters_count":4,"container":"interface"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

func TestPixelGridDimensions(t *testing.T) {
	t.Parallel()

	g := PixelGrid{CellWidth: 5, CellHeight: 10, Margin: 20, Columns: 11, Rows: 3}
	if g.ImageWidth() != 95 {
		t.Errorf("ImageWidth = %d, want 95", g.ImageWidth())
	}
	if g.ImageHeight() != 70 {
		t.Errorf("ImageHeight = %d, want 70", g.ImageHeight())
	}
}
