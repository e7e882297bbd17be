// Package model defines core data structures for seesoft.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a category name or value is outside
// the fixed category set.
var ErrUnknownCategory = errors.New("unknown category")

// Category is the semantic class of a span of source text.
// The zero value None means the character belongs to no annotation.
type Category int

const (
	None Category = iota
	Require
	Variable
	Function
	Interface
	Other
	// Comment is never read from input; the tag table assigns it to
	// uncovered non-blank text.
	Comment
)

var categoryNames = [...]string{
	None:      "none",
	Require:   "require",
	Variable:  "variable",
	Function:  "function",
	Interface: "interface",
	Other:     "other",
	Comment:   "comment",
}

// Categories lists every non-None category in palette order.
var Categories = []Category{Require, Variable, Function, Interface, Other, Comment}

// String returns the lowercase name used in annotation documents.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= None && c <= Comment
}

// ParseCategory converts an annotation "container" value to a Category.
// The empty string and "none" map to None. "comment" is rejected: comments
// are derived, not annotated.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "require":
		return Require, nil
	case "variable":
		return Variable, nil
	case "function":
		return Function, nil
	case "interface":
		return Interface, nil
	case "other":
		return Other, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// MarshalJSON encodes None as null and other categories by name.
func (c Category) MarshalJSON() ([]byte, error) {
	if c == None {
		return []byte("null"), nil
	}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts null or a category name.
func (c *Category) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = None
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("container: %w", err)
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// AnnotationNode tags the characters [Position-1, Position-1+Count) of the
// source with Category. Children are contained in the parent's range,
// do not overlap each other, and are given in source order.
type AnnotationNode struct {
	Position int              `json:"position"`
	Count    int              `json:"characters_count"`
	Category Category         `json:"container"`
	Children []AnnotationNode `json:"children,omitempty"`
}

// End returns the 0-based exclusive end offset of the node.
func (n AnnotationNode) End() int {
	return n.Position - 1 + n.Count
}

// Document is the annotation input: a source location plus its node forest.
type Document struct {
	Path  string           `json:"path,omitempty"`
	URL   string           `json:"url,omitempty"`
	Nodes []AnnotationNode `json:"nodes"`
}

// CharacterTag pairs one character of the decoded source with its category.
type CharacterTag struct {
	Char     rune
	Category Category
}

// Run is a maximal span of consecutive characters sharing a category.
// Anchor is 0 for None runs and the 1-based anchor id otherwise.
type Run struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Color    string   `json:"color,omitempty"`
	Anchor   int      `json:"anchor,omitempty"`
}

// PixelGrid describes the thumbnail layout: one cell per character.
type PixelGrid struct {
	CellWidth  int
	CellHeight int
	Margin     int
	Columns    int
	Rows       int
}

// ImageWidth returns the thumbnail width in pixels.
func (g PixelGrid) ImageWidth() int {
	return g.Columns*g.CellWidth + 2*g.Margin
}

// ImageHeight returns the thumbnail height in pixels.
func (g PixelGrid) ImageHeight() int {
	return g.Rows*g.CellHeight + 2*g.Margin
}

// CountNodes returns the number of nodes in the forest, descendants included.
func CountNodes(nodes []AnnotationNode) int {
	n := 0
	for i := range nodes {
		n += 1 + CountNodes(nodes[i].Children)
	}
	return n
}
