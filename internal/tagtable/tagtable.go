// Package tagtable resolves an annotation tree into one category per
// character of the source text.
//
// The table is built by a fixed sequence of passes. Each pass takes a tag
// slice and returns a new one; none of them mutate their input. The order
// matters: gap filling runs before comment absorption, which runs before
// indentation is neutralized.
package tagtable

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/phobologic/seesoft/internal/model"
)

// ErrAnnotationOutOfBounds is returned when a node's range does not fit the
// source text.
var ErrAnnotationOutOfBounds = errors.New("annotation out of bounds")

// Options controls the optional passes.
type Options struct {
	// Comments colors uncovered non-blank text as model.Comment. When false,
	// uncovered text is removed and blank lines are compacted.
	Comments bool
}

// Build returns the tag table for text annotated by roots.
// Empty text yields an empty table.
func Build(text string, roots []model.AnnotationNode, opts Options) ([]model.CharacterTag, error) {
	tags, err := Assign(text, roots)
	if err != nil {
		return nil, err
	}

	tags = DropCarriageReturns(tags)

	if opts.Comments {
		tags = AbsorbComments(tags)
	} else {
		tags = StripUncategorized(tags)
		tags = TrimLeadingBlank(tags)
		tags = TrimTrailingBlank(tags)
		tags = CollapseBlankLines(tags)
	}

	return NeutralizeIndent(tags), nil
}

// Assign walks the tree depth first and marks every covered character with
// its node's category. Inner nodes overwrite outer ones. Characters no node
// covers, and every newline, end up as model.None.
func Assign(text string, roots []model.AnnotationNode) ([]model.CharacterTag, error) {
	chars := []rune(text)
	tags := make([]model.CharacterTag, len(chars))
	for i, ch := range chars {
		tags[i] = model.CharacterTag{Char: ch, Category: model.None}
	}

	for i := range roots {
		if err := mark(tags, &roots[i]); err != nil {
			return nil, err
		}
	}

	for i := range tags {
		if tags[i].Char == '\n' {
			tags[i].Category = model.None
		}
	}
	return tags, nil
}

func mark(tags []model.CharacterTag, node *model.AnnotationNode) error {
	start := node.Position - 1
	end := node.End()
	if node.Position < 1 || node.Count < 0 || end > len(tags) {
		return fmt.Errorf("%w: node at %d with %d characters, source has %d",
			ErrAnnotationOutOfBounds, node.Position, node.Count, len(tags))
	}

	for i := start; i < end; i++ {
		tags[i].Category = node.Category
	}

	for i := range node.Children {
		if err := mark(tags, &node.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// DropCarriageReturns removes every '\r'.
func DropCarriageReturns(tags []model.CharacterTag) []model.CharacterTag {
	return filter(tags, func(t model.CharacterTag) bool { return t.Char != '\r' })
}

// AbsorbComments marks uncovered non-blank characters as comments, then
// extends comment color over spaces that sit inside or trail a comment.
// A space is absorbed when its left neighbor is a comment and its right
// neighbor is a comment or whitespace; the scan runs left to right so a
// space absorbed at i counts as a comment for i+1.
func AbsorbComments(tags []model.CharacterTag) []model.CharacterTag {
	out := clone(tags)
	for i := range out {
		if out[i].Category == model.None && !unicode.IsSpace(out[i].Char) {
			out[i].Category = model.Comment
		}
	}

	for i := 1; i < len(out)-1; i++ {
		if out[i].Char != ' ' || out[i-1].Category != model.Comment {
			continue
		}
		next := out[i+1]
		if next.Category == model.Comment || unicode.IsSpace(next.Char) {
			out[i].Category = model.Comment
		}
	}
	return out
}

// StripUncategorized drops every uncategorized character except newlines.
func StripUncategorized(tags []model.CharacterTag) []model.CharacterTag {
	return filter(tags, func(t model.CharacterTag) bool {
		return t.Category != model.None || t.Char == '\n'
	})
}

// TrimLeadingBlank drops whitespace at the start of the table.
func TrimLeadingBlank(tags []model.CharacterTag) []model.CharacterTag {
	i := 0
	for i < len(tags) && unicode.IsSpace(tags[i].Char) {
		i++
	}
	return clone(tags[i:])
}

// TrimTrailingBlank drops trailing whitespace-only lines. A table that ended
// with a newline keeps exactly one.
func TrimTrailingBlank(tags []model.CharacterTag) []model.CharacterTag {
	last := len(tags) - 1
	for last >= 0 && unicode.IsSpace(tags[last].Char) {
		last--
	}
	if last < 0 {
		return []model.CharacterTag{}
	}
	end := last + 1
	for end < len(tags) {
		end++
		if tags[end-1].Char == '\n' {
			break
		}
	}
	return clone(tags[:end])
}

// CollapseBlankLines limits runs of consecutive newlines to three, that is
// at most two blank lines in a row.
func CollapseBlankLines(tags []model.CharacterTag) []model.CharacterTag {
	out := make([]model.CharacterTag, 0, len(tags))
	streak := 0
	for _, t := range tags {
		if t.Char == '\n' {
			streak++
			if streak > 3 {
				continue
			}
		} else {
			streak = 0
		}
		out = append(out, t)
	}
	return out
}

// NeutralizeIndent clears the category of the whitespace that follows each
// newline, so indentation is drawn as background.
func NeutralizeIndent(tags []model.CharacterTag) []model.CharacterTag {
	out := clone(tags)
	for i := range out {
		if out[i].Char != '\n' {
			continue
		}
		for j := i + 1; j < len(out) && unicode.IsSpace(out[j].Char); j++ {
			out[j].Category = model.None
		}
	}
	return out
}

// Text reassembles the characters of a tag table.
func Text(tags []model.CharacterTag) string {
	chars := make([]rune, len(tags))
	for i, t := range tags {
		chars[i] = t.Char
	}
	return string(chars)
}

func clone(tags []model.CharacterTag) []model.CharacterTag {
	out := make([]model.CharacterTag, len(tags))
	copy(out, tags)
	return out
}

func filter(tags []model.CharacterTag, keep func(model.CharacterTag) bool) []model.CharacterTag {
	out := make([]model.CharacterTag, 0, len(tags))
	for _, t := range tags {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
