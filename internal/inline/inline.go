// Package inline turns runs into a styled token stream and writes it as HTML
// or as colored terminal text.
package inline

import (
	"fmt"

	"github.com/phobologic/seesoft/internal/model"
)

// Kind distinguishes inline tokens.
type Kind int

const (
	LineBreak Kind = iota
	Text
	Span
)

// Token is one element of the inline view. ID and Color are set for Span.
type Token struct {
	Kind  Kind
	Text  string
	ID    int
	Color string
}

// Render maps runs to tokens: an uncategorized "\n" run is a line break,
// other uncategorized runs are plain text, categorized runs are spans.
func Render(rs []model.Run) ([]Token, error) {
	out := make([]Token, 0, len(rs))
	for i, r := range rs {
		switch {
		case r.Category == model.None && r.Text == "\n":
			out = append(out, Token{Kind: LineBreak})
		case r.Category == model.None:
			out = append(out, Token{Kind: Text, Text: r.Text})
		case !r.Category.Valid() || r.Color == "":
			return nil, fmt.Errorf("run %d: %w: %v", i, model.ErrUnknownCategory, r.Category)
		default:
			out = append(out, Token{Kind: Span, Text: r.Text, ID: r.Anchor, Color: r.Color})
		}
	}
	return out, nil
}
