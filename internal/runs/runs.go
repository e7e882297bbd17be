// Package runs compacts a tag table into colored runs with anchor ids.
package runs

import (
	"fmt"
	"strings"

	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/palette"
)

// Encode groups consecutive characters with equal categories into runs.
// Every categorized run receives the next anchor id, starting at 1.
func Encode(tags []model.CharacterTag, pal palette.Palette) ([]model.Run, error) {
	var out []model.Run
	var text strings.Builder
	anchor := 0

	flush := func(cat model.Category) error {
		run := model.Run{Category: cat, Text: text.String()}
		if cat != model.None {
			hex, ok := pal.Hex(cat)
			if !ok {
				return fmt.Errorf("%w: %v in palette %q", model.ErrUnknownCategory, cat, pal.Name)
			}
			anchor++
			run.Color = hex
			run.Anchor = anchor
		}
		out = append(out, run)
		text.Reset()
		return nil
	}

	for i, tag := range tags {
		if i > 0 && tag.Category != tags[i-1].Category {
			if err := flush(tags[i-1].Category); err != nil {
				return nil, err
			}
		}
		text.WriteRune(tag.Char)
	}
	if len(tags) > 0 {
		if err := flush(tags[len(tags)-1].Category); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AnchorAt returns, for every tag index, the anchor id of the run holding it
// (0 for uncategorized characters). It agrees with Encode by construction.
func AnchorAt(tags []model.CharacterTag) []int {
	out := make([]int, len(tags))
	anchor := 0
	for i, tag := range tags {
		if tag.Category == model.None {
			continue
		}
		if i == 0 || tags[i-1].Category != tag.Category {
			anchor++
		}
		out[i] = anchor
	}
	return out
}

// Text concatenates the text of all runs.
func Text(rs []model.Run) string {
	var b strings.Builder
	for _, r := range rs {
		b.WriteString(r.Text)
	}
	return b.String()
}
