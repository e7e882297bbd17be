// Package palette maps categories to the colors used by the inline view and
// the thumbnail. Palettes are plain values so several can coexist.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/phobologic/seesoft/internal/model"
)

// ErrUnknownPalette is returned by Named for an unregistered palette name.
var ErrUnknownPalette = errors.New("unknown palette")

// ErrInvalidColor is returned for a malformed hex color.
var ErrInvalidColor = errors.New("invalid color")

// Palette holds one hex color per non-None category plus the empty color
// used for uncategorized cells and the image background.
type Palette struct {
	Name   string
	colors map[model.Category]string
	Empty  string
}

// Diagram is the saturated palette used by the dashboard charts.
var Diagram = New("diagram", map[model.Category]string{
	model.Require:   "#F58518",
	model.Variable:  "#54A24B",
	model.Function:  "#4C78A8",
	model.Interface: "#B279A2",
	model.Other:     "#EECA3B",
	model.Comment:   "#eaeaea",
}, "#FFFFFF")

// Pastel is the light palette used by the standalone code view.
var Pastel = New("pastel", map[model.Category]string{
	model.Require:   "#FFAD7A",
	model.Variable:  "#75EB87",
	model.Function:  "#9ECBFF",
	model.Interface: "#E58DF0",
	model.Other:     "#FFEC91",
	model.Comment:   "#E5E5E5",
}, "#FFFFFF")

var registry = map[string]Palette{
	Diagram.Name: Diagram,
	Pastel.Name:  Pastel,
}

// New builds a palette. The map is copied.
func New(name string, colors map[model.Category]string, empty string) Palette {
	cp := make(map[model.Category]string, len(colors))
	for c, hex := range colors {
		cp[c] = hex
	}
	return Palette{Name: name, colors: cp, Empty: empty}
}

// Named returns a registered palette by name.
func Named(name string) (Palette, error) {
	p, ok := registry[name]
	if !ok {
		return Palette{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPalette, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists registered palette names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hex returns the hex color of c. None has no color and reports false,
// as does a category the palette does not define.
func (p Palette) Hex(c model.Category) (string, bool) {
	if c == model.None {
		return "", false
	}
	hex, ok := p.colors[c]
	return hex, ok
}

// Fill returns the RGBA fill of c for the thumbnail; None uses Empty.
func (p Palette) Fill(c model.Category) (color.RGBA, error) {
	if c == model.None {
		return ParseHex(p.Empty)
	}
	hex, ok := p.colors[c]
	if !ok {
		return color.RGBA{}, fmt.Errorf("%w: %v in palette %q", model.ErrUnknownCategory, c, p.Name)
	}
	return ParseHex(hex)
}

// Key returns a stable description of every color in p, suitable for
// cache keys.
func (p Palette) Key() string {
	var b strings.Builder
	b.WriteString(p.Name)
	for _, c := range model.Categories {
		fmt.Fprintf(&b, ";%s=%s", c, p.colors[c])
	}
	fmt.Fprintf(&b, ";empty=%s", p.Empty)
	return b.String()
}

// WithOverrides returns a copy of p with colors replaced by category name.
// The key "empty" replaces the empty color.
func (p Palette) WithOverrides(overrides map[string]string) (Palette, error) {
	out := New(p.Name, p.colors, p.Empty)
	for name, hex := range overrides {
		if _, err := ParseHex(hex); err != nil {
			return Palette{}, fmt.Errorf("color for %q: %w", name, err)
		}
		if name == "empty" {
			out.Empty = hex
			continue
		}
		c, err := parseOverrideKey(name)
		if err != nil {
			return Palette{}, err
		}
		out.colors[c] = hex
	}
	return out, nil
}

func parseOverrideKey(name string) (model.Category, error) {
	if name == "comment" {
		return model.Comment, nil
	}
	c, err := model.ParseCategory(name)
	if err != nil {
		return model.None, err
	}
	if c == model.None {
		return model.None, fmt.Errorf("%w: %q has no color", model.ErrUnknownCategory, name)
	}
	return c, nil
}

// ParseHex parses "#RRGGBB" or "#RGB" into an opaque color.
func ParseHex(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
