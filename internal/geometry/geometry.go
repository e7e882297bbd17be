// Package geometry maps thumbnail pixels back to the inline view and sizes
// the thumbnail for display.
package geometry

import (
	"strconv"
	"strings"

	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/raster"
	"github.com/phobologic/seesoft/internal/runs"
)

// LineHeight is the default inline-view line height in pixels.
const LineHeight = 15

// HitRegion is one hoverable point on the thumbnail. X and Y are the pixel
// center of a character cell, origin top-left.
type HitRegion struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	ScrollOffset int     `json:"scroll"`
	Anchor       int     `json:"anchor"`
}

// HitLine groups the regions of one source line (0-indexed from the top).
type HitLine struct {
	Line    int         `json:"line"`
	Regions []HitRegion `json:"regions"`
}

// ScrollOffset is the inline-view offset that brings line into view for a
// file of rows lines, leaving one line of slack above it. Lines near the
// bottom get negative offsets.
func ScrollOffset(line, rows, lineHeight int) int {
	return (rows - line - 2) * lineHeight
}

// HitRegions emits a region for every categorized character that is not a
// tab or newline, grouped per line. Lines without regions are omitted.
func HitRegions(tags []model.CharacterTag, grid model.PixelGrid, lineHeight int) []HitLine {
	anchors := runs.AnchorAt(tags)

	var out []HitLine
	var cur *HitLine
	row, col := 0, 0
	for i, t := range tags {
		switch t.Char {
		case '\n':
			row++
			col = 0
			continue
		case '\t':
			col += raster.TabWidth
			continue
		}

		if t.Category != model.None {
			if cur == nil || cur.Line != row {
				out = append(out, HitLine{Line: row})
				cur = &out[len(out)-1]
			}
			cur.Regions = append(cur.Regions, HitRegion{
				X:            float64(grid.Margin) + (float64(col)+0.5)*float64(grid.CellWidth),
				Y:            float64(grid.Margin) + (float64(row)+0.5)*float64(grid.CellHeight),
				ScrollOffset: ScrollOffset(row, grid.Rows, lineHeight),
				Anchor:       anchors[i],
			})
		}
		col++
	}
	return out
}

// Dimension is a requested display size: a pixel count, an opaque CSS
// expression such as "80vh" or "50%", or unset (the zero value).
type Dimension struct {
	Pixels float64
	Expr   string
}

// Px returns a pixel dimension.
func Px(v float64) Dimension { return Dimension{Pixels: v} }

// ParseDimension reads a flag or config value. Numbers (optionally suffixed
// "px") become pixels; anything else non-empty is kept as an expression.
func ParseDimension(s string) Dimension {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dimension{}
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64); err == nil {
		return Dimension{Pixels: v}
	}
	return Dimension{Expr: s}
}

// IsExpr reports whether d is an opaque expression.
func (d Dimension) IsExpr() bool { return d.Expr != "" }

// IsSet reports whether d is an expression or a positive pixel count.
func (d Dimension) IsSet() bool { return d.IsExpr() || d.Pixels > 0 }

func (d Dimension) String() string {
	if d.IsExpr() {
		return d.Expr
	}
	return strconv.FormatFloat(d.Pixels, 'f', -1, 64)
}

// Bounds limits derived display dimensions.
type Bounds struct {
	MaxWidth  float64 `yaml:"max_width"`
	MinHeight float64 `yaml:"min_height"`
	MaxHeight float64 `yaml:"max_height"`
}

// FullBounds sizes the thumbnail next to the full code view.
var FullBounds = Bounds{MaxWidth: 200, MinHeight: 200, MaxHeight: 750}

// SmallBounds sizes the thumbnail in the compact file list.
var SmallBounds = Bounds{MaxWidth: 230, MinHeight: 200, MaxHeight: 650}

// FitDimensions picks the display size of a naturalW x naturalH image.
// An expression in either request passes both requests through, as do two
// numeric requests. Otherwise the width is b.MaxWidth and the height keeps
// the aspect ratio, clamped to [b.MinHeight, b.MaxHeight].
func FitDimensions(naturalW, naturalH int, reqW, reqH Dimension, b Bounds) (Dimension, Dimension) {
	if reqW.IsExpr() || reqH.IsExpr() {
		return reqW, reqH
	}
	if reqW.Pixels > 0 && reqH.Pixels > 0 {
		return reqW, reqH
	}

	width := b.MaxWidth
	height := b.MinHeight
	if naturalW > 0 {
		height = width * float64(naturalH) / float64(naturalW)
	}
	if height < b.MinHeight {
		height = b.MinHeight
	}
	if height > b.MaxHeight {
		height = b.MaxHeight
	}
	return Px(width), Px(height)
}
