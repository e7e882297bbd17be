package raster

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/palette"
	"github.com/phobologic/seesoft/internal/tagtable"
)

var white = color.RGBA{0xff, 0xff, 0xff, 0xff}

func mustBuild(t *testing.T, source string, nodes []model.AnnotationNode) []model.CharacterTag {
	t.Helper()
	tags, err := tagtable.Build(source, nodes, tagtable.Options{Comments: true})
	if err != nil {
		t.Fatalf("tagtable.Build: %v", err)
	}
	return tags
}

func mustFill(t *testing.T, p palette.Palette, c model.Category) color.RGBA {
	t.Helper()
	fill, err := p.Fill(c)
	if err != nil {
		t.Fatalf("Fill(%v): %v", c, err)
	}
	return fill
}

func TestMeasure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		columns int
		rows    int
	}{
		{"empty", "", 0, 1},
		{"one line", "abc", 3, 1},
		{"trailing newline", "abc\n", 3, 2},
		{"tab counts four", "\tab\nabcd\n", 6, 3},
		{"unterminated last line is longest", "a\nabcdef", 6, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tags, _ := tagtable.Assign(tt.source, nil)
			g := Measure(tags, DefaultCell)
			if g.Columns != tt.columns || g.Rows != tt.rows {
				t.Errorf("Measure(%q) = %dx%d, want %dx%d", tt.source, g.Columns, g.Rows, tt.columns, tt.rows)
			}
		})
	}
}

func TestRasterizeDimensions(t *testing.T) {
	t.Parallel()

	tags := mustBuild(t, "local x = 1\n-- note\n", []model.AnnotationNode{
		{Position: 1, Count: 11, Category: model.Variable},
	})
	grid, img, err := Rasterize(tags, palette.Diagram, DefaultCell)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if grid.Columns != 11 || grid.Rows != 3 {
		t.Errorf("grid = %dx%d, want 11x3", grid.Columns, grid.Rows)
	}
	b := img.Bounds()
	if b.Dx() != grid.ImageWidth() || b.Dy() != grid.ImageHeight() {
		t.Errorf("image = %dx%d, want %dx%d", b.Dx(), b.Dy(), grid.ImageWidth(), grid.ImageHeight())
	}
	if b.Dx() != 95 || b.Dy() != 70 {
		t.Errorf("image = %dx%d, want 95x70", b.Dx(), b.Dy())
	}
}

func TestRasterizeCells(t *testing.T) {
	t.Parallel()

	tags := mustBuild(t, "ab\n-- c\n", []model.AnnotationNode{
		{Position: 1, Count: 2, Category: model.Function},
	})
	cell := Cell{Width: 2, Height: 3, Margin: 1}
	_, img, err := Rasterize(tags, palette.Diagram, cell)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}

	fn := mustFill(t, palette.Diagram, model.Function)
	comment := mustFill(t, palette.Diagram, model.Comment)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, white},   // margin
		{1, 1, fn},      // 'a' top-left
		{2, 3, fn},      // 'a' bottom-right
		{3, 1, fn},      // 'b'
		{5, 1, white},   // past end of line 0
		{1, 4, comment}, // '-' on line 1
		{5, 4, comment}, // ' ' absorbed into comment
		{8, 6, comment}, // 'c'
		{1, 7, white},   // empty last line
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

// The tag table neutralizes indentation before rasterizing, so a leading tab
// inside a function node is drawn with the empty color while a tab after
// code keeps the node's color.
func TestRasterizeTabs(t *testing.T) {
	t.Parallel()

	source := "f(\n\tx\ty)"
	nodes := []model.AnnotationNode{{Position: 1, Count: 8, Category: model.Function}}
	cell := Cell{Width: 1, Height: 1, Margin: 0}

	assigned, err := tagtable.Assign(source, nodes)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	_, raw, err := Rasterize(assigned, palette.Pastel, cell)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	fn := mustFill(t, palette.Pastel, model.Function)
	if got := raw.RGBAAt(0, 1); got != fn {
		t.Errorf("unneutralized leading tab = %v, want function color", got)
	}

	tags := mustBuild(t, source, nodes)
	grid, img, err := Rasterize(tags, palette.Pastel, cell)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if grid.Columns != 11 {
		t.Errorf("columns = %d, want 11", grid.Columns)
	}
	for x := 0; x < 4; x++ {
		if got := img.RGBAAt(x, 1); got != white {
			t.Errorf("leading tab pixel %d = %v, want empty", x, got)
		}
	}
	if got := img.RGBAAt(4, 1); got != fn {
		t.Errorf("x pixel = %v, want function", got)
	}
	for x := 5; x < 9; x++ {
		if got := img.RGBAAt(x, 1); got != fn {
			t.Errorf("inner tab pixel %d = %v, want function", x, got)
		}
	}
}

func TestRasterizeDeterministic(t *testing.T) {
	t.Parallel()

	source := "local M = {}\n\nfunction M.f(a)\n\treturn a -- id\nend\n\nreturn M\n"
	nodes := []model.AnnotationNode{
		{Position: 1, Count: 12, Category: model.Variable},
		{Position: 15, Count: 34, Category: model.Function},
		{Position: 51, Count: 8, Category: model.Interface},
	}
	tags := mustBuild(t, source, nodes)

	var grid model.PixelGrid
	encode := func() []byte {
		g, img, err := Rasterize(tags, palette.Diagram, DefaultCell)
		if err != nil {
			t.Fatalf("Rasterize: %v", err)
		}
		data, err := EncodePNG(img)
		if err != nil {
			t.Fatalf("EncodePNG: %v", err)
		}
		grid = g
		return data
	}

	first, second := encode(), encode()
	if !bytes.Equal(first, second) {
		t.Error("two rasterizations of the same input differ")
	}

	decoded, err := png.Decode(bytes.NewReader(first))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if grid.Columns != 18 {
		t.Errorf("columns = %d, want 18", grid.Columns)
	}
	if decoded.Bounds().Dx() != grid.ImageWidth() || decoded.Bounds().Dy() != grid.ImageHeight() {
		t.Errorf("decoded bounds = %v, want %dx%d", decoded.Bounds(), grid.ImageWidth(), grid.ImageHeight())
	}
}

func TestRasterizeEmpty(t *testing.T) {
	t.Parallel()

	grid, img, err := Rasterize(nil, palette.Diagram, DefaultCell)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if grid.Columns != 0 || grid.Rows != 1 {
		t.Errorf("grid = %dx%d", grid.Columns, grid.Rows)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 50 {
		t.Errorf("image = %v", img.Bounds())
	}
}

func TestRasterizeErrors(t *testing.T) {
	t.Parallel()

	if _, _, err := Rasterize(nil, palette.Diagram, Cell{Width: 0, Height: 1}); err == nil {
		t.Error("expected error for zero cell width")
	}

	partial := palette.New("partial", map[model.Category]string{}, "#FFFFFF")
	tags := []model.CharacterTag{{Char: 'a', Category: model.Require}}
	if _, _, err := Rasterize(tags, partial, DefaultCell); !errors.Is(err, model.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestScale(t *testing.T) {
	t.Parallel()

	tags := mustBuild(t, "abc\n", []model.AnnotationNode{{Position: 1, Count: 3, Category: model.Other}})
	_, img, err := Rasterize(tags, palette.Diagram, DefaultCell)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	scaled, err := Scale(img, 20, 30)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if scaled.Bounds().Dx() != 20 || scaled.Bounds().Dy() != 30 {
		t.Errorf("scaled = %v", scaled.Bounds())
	}
	if _, err := Scale(img, 0, 10); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestScalePNG(t *testing.T) {
	t.Parallel()

	tags := mustBuild(t, "ab\ncd\n", []model.AnnotationNode{{Position: 1, Count: 2, Category: model.Function}})
	_, img, err := Rasterize(tags, palette.Diagram, DefaultCell)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	scaled, err := ScalePNG(data, 10, 8)
	if err != nil {
		t.Fatalf("ScalePNG: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(scaled))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 10 || cfg.Height != 8 {
		t.Errorf("scaled = %dx%d, want 10x8", cfg.Width, cfg.Height)
	}

	if _, err := ScalePNG([]byte("not a png"), 10, 8); err == nil {
		t.Error("expected error for invalid png")
	}
}
