// Package raster draws a tag table as a thumbnail: one colored cell per
// character, lines stacked top to bottom.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/palette"
)

// TabWidth is the number of cells a tab occupies.
const TabWidth = 4

// Cell is the pixel geometry of one character cell and the image margin.
type Cell struct {
	Width  int
	Height int
	Margin int
}

// DefaultCell is the geometry of the dashboard thumbnail.
var DefaultCell = Cell{Width: 5, Height: 10, Margin: 20}

// Measure computes the grid for tags: the longest line in cells (tabs count
// TabWidth) and the number of lines.
func Measure(tags []model.CharacterTag, cell Cell) model.PixelGrid {
	g := model.PixelGrid{CellWidth: cell.Width, CellHeight: cell.Height, Margin: cell.Margin, Rows: 1}
	width := 0
	for _, t := range tags {
		switch t.Char {
		case '\n':
			g.Rows++
			width = 0
			continue
		case '\t':
			width += TabWidth
		default:
			width++
		}
		if width > g.Columns {
			g.Columns = width
		}
	}
	return g
}

// Rasterize draws tags into a new image sized by Measure. The background and
// uncategorized cells use the palette's empty color.
func Rasterize(tags []model.CharacterTag, pal palette.Palette, cell Cell) (model.PixelGrid, *image.RGBA, error) {
	if cell.Width <= 0 || cell.Height <= 0 || cell.Margin < 0 {
		return model.PixelGrid{}, nil, fmt.Errorf("invalid cell geometry %dx%d margin %d", cell.Width, cell.Height, cell.Margin)
	}

	grid := Measure(tags, cell)
	img := image.NewRGBA(image.Rect(0, 0, grid.ImageWidth(), grid.ImageHeight()))

	empty, err := pal.Fill(model.None)
	if err != nil {
		return model.PixelGrid{}, nil, err
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: empty}, image.Point{}, draw.Src)

	fills := make(map[model.Category]color.RGBA)
	row, col := 0, 0
	for _, t := range tags {
		if t.Char == '\n' {
			row++
			col = 0
			continue
		}

		span := 1
		if t.Char == '\t' {
			span = TabWidth
		}

		fill, ok := fills[t.Category]
		if !ok {
			fill, err = pal.Fill(t.Category)
			if err != nil {
				return model.PixelGrid{}, nil, err
			}
			fills[t.Category] = fill
		}

		x := cell.Margin + col*cell.Width
		y := cell.Margin + row*cell.Height
		r := image.Rect(x, y, x+span*cell.Width, y+cell.Height)
		draw.Draw(img, r, &image.Uniform{C: fill}, image.Point{}, draw.Src)

		col += span
	}

	return grid, img, nil
}

// EncodePNG returns the PNG encoding of img. Equal images give equal bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// Scale resizes img to width x height with nearest-neighbor sampling.
func Scale(img image.Image, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid scale target %dx%d", width, height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// ScalePNG decodes a PNG, resizes it with Scale, and encodes the result.
func ScalePNG(data []byte, width, height int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding png: %w", err)
	}
	scaled, err := Scale(img, width, height)
	if err != nil {
		return nil, err
	}
	return EncodePNG(scaled)
}
