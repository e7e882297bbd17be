// Package seesoft builds every artifact of the SeeSoft view for one source
// file: tag table, runs, inline tokens, thumbnail, and hit regions.
package seesoft

import (
	"fmt"
	"image"

	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/inline"
	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/palette"
	"github.com/phobologic/seesoft/internal/raster"
	"github.com/phobologic/seesoft/internal/runs"
	"github.com/phobologic/seesoft/internal/tagtable"
)

// Options configures a build.
type Options struct {
	Palette    palette.Palette
	Cell       raster.Cell
	Comments   bool
	LineHeight int
	// NoHits skips hit regions, as for the compact thumbnail.
	NoHits bool
}

// DefaultOptions matches the dashboard: diagram palette, 5x10 cells with a
// 20px margin, comments shown.
func DefaultOptions() Options {
	return Options{
		Palette:    palette.Diagram,
		Cell:       raster.DefaultCell,
		Comments:   true,
		LineHeight: geometry.LineHeight,
	}
}

// Result holds the artifacts of one build.
type Result struct {
	Tags   []model.CharacterTag
	Runs   []model.Run
	Tokens []inline.Token
	Grid   model.PixelGrid
	Image  *image.RGBA
	PNG    []byte
	Hits   []geometry.HitLine
}

// Build runs the full pipeline. Empty text gives empty tags, runs, and
// tokens and a margin-only image.
func Build(text string, nodes []model.AnnotationNode, opts Options) (*Result, error) {
	if opts.LineHeight <= 0 {
		opts.LineHeight = geometry.LineHeight
	}

	tags, err := tagtable.Build(text, nodes, tagtable.Options{Comments: opts.Comments})
	if err != nil {
		return nil, fmt.Errorf("building tag table: %w", err)
	}

	rs, err := runs.Encode(tags, opts.Palette)
	if err != nil {
		return nil, fmt.Errorf("encoding runs: %w", err)
	}

	tokens, err := inline.Render(rs)
	if err != nil {
		return nil, fmt.Errorf("rendering inline view: %w", err)
	}

	grid, img, err := raster.Rasterize(tags, opts.Palette, opts.Cell)
	if err != nil {
		return nil, fmt.Errorf("rasterizing: %w", err)
	}

	data, err := raster.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Tags:   tags,
		Runs:   rs,
		Tokens: tokens,
		Grid:   grid,
		Image:  img,
		PNG:    data,
	}
	if !opts.NoHits {
		res.Hits = geometry.HitRegions(tags, grid, opts.LineHeight)
	}
	return res, nil
}

// Fit returns the display size of the thumbnail for the requested
// dimensions, using the small or full view bounds.
func (r *Result) Fit(reqW, reqH geometry.Dimension, small bool) (geometry.Dimension, geometry.Dimension) {
	b := geometry.FullBounds
	if small {
		b = geometry.SmallBounds
	}
	return r.FitBounds(reqW, reqH, b)
}

// FitBounds is Fit with explicit bounds.
func (r *Result) FitBounds(reqW, reqH geometry.Dimension, b geometry.Bounds) (geometry.Dimension, geometry.Dimension) {
	return geometry.FitDimensions(r.Grid.ImageWidth(), r.Grid.ImageHeight(), reqW, reqH, b)
}

// Coverage returns the fraction of non-whitespace characters that carry a
// category other than Comment. It is 0 for an empty table.
func Coverage(tags []model.CharacterTag) float64 {
	total, annotated := 0, 0
	for _, t := range tags {
		switch t.Char {
		case ' ', '\t', '\n', '\r':
			continue
		}
		total++
		if t.Category != model.None && t.Category != model.Comment {
			annotated++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(annotated) / float64(total)
}
