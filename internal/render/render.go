// Package render loads annotation documents and renders them through the
// seesoft pipeline, consulting the render cache when one is configured.
package render

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/phobologic/seesoft/internal/cache"
	"github.com/phobologic/seesoft/internal/document"
	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/inline"
	"github.com/phobologic/seesoft/internal/logger"
	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/seesoft"
)

// Renderer renders documents with fixed options. Cache may be nil.
type Renderer struct {
	Options seesoft.Options
	Cache   *cache.Cache
}

// Output holds what callers write out. Tags and the decoded image are not
// kept, since a cache hit does not have them.
type Output struct {
	Document *model.Document
	Grid     model.PixelGrid
	PNG      []byte
	Runs     []model.Run
	Tokens   []inline.Token
	Hits     []geometry.HitLine
	Coverage float64
	Cached   bool
}

// Fit returns the display size for the requested dimensions.
func (o *Output) Fit(reqW, reqH geometry.Dimension, b geometry.Bounds) (geometry.Dimension, geometry.Dimension) {
	return geometry.FitDimensions(o.Grid.ImageWidth(), o.Grid.ImageHeight(), reqW, reqH, b)
}

// OptionsKey describes every option that changes the rendered output.
func OptionsKey(o seesoft.Options) string {
	return fmt.Sprintf("%s|cell=%dx%d+%d|comments=%t|line=%d|hits=%t",
		o.Palette.Key(), o.Cell.Width, o.Cell.Height, o.Cell.Margin, o.Comments, o.LineHeight, !o.NoHits)
}

// Document opens ref (a path or URL), loads its source, and renders it.
func (r *Renderer) Document(ctx context.Context, ref string) (*Output, error) {
	doc, err := document.Open(ctx, ref)
	if err != nil {
		return nil, err
	}

	baseDir := ""
	if !document.IsURL(ref) {
		baseDir = filepath.Dir(ref)
	}
	text, err := document.Source(ctx, doc, baseDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}

	out, err := r.Text(ctx, text, doc.Nodes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	out.Document = doc
	return out, nil
}

// Text renders text with nodes.
func (r *Renderer) Text(ctx context.Context, text string, nodes []model.AnnotationNode) (*Output, error) {
	log := logger.L(ctx)

	var key string
	if r.Cache != nil {
		k, err := cache.Key(text, nodes, OptionsKey(r.Options))
		if err != nil {
			return nil, err
		}
		key = k
		if out, ok := r.fromCache(ctx, key); ok {
			return out, nil
		}
	}

	start := time.Now()
	res, err := seesoft.Build(text, nodes, r.Options)
	if err != nil {
		return nil, err
	}
	log.Debug("rendered",
		zap.Int("chars", len(res.Tags)),
		zap.Int("runs", len(res.Runs)),
		zap.Int("width", res.Grid.ImageWidth()),
		zap.Int("height", res.Grid.ImageHeight()),
		zap.Duration("took", time.Since(start)))

	out := &Output{
		Grid:     res.Grid,
		PNG:      res.PNG,
		Runs:     res.Runs,
		Tokens:   res.Tokens,
		Hits:     res.Hits,
		Coverage: seesoft.Coverage(res.Tags),
	}

	if r.Cache != nil {
		err := r.Cache.Put(&cache.Entry{
			Key:     key,
			Columns: res.Grid.Columns,
			Rows:    res.Grid.Rows,
			PNG:     res.PNG,
			Runs:    res.Runs,
			Hits:    res.Hits,
		})
		if err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func (r *Renderer) fromCache(ctx context.Context, key string) (*Output, bool) {
	log := logger.L(ctx)

	e, ok, err := r.Cache.Get(key)
	if err != nil {
		log.Warn("cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	tokens, err := inline.Render(e.Runs)
	if err != nil {
		log.Warn("cached runs unusable", zap.Error(err))
		return nil, false
	}

	log.Debug("cache hit", zap.String("key", key[:12]))
	cell := r.Options.Cell
	return &Output{
		Grid: model.PixelGrid{
			CellWidth:  cell.Width,
			CellHeight: cell.Height,
			Margin:     cell.Margin,
			Columns:    e.Columns,
			Rows:       e.Rows,
		},
		PNG:      e.PNG,
		Runs:     e.Runs,
		Tokens:   tokens,
		Hits:     e.Hits,
		Coverage: runCoverage(e.Runs),
		Cached:   true,
	}, true
}

// runCoverage recomputes seesoft.Coverage from runs.
func runCoverage(runs []model.Run) float64 {
	var tags []model.CharacterTag
	for _, r := range runs {
		for _, ch := range r.Text {
			tags = append(tags, model.CharacterTag{Char: ch, Category: r.Category})
		}
	}
	return seesoft.Coverage(tags)
}
