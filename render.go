package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phobologic/seesoft/internal/document"
	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/inline"
	"github.com/phobologic/seesoft/internal/logger"
	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/raster"
	"github.com/phobologic/seesoft/internal/render"
	"github.com/phobologic/seesoft/internal/toon"
)

type renderOptions struct {
	renderFlags
	output string
	html   string
	hits   string
	format string
	width  dimensionValue
	height dimensionValue
	embed  string
	dryRun bool
	resize bool
}

func newRenderCmd(a *app) *cobra.Command {
	o := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render DOC",
		Short: "Render an annotation document to a PNG thumbnail",
		Long: `Render an annotation document (a path or http(s) URL) to a PNG thumbnail.

The thumbnail is written next to the document unless -o is given. --html
writes the linked inline view, --hits writes the hit regions that map
thumbnail pixels to inline spans, and --embed places an <img> plus the
inline view inside a sentinel block of an existing HTML or Markdown file,
replacing the block on later runs.

Display size: --width and --height accept pixels or an expression such as
80vh. Numbers for both, or any expression, are used as given; otherwise the
width is the view's maximum and the height keeps the aspect ratio within the
view's bounds. --resize writes the PNG at the display size instead of the
natural size; hit regions stay in natural pixels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args[0], o)
		},
	}
	o.register(cmd.Flags())
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "PNG output path, - for stdout (default: DOC with .png extension)")
	cmd.Flags().StringVar(&o.html, "html", "", "write the inline view as HTML to this file")
	cmd.Flags().StringVar(&o.hits, "hits", "", "write hit regions to this file, - for stdout")
	cmd.Flags().StringVarP(&o.format, "format", "f", "toon", "hit region format: toon or json")
	cmd.Flags().Var(&o.width, "width", "requested display width: pixels or an expression such as 80vh")
	cmd.Flags().Var(&o.height, "height", "requested display height: pixels or an expression such as 50%")
	cmd.Flags().StringVar(&o.embed, "embed", "", "embed the thumbnail and inline view in this HTML or Markdown file")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "with --embed, print the updated file instead of writing it")
	cmd.Flags().BoolVar(&o.resize, "resize", false, "resample the PNG to the display size when both sides are pixels")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, ref string, o *renderOptions) error {
	if o.format != "toon" && o.format != "json" {
		return fmt.Errorf("unsupported format %q (want toon or json)", o.format)
	}

	r, done, err := a.renderer(&o.renderFlags)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	out, err := r.Document(ctx, ref)
	if err != nil {
		return err
	}

	bounds := a.cfg.View.Full
	if o.small {
		bounds = a.cfg.View.Small
	}
	w, h := out.Fit(geometry.Dimension(o.width), geometry.Dimension(o.height), bounds)
	logger.L(ctx).Debug("display size",
		zap.String("width", w.String()),
		zap.String("height", h.String()),
		zap.Bool("cached", out.Cached))

	pngPath := o.output
	if pngPath == "" {
		pngPath = defaultOutput(ref)
	}
	data := out.PNG
	if o.resize {
		if w.IsExpr() || h.IsExpr() {
			return fmt.Errorf("--resize needs a pixel display size, got %sx%s", w, h)
		}
		data, err = raster.ScalePNG(out.PNG, int(math.Round(w.Pixels)), int(math.Round(h.Pixels)))
		if err != nil {
			return err
		}
	}
	if err := a.writeOutput(pngPath, data); err != nil {
		return err
	}

	if o.html != "" {
		var buf bytes.Buffer
		if err := inline.WriteHTML(&buf, out.Tokens, htmlOptions(r)); err != nil {
			return err
		}
		if err := a.writeOutput(o.html, buf.Bytes()); err != nil {
			return err
		}
	}

	if o.hits != "" {
		data, err := encodeHits(ref, out, [2]geometry.Dimension{w, h}, o.format)
		if err != nil {
			return err
		}
		if err := a.writeOutput(o.hits, data); err != nil {
			return err
		}
	}

	if o.embed != "" {
		if err := a.embed(o.embed, out, htmlOptions(r), w, h, o.dryRun); err != nil {
			return err
		}
	}

	if pngPath != "-" && o.hits != "-" && !o.dryRun {
		_, _ = fmt.Fprintf(a.stdout, "%s: %dx%d, display %sx%s\n",
			pngPath, out.Grid.ImageWidth(), out.Grid.ImageHeight(), w, h)
	}
	return nil
}

// anchorPrefix prefixes inline span ids so hit-region anchors resolve to
// "#code-<anchor>".
const anchorPrefix = "code-"

// htmlOptions returns the inline view options matching r's hit regions.
func htmlOptions(r *render.Renderer) inline.HTMLOptions {
	lh := r.Options.LineHeight
	if lh <= 0 {
		lh = geometry.LineHeight
	}
	return inline.HTMLOptions{Prefix: anchorPrefix, LineHeight: lh}
}

// defaultOutput derives the PNG path from a document reference: the
// document path with a .png extension, or the URL's base name in the
// working directory.
func defaultOutput(ref string) string {
	if document.IsURL(ref) {
		base := "seesoft"
		if u, err := url.Parse(ref); err == nil && strings.Trim(u.Path, "/") != "" {
			base = path.Base(u.Path)
		}
		return strings.TrimSuffix(base, path.Ext(base)) + ".png"
	}
	return strings.TrimSuffix(ref, filepath.Ext(ref)) + ".png"
}

// hitsDocument is the JSON shape of --hits output.
type hitsDocument struct {
	File    string             `json:"file"`
	Width   int                `json:"width"`
	Height  int                `json:"height"`
	Columns int                `json:"columns"`
	Rows    int                `json:"rows"`
	Display [2]string          `json:"display"`
	Hits    []geometry.HitLine `json:"hits"`
	Runs    []model.Run        `json:"runs"`
}

func encodeHits(ref string, out *render.Output, display [2]geometry.Dimension, format string) ([]byte, error) {
	if format == "json" {
		hits := out.Hits
		if hits == nil {
			hits = []geometry.HitLine{}
		}
		data, err := json.MarshalIndent(hitsDocument{
			File:    ref,
			Width:   out.Grid.ImageWidth(),
			Height:  out.Grid.ImageHeight(),
			Columns: out.Grid.Columns,
			Rows:    out.Grid.Rows,
			Display: [2]string{display[0].String(), display[1].String()},
			Hits:    hits,
			Runs:    out.Runs,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding hits: %w", err)
		}
		return append(data, '\n'), nil
	}

	report := &toon.Report{
		Path:    ref,
		Grid:    out.Grid,
		Display: display,
		Runs:    out.Runs,
		Hits:    out.Hits,
	}
	return []byte(toon.Encode(report) + "\n"), nil
}

var embedMarkers = sentinels{
	start: "<!-- seesoft:start -->",
	end:   "<!-- seesoft:end -->",
}

// embed writes the thumbnail and inline view into file between the seesoft
// sentinels.
func (a *app) embed(file string, out *render.Output, opts inline.HTMLOptions, w, h geometry.Dimension, dryRun bool) error {
	var buf bytes.Buffer
	buf.WriteString(embedMarkers.start + "\n")
	fmt.Fprintf(&buf, `<img src="data:image/png;base64,%s" style="width:%s;height:%s" alt="seesoft thumbnail">`+"\n",
		base64.StdEncoding.EncodeToString(out.PNG), cssSize(w), cssSize(h))
	if err := inline.WriteHTML(&buf, out.Tokens, opts); err != nil {
		return err
	}
	buf.WriteString(embedMarkers.end)

	existing, _ := os.ReadFile(file)
	updated := embedMarkers.apply(string(existing), buf.String())

	if dryRun {
		_, _ = fmt.Fprint(a.stdout, updated)
		return nil
	}
	if err := os.WriteFile(file, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}

// cssSize formats d for a style attribute: pixels get a px suffix,
// expressions pass through.
func cssSize(d geometry.Dimension) string {
	if d.IsExpr() {
		return d.Expr
	}
	return d.String() + "px"
}
