// seesoft renders annotated source files as SeeSoft thumbnails with a
// linked inline view.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/phobologic/seesoft/internal/cache"
	"github.com/phobologic/seesoft/internal/config"
	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/logger"
	"github.com/phobologic/seesoft/internal/palette"
	"github.com/phobologic/seesoft/internal/raster"
	"github.com/phobologic/seesoft/internal/render"
	"github.com/phobologic/seesoft/internal/seesoft"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// app carries state shared by every subcommand of one invocation.
type app struct {
	stdout, stderr io.Writer

	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "seesoft",
		Short: "Render annotated source files as SeeSoft thumbnails",
		Long: `seesoft draws a source file as a thumbnail: one colored cell per character,
colored by the structural category (require, variable, function, interface,
other) of the innermost annotation covering it. Text outside any annotation
is drawn as comment. Each thumbnail comes with an inline view whose spans are
linked to the thumbnail by hit regions.

Input is an annotation document (JSON) naming a source path or URL and a
forest of annotation nodes. 'seesoft annotate' produces one from a source
file.

Examples:
  seesoft annotate main.go -o main.json     # annotate a source file
  seesoft render main.json                  # write main.png
  seesoft render main.json --hits -         # print hit regions as TOON
  seesoft view main.json                    # colored inline view in the terminal
  seesoft batch docs/ -o thumbs/ -n 20      # render the 20 most annotated documents
  seesoft mcp                               # serve tools over MCP stdio`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("seesoft {{.Version}}\n")

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default: .seesoft/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default: from config)")

	root.AddCommand(
		newRenderCmd(a),
		newViewCmd(a),
		newAnnotateCmd(a),
		newBatchCmd(a),
		newInitCmd(a),
		newMCPCmd(a),
		newCacheCmd(a),
	)
	return root
}

// setup loads configuration and installs the logger in the command context.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	log, err := logger.New(level, a.stderr)
	if err != nil {
		return err
	}
	a.log = log

	cmd.SetContext(logger.NewContext(cmd.Context(), log))
	return nil
}

// renderFlags are the options shared by commands that render documents.
type renderFlags struct {
	palette    string
	noComments bool
	small      bool
	cache      bool
}

func (f *renderFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.palette, "palette", "", "palette name: "+strings.Join(palette.Names(), ", ")+" (default: from config)")
	fs.BoolVar(&f.noComments, "no-comments", false, "leave text outside any annotation uncolored and trim blank lines")
	fs.BoolVar(&f.small, "small", false, "size for the compact file list, without hit regions")
	fs.BoolVar(&f.cache, "cache", false, "use the render cache even if disabled in config")
}

// dimensionValue is a pflag.Value holding a requested display size.
type dimensionValue geometry.Dimension

func (d *dimensionValue) String() string {
	if !geometry.Dimension(*d).IsSet() {
		return ""
	}
	return geometry.Dimension(*d).String()
}

func (d *dimensionValue) Set(s string) error {
	dim := geometry.ParseDimension(s)
	if !dim.IsExpr() && dim.Pixels < 0 {
		return fmt.Errorf("negative size %q", s)
	}
	*d = dimensionValue(dim)
	return nil
}

func (d *dimensionValue) Type() string { return "size" }

// options builds render options from config with flag overrides applied.
func (a *app) options(f *renderFlags) (seesoft.Options, error) {
	r := a.cfg.Render

	pal, err := a.cfg.NamedPalette(f.palette)
	if err != nil {
		return seesoft.Options{}, err
	}

	return seesoft.Options{
		Palette:    pal,
		Cell:       raster.Cell{Width: r.CellWidth, Height: r.CellHeight, Margin: r.MarginPixels()},
		Comments:   r.ShowComments() && !f.noComments,
		LineHeight: r.LineHeight,
		NoHits:     f.small,
	}, nil
}

// renderer returns a Renderer for f and a function releasing its cache.
func (a *app) renderer(f *renderFlags) (*render.Renderer, func(), error) {
	opts, err := a.options(f)
	if err != nil {
		return nil, nil, err
	}
	r := &render.Renderer{Options: opts}
	if !a.cfg.Cache.Enabled && !f.cache {
		return r, func() {}, nil
	}

	c, err := a.openCache()
	if err != nil {
		return nil, nil, err
	}
	r.Cache = c
	return r, func() {
		if err := c.Close(); err != nil {
			a.log.Warn("closing cache", zap.Error(err))
		}
	}, nil
}

// openCache opens the render cache in the configured directory.
func (a *app) openCache() (*cache.Cache, error) {
	workDir, err := filepath.Abs(".")
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	c, err := cache.Open(a.cfg.CacheDir(workDir))
	if err != nil {
		return nil, err
	}
	a.log.Debug("render cache", zap.String("path", c.Path()))
	return c, nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
