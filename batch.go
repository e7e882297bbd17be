package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phobologic/seesoft/internal/annotate"
	"github.com/phobologic/seesoft/internal/discover"
	"github.com/phobologic/seesoft/internal/document"
	"github.com/phobologic/seesoft/internal/lang"
	"github.com/phobologic/seesoft/internal/logger"
	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/ranking"
	"github.com/phobologic/seesoft/internal/render"
	"github.com/phobologic/seesoft/internal/source"
	"github.com/phobologic/seesoft/internal/toon"
)

type batchOptions struct {
	renderFlags
	outDir      string
	maxFiles    int
	workers     int
	match       string
	sources     bool
	langs       string
	maxFileSize int
	skipTests   bool
	force       bool
}

func newBatchCmd(a *app) *cobra.Command {
	o := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch [DIR]",
		Short: "Render every annotation document under a directory",
		Long: `Render every annotation document (*.json) under DIR (default: the working
directory), honoring .gitignore. With --sources, source files are annotated
on the fly instead.

Documents are ranked by annotated characters, then node count, then path;
-n keeps the top of the ranking. Thumbnails newer than their document and
source are left alone unless --force is given. A TOON summary of the
renders is printed to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return a.runBatch(cmd.Context(), root, o)
		},
	}
	o.register(cmd.Flags())
	cmd.Flags().StringVarP(&o.outDir, "output", "o", "", "output directory (default: next to each input)")
	cmd.Flags().IntVarP(&o.maxFiles, "max-files", "n", 0, "render at most this many files (default: from config, 0 = all)")
	cmd.Flags().IntVarP(&o.workers, "jobs", "j", 0, "concurrent workers (default: from config, 0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&o.match, "match", "", "only render files whose path contains this substring")
	cmd.Flags().BoolVar(&o.sources, "sources", false, "annotate source files instead of reading documents")
	cmd.Flags().StringVarP(&o.langs, "langs", "l", "", "with --sources, comma-separated languages to include")
	cmd.Flags().IntVar(&o.maxFileSize, "max-file-size", 0, "skip inputs larger than this many bytes (default: from config)")
	cmd.Flags().BoolVar(&o.skipTests, "skip-tests", false, "skip test files and directories")
	cmd.Flags().BoolVar(&o.force, "force", false, "re-render thumbnails that are up to date")
	return cmd
}

// batchItem is one input moving through the batch: a document path relative
// to root, its loaded annotation, and the text it annotates.
type batchItem struct {
	path    string
	sources []string // absolute inputs that make the output stale
	doc     *model.Document
	text    string
}

func (a *app) runBatch(ctx context.Context, root string, o *batchOptions) error {
	log := logger.L(ctx)

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	batch := a.cfg.Batch
	if o.maxFiles == 0 {
		o.maxFiles = batch.MaxFiles
	}
	if o.workers == 0 {
		o.workers = batch.Workers
	}
	if o.maxFileSize == 0 {
		o.maxFileSize = batch.MaxFileSize
	}
	o.skipTests = o.skipTests || batch.SkipTests

	var files []discover.FileEntry
	if o.sources {
		var langFilter []string
		if o.langs != "" {
			for _, name := range strings.Split(o.langs, ",") {
				name = strings.TrimSpace(name)
				if _, ok := lang.Languages[name]; !ok {
					return fmt.Errorf("unsupported language %q", name)
				}
				langFilter = append(langFilter, name)
			}
		}
		files, err = discover.Sources(root, langFilter)
	} else {
		files, err = discover.Documents(root)
	}
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	if o.skipTests {
		files = filterTests(files)
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files found")
	}

	files = filterBySize(ctx, root, files, o.maxFileSize)
	if len(files) == 0 {
		return fmt.Errorf("no input files found (all exceeded size limit)")
	}

	items := loadConcurrent(ctx, root, files, o.sources, o.workers)
	if len(items) == 0 {
		return fmt.Errorf("no files could be loaded")
	}

	items = selectItems(items, o.match, o.maxFiles)
	if len(items) == 0 {
		return fmt.Errorf("no files match %q", o.match)
	}

	r, done, err := a.renderer(&o.renderFlags)
	if err != nil {
		return err
	}
	defer done()

	rows := renderConcurrent(ctx, r, root, items, o)
	log.Info("batch done", zap.Int("inputs", len(files)), zap.Int("rendered", len(rows)))

	_, _ = fmt.Fprintln(a.stdout, toon.EncodeBatch(filepath.Base(root), rows))
	return nil
}

func filterTests(files []discover.FileEntry) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		if !discover.IsTestFile(f.Path) {
			kept = append(kept, f)
		}
	}
	return kept
}

func filterBySize(ctx context.Context, root string, files []discover.FileEntry, maxSize int) []discover.FileEntry {
	if maxSize <= 0 {
		return files
	}
	log := logger.L(ctx)

	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			log.Warn("skipped", zap.String("file", f.Path), zap.Int("limit", maxSize))
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// selectItems ranks loaded items and keeps those matching substr, at most
// maxFiles of them.
func selectItems(items []batchItem, substr string, maxFiles int) []batchItem {
	byPath := make(map[string]batchItem, len(items))
	entries := make([]ranking.Entry, 0, len(items))
	for _, it := range items {
		byPath[it.path] = it
		entries = append(entries, ranking.NewEntry(it.path, it.doc))
	}

	entries = ranking.FilterByPath(entries, substr)
	ranking.Rank(entries)
	entries = ranking.SelectFiles(entries, maxFiles)

	selected := make([]batchItem, 0, len(entries))
	for _, e := range entries {
		selected = append(selected, byPath[e.Path])
	}
	return selected
}

// loadConcurrent reads every file and its annotation. In sources mode each
// worker annotates with its own Annotator.
func loadConcurrent(ctx context.Context, root string, files []discover.FileEntry, sources bool, workers int) []batchItem {
	log := logger.L(ctx)

	return runOrdered(files, workers, annotate.New, func(an *annotate.Annotator, f discover.FileEntry) (batchItem, bool) {
		absPath := filepath.Join(root, f.Path)

		if sources {
			text, err := source.ReadFile(absPath)
			if err != nil {
				log.Warn("failed to read", zap.String("file", f.Path), zap.Error(err))
				return batchItem{}, false
			}
			nodes, err := an.Annotate(ctx, f.Path, text)
			if err != nil {
				log.Warn("failed to annotate", zap.String("file", f.Path), zap.Error(err))
				return batchItem{}, false
			}
			return batchItem{
				path:    f.Path,
				sources: []string{absPath},
				doc:     &model.Document{Path: f.Path, Nodes: nodes},
				text:    text,
			}, true
		}

		doc, err := document.Open(ctx, absPath)
		if err != nil {
			log.Warn("failed to load", zap.String("file", f.Path), zap.Error(err))
			return batchItem{}, false
		}
		text, err := document.Source(ctx, doc, filepath.Dir(absPath))
		if err != nil {
			log.Warn("failed to load source", zap.String("file", f.Path), zap.Error(err))
			return batchItem{}, false
		}
		inputs := []string{absPath}
		if doc.Path != "" {
			if p, err := filepath.Abs(document.ResolvePath(doc.Path, filepath.Dir(absPath))); err == nil {
				inputs = append(inputs, p)
			}
		}
		return batchItem{path: f.Path, sources: inputs, doc: doc, text: text}, true
	})
}

// renderConcurrent renders items and writes their thumbnails, returning one
// summary row per written or up-to-date thumbnail in input order.
func renderConcurrent(ctx context.Context, r *render.Renderer, root string, items []batchItem, o *batchOptions) []toon.BatchRow {
	log := logger.L(ctx)

	noState := func() struct{} { return struct{}{} }
	return runOrdered(items, o.workers, noState, func(_ struct{}, it batchItem) (toon.BatchRow, bool) {
		output := batchOutput(root, o.outDir, it.path, o.sources)
		rel, err := filepath.Rel(root, output)
		if err != nil {
			rel = output
		}
		row := toon.BatchRow{Document: it.path, Output: filepath.ToSlash(rel)}

		if !o.force && isFresh(output, it.sources) {
			if w, h, ok := pngSize(output); ok {
				row.Status, row.Width, row.Height = "fresh", w, h
				return row, true
			}
		}

		out, err := r.Text(ctx, it.text, it.doc.Nodes)
		if err != nil {
			log.Warn("failed to render", zap.String("file", it.path), zap.Error(err))
			return row, false
		}
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			log.Warn("failed to write", zap.String("file", output), zap.Error(err))
			return row, false
		}
		if err := os.WriteFile(output, out.PNG, 0o644); err != nil {
			log.Warn("failed to write", zap.String("file", output), zap.Error(err))
			return row, false
		}

		row.Status = "rendered"
		if out.Cached {
			row.Status = "cached"
		}
		row.Width = out.Grid.ImageWidth()
		row.Height = out.Grid.ImageHeight()
		row.Runs = len(out.Runs)
		row.Coverage = out.Coverage
		return row, true
	})
}

// batchOutput returns the thumbnail path for rel: next to the input, or
// mirrored under outDir. Documents swap their extension for .png; sources
// keep theirs and gain .png.
func batchOutput(root, outDir, rel string, sources bool) string {
	name := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".png"
	if sources {
		name = rel + ".png"
	}
	if outDir == "" {
		return filepath.Join(root, name)
	}
	if filepath.IsAbs(outDir) {
		return filepath.Join(outDir, name)
	}
	return filepath.Join(root, outDir, name)
}

// isFresh reports whether output exists and is newer than every input.
func isFresh(output string, inputs []string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}
	outMtime := outInfo.ModTime()

	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(outMtime) {
			return false
		}
	}
	return true
}

func pngSize(path string) (int, int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// runOrdered applies fn to every item on up to workers goroutines and
// returns the results fn kept, in input order. Each goroutine gets its own
// state from newState.
func runOrdered[T, S, R any](items []T, workers int, newState func() S, fn func(S, T) (R, bool)) []R {
	type result struct {
		index int
		value R
		ok    bool
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(items) {
		workers = len(items)
	}

	work := make(chan int, len(items))
	results := make(chan result, len(items))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			state := newState()
			for idx := range work {
				v, ok := fn(state, items[idx])
				results <- result{index: idx, value: v, ok: ok}
			}
		}()
	}

	for i := range items {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]R, len(items))
	valid := make([]bool, len(items))
	for r := range results {
		indexed[r.index] = r.value
		valid[r.index] = r.ok
	}

	var out []R
	for i, v := range valid {
		if v {
			out = append(out, indexed[i])
		}
	}
	return out
}
