// Package annotate produces annotation trees for source files: a structural
// producer walks the tree-sitter syntax tree of supported languages, and a
// lexical producer classifies chroma tokens for everything else.
package annotate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/seesoft/internal/lang"
	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/source"
)

// Annotator caches one parser per language. It is not safe for concurrent
// use; give each goroutine its own.
type Annotator struct {
	parsers map[string]*sitter.Parser
}

// New returns an Annotator with no parsers yet.
func New() *Annotator {
	return &Annotator{parsers: make(map[string]*sitter.Parser)}
}

// Annotate returns the annotation nodes for text read from path. The file
// extension selects a tree-sitter language; unsupported files fall back to
// the lexical producer.
func (a *Annotator) Annotate(ctx context.Context, path, text string) ([]model.AnnotationNode, error) {
	if l := lang.ForPath(path); l != nil {
		return a.Structural(ctx, l, text)
	}
	return Lexical(path, text)
}

// Document loads ref (a path or an http(s) URL), annotates it, and returns a
// document pointing back at ref.
func (a *Annotator) Document(ctx context.Context, ref string) (*model.Document, error) {
	var (
		text string
		err  error
		doc  model.Document
	)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		text, err = source.Fetch(ctx, ref)
		doc.URL = ref
	} else {
		text, err = source.ReadFile(ref)
		doc.Path = ref
	}
	if err != nil {
		return nil, err
	}

	nodes, err := a.Annotate(ctx, ref, text)
	if err != nil {
		return nil, fmt.Errorf("annotating %s: %w", ref, err)
	}
	doc.Nodes = nodes
	if doc.Nodes == nil {
		doc.Nodes = []model.AnnotationNode{}
	}
	return &doc, nil
}

// Structural parses text with l and converts every classified syntax node
// to an annotation node. Unclassified nodes are transparent: their
// classified descendants are attached to the nearest classified ancestor.
func (a *Annotator) Structural(ctx context.Context, l *lang.Language, text string) ([]model.AnnotationNode, error) {
	if len(text) == 0 {
		return nil, nil
	}

	p, ok := a.parsers[l.Name]
	if !ok {
		p = l.NewParser()
		a.parsers[l.Name] = p
	}

	source := []byte(text)
	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", l.Name, err)
	}
	defer tree.Close()

	w := walker{classify: l.Classify, source: source, offsets: runeOffsets(source)}
	return w.children(tree.RootNode()), nil
}

type walker struct {
	classify lang.Classifier
	source   []byte
	offsets  []int
}

func (w *walker) children(node *sitter.Node) []model.AnnotationNode {
	var out []model.AnnotationNode
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		cat := w.classify(child, w.source)
		if cat == model.None {
			out = append(out, w.children(child)...)
			continue
		}
		start := w.offsets[child.StartByte()]
		end := w.offsets[child.EndByte()]
		if end <= start {
			continue
		}
		out = append(out, model.AnnotationNode{
			Position: start + 1,
			Count:    end - start,
			Category: cat,
			Children: w.children(child),
		})
	}
	return out
}

// runeOffsets maps every byte offset in source, including len(source), to
// the index of the rune that starts at or contains it.
func runeOffsets(source []byte) []int {
	out := make([]int, len(source)+1)
	r := 0
	for i := 0; i < len(source); {
		_, size := utf8.DecodeRune(source[i:])
		for j := 0; j < size; j++ {
			out[i+j] = r
		}
		i += size
		r++
	}
	out[len(source)] = r
	return out
}
