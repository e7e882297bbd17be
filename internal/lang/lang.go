// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and the classifiers that turn syntax nodes into
// annotation categories.
package lang

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/seesoft/internal/model"
)

// Classifier returns the category of a syntax node, or model.None when the
// node itself is not annotated and only its descendants should be examined.
type Classifier func(node *sitter.Node, source []byte) model.Category

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
	Classify   Classifier
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// ForPath returns the language for a file path, or nil if unsupported.
func ForPath(path string) *Language {
	name := ForExtension(strings.ToLower(filepath.Ext(path)))
	if name == "" {
		return nil
	}
	return Languages[name]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// byType builds a classifier from a node type table.
func byType(types map[string]model.Category) Classifier {
	return func(node *sitter.Node, _ []byte) model.Category {
		return types[node.Type()]
	}
}

var requireCallRe = regexp.MustCompile(`\brequire\s*[\("']`)

// callsRequire reports whether the node's text loads a module through a
// require call, as in Lua and CommonJS.
func callsRequire(node *sitter.Node, source []byte) bool {
	return requireCallRe.MatchString(NodeText(node, source))
}

// atTopLevel reports whether node is a direct child of the root.
func atTopLevel(node *sitter.Node) bool {
	p := node.Parent()
	return p != nil && p.Parent() == nil
}
