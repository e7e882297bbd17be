// Package ranking orders annotation documents for batch rendering and
// selects the most annotated ones.
package ranking

import (
	"sort"
	"strings"

	"github.com/phobologic/seesoft/internal/model"
)

// Entry is a document considered for rendering.
type Entry struct {
	Path    string
	Nodes   int // annotation nodes, descendants included
	Covered int // characters covered by top-level nodes
}

// NewEntry summarizes doc for ranking.
func NewEntry(path string, doc *model.Document) Entry {
	e := Entry{Path: path, Nodes: model.CountNodes(doc.Nodes)}
	for i := range doc.Nodes {
		e.Covered += doc.Nodes[i].Count
	}
	return e
}

// Rank sorts entries in place: most covered characters first, then most
// nodes, then path.
func Rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.Covered != b.Covered {
			return a.Covered > b.Covered
		}
		if a.Nodes != b.Nodes {
			return a.Nodes > b.Nodes
		}
		return a.Path < b.Path
	})
}

// SelectFiles returns the first maxFiles entries.
// If maxFiles is <= 0 or >= len(entries), all entries are returned.
func SelectFiles(entries []Entry, maxFiles int) []Entry {
	if maxFiles <= 0 || maxFiles >= len(entries) {
		return entries
	}
	return entries[:maxFiles]
}

// FilterByPath keeps entries whose path contains substr, case-insensitively.
// An empty substr keeps everything.
func FilterByPath(entries []Entry, substr string) []Entry {
	if substr == "" {
		return entries
	}
	lower := strings.ToLower(substr)
	var out []Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Path), lower) {
			out = append(out, e)
		}
	}
	return out
}
