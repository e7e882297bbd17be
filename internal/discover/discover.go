// Package discover finds annotation documents and annotatable source files
// under a directory, honoring .gitignore.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/seesoft/internal/lang"
)

// FileEntry represents a discovered file.
type FileEntry struct {
	Path     string // Relative to root
	Language string // Tree-sitter language, "" for documents and lexical-only sources
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	"build":         {},
	"dist":          {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
	".seesoft":      {},
}

// Documents finds annotation documents (*.json) under root.
func Documents(root string) ([]FileEntry, error) {
	return walk(root, func(rel string) (FileEntry, bool) {
		if !strings.EqualFold(filepath.Ext(rel), ".json") {
			return FileEntry{}, false
		}
		return FileEntry{Path: rel}, true
	})
}

// Sources finds source files with a tree-sitter language under root.
// If languages is non-empty, only files of those languages are returned.
func Sources(root string, languages []string) ([]FileEntry, error) {
	langSet := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		langSet[l] = struct{}{}
	}
	return walk(root, func(rel string) (FileEntry, bool) {
		name := lang.ForExtension(strings.ToLower(filepath.Ext(rel)))
		if name == "" {
			return FileEntry{}, false
		}
		if len(langSet) > 0 {
			if _, ok := langSet[name]; !ok {
				return FileEntry{}, false
			}
		}
		return FileEntry{Path: rel, Language: name}, true
	})
}

// walk visits regular, non-hidden, non-ignored files under root in sorted
// order and keeps those accepted by keep.
func walk(root string, keep func(rel string) (FileEntry, bool)) ([]FileEntry, error) {
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		if entry, ok := keep(rel); ok {
			results = append(results, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

var testDirs = map[string]struct{}{
	"test":      {},
	"tests":     {},
	"spec":      {},
	"__tests__": {},
}

// IsTestFile reports whether a relative path looks like test code, by
// directory component or by file name pattern.
func IsTestFile(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}

	name := parts[len(parts)-1]
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	switch {
	case strings.HasSuffix(stem, "_test"), strings.HasSuffix(stem, "_spec"):
		return true
	case strings.HasPrefix(stem, "test_"):
		return true
	case strings.HasSuffix(stem, ".test"), strings.HasSuffix(stem, ".spec"):
		return true
	}
	return false
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
