// Package document reads annotation documents and the source files they
// point at.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/seesoft/internal/model"
	"github.com/phobologic/seesoft/internal/source"
)

// ErrNoSource is returned for a document with neither a path nor a URL.
var ErrNoSource = errors.New("document has no source path or url")

// IsURL reports whether ref names an http(s) resource.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Parse decodes a JSON annotation document. Unknown categories fail here.
func Parse(data []byte) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &doc, nil
}

// Open loads a document from a file path or URL.
func Open(ctx context.Context, ref string) (*model.Document, error) {
	var (
		data []byte
		err  error
	)
	if IsURL(ref) {
		data, err = source.Download(ctx, ref)
	} else {
		data, err = os.ReadFile(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return doc, nil
}

// Source loads the text doc refers to. A relative path is tried against the
// working directory first, then against baseDir (usually the document's
// own directory). The path wins over the URL when both are set.
func Source(ctx context.Context, doc *model.Document, baseDir string) (string, error) {
	switch {
	case doc.Path != "":
		return source.ReadFile(ResolvePath(doc.Path, baseDir))
	case doc.URL != "":
		return source.Fetch(ctx, doc.URL)
	}
	return "", ErrNoSource
}

// ResolvePath returns path if it exists as given, otherwise path joined to
// baseDir when that exists. It falls back to path unchanged.
func ResolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	joined := filepath.Join(baseDir, path)
	if _, err := os.Stat(joined); err == nil {
		return joined
	}
	return path
}

// Encode writes doc as indented JSON.
func Encode(doc *model.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return buf.Bytes(), nil
}
