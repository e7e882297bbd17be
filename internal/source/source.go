// Package source reads source files from disk or over HTTP and decodes them
// to UTF-8 text.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// MaxFetchSize caps the body read by Fetch.
const MaxFetchSize = 32 << 20

// Decode returns raw as text. Valid UTF-8 passes through unchanged. Other
// input is decoded with the charset chardet detects, or as ISO-8859-1 when
// detection fails or names an encoding x/text does not know.
func Decode(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	if enc, ok := detect(raw); ok {
		if out, err := enc.NewDecoder().Bytes(raw); err == nil && utf8.Valid(out) {
			return string(out), nil
		}
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(out), nil
}

// Charset reports the charset chardet detects for raw, or "" if none.
func Charset(raw []byte) string {
	res, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || res == nil {
		return ""
	}
	return res.Charset
}

func detect(raw []byte) (encoding.Encoding, bool) {
	name := Charset(raw)
	if name == "" || strings.EqualFold(name, "UTF-8") {
		return nil, false
	}
	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		return nil, false
	}
	return enc, true
}

// ReadFile reads and decodes the file at path.
func ReadFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	text, err := Decode(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// Fetch downloads url and decodes the body.
func Fetch(ctx context.Context, url string) (string, error) {
	raw, err := Download(ctx, url)
	if err != nil {
		return "", err
	}
	text, err := Decode(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", url, err)
	}
	return text, nil
}

// Download returns the raw body of url. Bodies over MaxFetchSize fail with
// ErrTooLarge.
func Download(ctx context.Context, url string) ([]byte, error) {
	return download(ctx, url, MaxFetchSize)
}

func download(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrFetch, url, resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, limit)
	}
	return raw, nil
}
