package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecodeUTF8PassesThrough(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"local x = 1\n",
		"print('héllo, 世界')\r\n",
	}
	for _, in := range tests {
		got, err := Decode([]byte(in))
		if err != nil {
			t.Fatalf("Decode(%q): %v", in, err)
		}
		if got != in {
			t.Errorf("Decode(%q) = %q", in, got)
		}
	}
}

func TestDecodeLatin1(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Repeat("Le caf\xe9 est tr\xe8s bon et la cr\xe8me br\xfbl\xe9e aussi. ", 20))
	if utf8.Valid(raw) {
		t.Fatal("fixture should not be valid UTF-8")
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !utf8.ValidString(got) {
		t.Fatal("decoded text is not valid UTF-8")
	}
	if !strings.HasPrefix(got, "Le caf") {
		t.Errorf("decoded text starts %q", got[:10])
	}
	if n := utf8.RuneCountInString(got); n != len(raw) {
		t.Errorf("rune count = %d, want one per byte (%d)", n, len(raw))
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "m.lua")
	if err := os.WriteFile(path, []byte("return {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "return {}\n" {
		t.Errorf("ReadFile = %q", got)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/m.lua" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("local M = {}\nreturn M\n"))
	}))
	defer srv.Close()

	got, err := Fetch(context.Background(), srv.URL+"/m.lua")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "local M = {}\nreturn M\n" {
		t.Errorf("Fetch = %q", got)
	}

	if _, err := Fetch(context.Background(), srv.URL+"/missing"); !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch, got %v", err)
	}
}

func TestDownloadTooLarge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 10)))
	}))
	defer srv.Close()

	tests := []struct {
		limit   int64
		wantErr bool
	}{
		{limit: 9, wantErr: true},
		{limit: 10, wantErr: false},
		{limit: 11, wantErr: false},
	}
	for _, tt := range tests {
		raw, err := download(context.Background(), srv.URL, tt.limit)
		if tt.wantErr {
			if !errors.Is(err, ErrTooLarge) {
				t.Errorf("limit %d: expected ErrTooLarge, got %v (%d bytes)", tt.limit, err, len(raw))
			}
			continue
		}
		if err != nil || len(raw) != 10 {
			t.Errorf("limit %d: got %d bytes, %v", tt.limit, len(raw), err)
		}
	}
}
