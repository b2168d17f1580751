package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcampos-dev/docindex/internal/store"
)

func writeBody(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "body.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing body: %v", err)
	}
	return path
}

func TestCountKeyword(t *testing.T) {
	tests := []struct {
		name string
		body string
		kw   string
		want int
	}{
		{name: "two of three lines", body: "foo\nfoo bar\nbaz\n", kw: "foo", want: 2},
		{name: "multiple hits one line", body: "foo foo foo\n", kw: "foo", want: 1},
		{name: "no match", body: "bar\nbaz\n", kw: "foo", want: 0},
		{name: "empty keyword", body: "foo\n", kw: "", want: 0},
		{name: "empty file", body: "", kw: "foo", want: 0},
		{name: "trailing line without newline", body: "bar\nfoo", kw: "foo", want: 1},
		{name: "match spans buffer boundary", body: strings.Repeat("x", 8190) + "needle\n", kw: "needle", want: 1},
		{name: "partial then restart", body: "aab\n", kw: "ab", want: 1},
		// The scanner retains at most one byte of progress on mismatch, so
		// overlapping candidates like "aab" inside "aaab" are not found.
		{name: "repeated first byte", body: "aaab\n", kw: "aab", want: 0},
		{name: "keyword is whole line", body: "needle\n", kw: "needle", want: 1},
		{name: "newline resets partial match", body: "ne\nedle\n", kw: "needle", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeBody(t, tt.body)
			got, err := CountKeyword(path, []byte(tt.kw), false)
			if err != nil {
				t.Fatalf("CountKeyword: %v", err)
			}
			if got != tt.want {
				t.Errorf("CountKeyword = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountKeywordStopAtFirst(t *testing.T) {
	path := writeBody(t, "foo\nfoo\nfoo\n")
	got, err := CountKeyword(path, []byte("foo"), true)
	if err != nil {
		t.Fatalf("CountKeyword: %v", err)
	}
	if got != 1 {
		t.Errorf("CountKeyword = %d, want 1", got)
	}
}

func TestContains(t *testing.T) {
	path := writeBody(t, "one\ntwo\n")
	hit, err := Contains(path, []byte("two"))
	if err != nil || !hit {
		t.Errorf("Contains(two) = (%v, %v)", hit, err)
	}
	hit, err = Contains(path, []byte("three"))
	if err != nil || hit {
		t.Errorf("Contains(three) = (%v, %v)", hit, err)
	}
}

func TestCountKeywordMissingFile(t *testing.T) {
	if _, err := CountKeyword(filepath.Join(t.TempDir(), "absent"), []byte("x"), false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewRoot(t *testing.T) {
	dir := t.TempDir()
	root, err := NewRoot(dir)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if root.Dir() != dir {
		t.Errorf("Dir = %q", root.Dir())
	}

	if _, err := NewRoot(""); err == nil {
		t.Error("accepted empty root")
	}
	if _, err := NewRoot(filepath.Join(dir, "absent")); err == nil {
		t.Error("accepted missing root")
	}
	file := writeBody(t, "x")
	if _, err := NewRoot(file); err == nil {
		t.Error("accepted non-directory root")
	}
}

func TestBuildPath(t *testing.T) {
	root, err := NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	doc := &store.Document{Key: 0, Path: "sub/p.txt"}
	full, err := root.BuildPath(doc)
	if err != nil {
		t.Fatalf("BuildPath: %v", err)
	}
	if full != root.Dir()+"/sub/p.txt" {
		t.Errorf("BuildPath = %q", full)
	}

	doc.Path = strings.Repeat("p", MaxPath)
	if _, err := root.BuildPath(doc); err == nil {
		t.Error("accepted overlong path")
	}
}
