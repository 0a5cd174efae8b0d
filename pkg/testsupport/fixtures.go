// Package testsupport holds fixture helpers shared by package tests: in-memory
// file trees on afero, template scaffolding and golden files.
package testsupport

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

// NewFs returns an empty in-memory file system.
func NewFs() afero.Fs {
	return afero.NewMemMapFs()
}

// WriteTree writes files (slash separated relative path → content) under root.
func WriteTree(t *testing.T, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := fsys.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
		}
		if err := afero.WriteFile(fsys, full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
}

// ReadTree returns every regular file under root keyed by slash separated
// relative path.
func ReadTree(t *testing.T, fsys afero.Fs, root string) map[string]string {
	t.Helper()

	out := map[string]string{}
	err := afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree %s: %v", root, err)
	}
	return out
}

// TreePaths returns the sorted relative paths of ReadTree.
func TreePaths(t *testing.T, fsys afero.Fs, root string) []string {
	t.Helper()

	tree := ReadTree(t, fsys, root)
	out := make([]string, 0, len(tree))
	for p := range tree {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// WriteTemplate scaffolds a native template at root: config becomes
// diecut.toml and files land under the template/ content directory.
func WriteTemplate(t *testing.T, fsys afero.Fs, root, config string, files map[string]string) {
	t.Helper()

	WriteTree(t, fsys, root, map[string]string{"diecut.toml": config})
	content := make(map[string]string, len(files))
	for rel, body := range files {
		content[path.Join("template", rel)] = body
	}
	WriteTree(t, fsys, root, content)
}

// AssertTree fails the test when the tree under root differs from want.
func AssertTree(t *testing.T, fsys afero.Fs, root string, want map[string]string) {
	t.Helper()

	if diff := cmp.Diff(want, ReadTree(t, fsys, root)); diff != "" {
		t.Fatalf("tree mismatch under %s (-want +got):\n%s", root, diff)
	}
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
