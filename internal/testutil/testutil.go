// Package testutil provides test helpers for service fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates a file with the given content in dir, creating parent
// directories as needed, and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// WriteTree writes every slash-separated path in files under dir.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
}

// ServiceDir returns a fresh temp directory populated with files.
func ServiceDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteTree(t, dir, files)
	return dir
}

// FixturePath returns the absolute path to a fixture under tests/fixtures,
// found by walking up from the working directory.
func FixturePath(t *testing.T, parts ...string) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	dir := wd
	for {
		fixtures := filepath.Join(dir, "tests", "fixtures")
		if _, err := os.Stat(fixtures); err == nil {
			return filepath.Join(append([]string{fixtures}, parts...)...)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find tests/fixtures from %s", wd)
		}
		dir = parent
	}
}

// CopyFixture copies a fixture service into a temp directory so tests can
// build into it without touching the checked-in tree.
func CopyFixture(t *testing.T, name string) string {
	t.Helper()
	dst := t.TempDir()
	if err := copyDir(FixturePath(t, name), dst); err != nil {
		t.Fatalf("failed to copy fixture %s: %v", name, err)
	}
	return dst
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}
