// Package fsutil is the filesystem capability used while assembling
// artifacts. All operations go through an afero.Fs so tests can run against
// an in-memory filesystem.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// FS wraps an afero.Fs with the create/remove/copy/write operations the
// pipeline needs.
type FS struct {
	fs afero.Fs
}

// New returns an FS backed by fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *FS {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FS{fs: fs}
}

// MkdirAll creates dir and any missing parents.
func (f *FS) MkdirAll(dir string) error {
	return f.fs.MkdirAll(dir, dirPerm)
}

// RemoveAll removes path and everything below it. A missing path is not an error.
func (f *FS) RemoveAll(path string) error {
	return f.fs.RemoveAll(path)
}

// WriteFile writes data to path, creating parent directories first.
func (f *FS) WriteFile(path string, data []byte) error {
	if err := f.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}
	return afero.WriteFile(f.fs, path, data, filePerm)
}

// ReadFile returns the contents of path.
func (f *FS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, path)
}

// Exists reports whether path exists.
func (f *FS) Exists(path string) bool {
	ok, err := afero.Exists(f.fs, path)
	return err == nil && ok
}

// IsDir reports whether path exists and is a directory.
func (f *FS) IsDir(path string) bool {
	ok, err := afero.IsDir(f.fs, path)
	return err == nil && ok
}

// Copy copies src to dst. Directories are copied recursively; dst parents
// are created as needed. File modes are preserved.
func (f *FS) Copy(src, dst string) error {
	info, err := f.fs.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return f.copyFile(src, dst, info.Mode())
	}

	return afero.Walk(f.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return f.fs.MkdirAll(target, dirPerm)
		}
		return f.copyFile(path, target, info.Mode())
	})
}

func (f *FS) copyFile(src, dst string, mode os.FileMode) error {
	in, err := f.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := f.fs.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return err
	}

	out, err := f.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
