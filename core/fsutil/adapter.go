package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/spf13/afero"
)

// Kind is the entity kind found at a path.
type Kind int

const (
	// KindNone means nothing exists at the path.
	KindNone Kind = iota
	// KindFile is a regular file.
	KindFile
	// KindDir is a directory.
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "none"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SkipFunc reports whether a source path must be left out of a recursive copy.
type SkipFunc func(path string) bool

// Option configures an Adapter.
type Option func(*Adapter)

// WithSkip installs a filter consulted by CopyDir for every entry it visits.
func WithSkip(fn SkipFunc) Option {
	return func(a *Adapter) {
		a.skip = fn
	}
}

// Adapter performs blocking filesystem operations on top of an afero.Fs.
type Adapter struct {
	fs   afero.Fs
	skip SkipFunc

	filesCopied  atomic.Int64
	filesSkipped atomic.Int64
	dirsCreated  atomic.Int64
	removed      atomic.Int64
}

// New creates an Adapter backed by the given filesystem.
func New(fsys afero.Fs, opts ...Option) *Adapter {
	a := &Adapter{fs: fsys}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fs returns the underlying filesystem.
func (a *Adapter) Fs() afero.Fs {
	return a.fs
}

// Kind returns the kind of the entity at path. A missing path yields KindNone and no error.
func (a *Adapter) Kind(path string) (Kind, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		// A file in place of an ancestor directory means nothing exists at path.
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return KindNone, nil
		}
		return KindNone, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return KindDir, nil
	}
	return KindFile, nil
}

// Exists reports whether anything exists at path. Stat failures count as absent.
func (a *Adapter) Exists(path string) bool {
	k, err := a.Kind(path)
	return err == nil && k != KindNone
}

// IsFile reports whether path is an existing non-directory entry.
func (a *Adapter) IsFile(path string) bool {
	k, err := a.Kind(path)
	return err == nil && k == KindFile
}

// IsDir reports whether path is an existing directory.
func (a *Adapter) IsDir(path string) bool {
	k, err := a.Kind(path)
	return err == nil && k == KindDir
}

// MkdirAll creates path and any missing ancestors. Existing directories are left untouched.
func (a *Adapter) MkdirAll(path string) error {
	k, err := a.Kind(path)
	if err != nil {
		return err
	}
	if k == KindDir {
		return nil
	}
	if err := a.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	a.dirsCreated.Add(1)
	return nil
}

// Remove deletes path recursively. Removing a missing path is a no-op.
func (a *Adapter) Remove(path string) error {
	k, err := a.Kind(path)
	if err != nil {
		return err
	}
	if k == KindNone {
		return nil
	}
	if err := a.fs.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	a.removed.Add(1)
	return nil
}

// CopyFile copies src to dst unless dst already carries the same modification time.
// It returns true when bytes were written. A src that is missing or not a regular
// file is ignored.
func (a *Adapter) CopyFile(src, dst string) (bool, error) {
	return a.copyFile(src, dst, false)
}

// Overwrite copies src to dst regardless of modification times.
func (a *Adapter) Overwrite(src, dst string) (bool, error) {
	return a.copyFile(src, dst, true)
}

func (a *Adapter) copyFile(src, dst string, force bool) (bool, error) {
	srcInfo, err := a.fs.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", src, err)
	}
	if !srcInfo.Mode().IsRegular() {
		return false, nil
	}

	dstInfo, err := a.fs.Stat(dst)
	switch {
	case err == nil:
		if !force && dstInfo.Mode().IsRegular() && dstInfo.ModTime().Equal(srcInfo.ModTime()) {
			a.filesSkipped.Add(1)
			return false, nil
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := a.MkdirAll(filepath.Dir(dst)); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("stat %s: %w", dst, err)
	}

	if err := a.writeFile(src, dst, srcInfo); err != nil {
		return false, err
	}
	a.filesCopied.Add(1)
	return true, nil
}

func (a *Adapter) writeFile(src, dst string, srcInfo os.FileInfo) error {
	in, err := a.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := a.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	// Keep the source mtime so the next stale check can skip this file.
	mtime := srcInfo.ModTime()
	if err := a.fs.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("chtimes %s: %w", dst, err)
	}
	return nil
}

// CopyDir copies the contents of src into dst. When wipe is true dst is removed first.
// Nested directories are created and recursed into without any further wipe.
func (a *Adapter) CopyDir(src, dst string, wipe bool) error {
	return a.CopyDirFiltered(src, dst, wipe, nil)
}

// CopyDirFiltered is CopyDir with an extra filter applied on top of the adapter's own.
func (a *Adapter) CopyDirFiltered(src, dst string, wipe bool, skip SkipFunc) error {
	if wipe {
		if err := a.Remove(dst); err != nil {
			return err
		}
	}
	if err := a.MkdirAll(dst); err != nil {
		return err
	}

	entries, err := afero.ReadDir(a.fs, src)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", src, err)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if a.skip != nil && a.skip(srcPath) {
			continue
		}
		if skip != nil && skip(srcPath) {
			continue
		}

		isDir := entry.IsDir()
		if !isDir && !entry.Mode().IsRegular() {
			// Follow symlinks and other special entries to what they point at.
			k, err := a.Kind(srcPath)
			if err != nil {
				return err
			}
			isDir = k == KindDir
		}

		if isDir {
			if err := a.CopyDirFiltered(srcPath, dstPath, false, skip); err != nil {
				return err
			}
			continue
		}
		if _, err := a.CopyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

// MoveFile copies src to dst and then removes src.
func (a *Adapter) MoveFile(src, dst string) error {
	if _, err := a.CopyFile(src, dst); err != nil {
		return err
	}
	return a.Remove(src)
}

// Open opens path for reading.
func (a *Adapter) Open(path string) (afero.File, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// Walk visits every entry under root in lexical order.
func (a *Adapter) Walk(root string, fn filepath.WalkFunc) error {
	return afero.Walk(a.fs, root, fn)
}
