// Package walk enumerates the files of a directory tree for the search
// worker.
package walk

import (
	"context"
	"fmt"
	"path"

	perrors "github.com/dshills/keyfind/internal/project/errors"
	"github.com/dshills/keyfind/internal/project/vfs"
)

// Entry is a file handed to a VisitFunc.
type Entry struct {
	// Path is the VFS path of the file.
	Path string

	// Rel is the slash-separated path relative to the walk root.
	Rel string

	// Info describes the file. For symbolic links it describes the target.
	Info vfs.FileInfo

	// Symlink is set when Path is a symbolic link to a regular file.
	Symlink bool
}

// VisitFunc is called for every regular file. A non-nil error stops the
// walk and is returned by Walk.
type VisitFunc func(e Entry) error

// ErrorFunc receives entries that could not be read. The walk continues.
type ErrorFunc func(path string, err error)

// Walker walks directory trees through a VFS.
type Walker struct {
	fs      vfs.VFS
	exclude map[string]bool
	onError ErrorFunc
}

// Option configures a Walker.
type Option func(*Walker)

// WithExcludeDirs skips directories with any of the given base names.
func WithExcludeDirs(names ...string) Option {
	return func(w *Walker) {
		for _, n := range names {
			if n != "" {
				w.exclude[n] = true
			}
		}
	}
}

// WithErrorHandler sets the callback for unreadable entries.
func WithErrorHandler(fn ErrorFunc) Option {
	return func(w *Walker) {
		w.onError = fn
	}
}

// New creates a walker.
func New(fs vfs.VFS, opts ...Option) *Walker {
	w := &Walker{
		fs:      fs,
		exclude: make(map[string]bool),
		onError: func(string, error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk calls visit for each regular file under root in enumeration order.
// Subdirectories are entered only when recursive is set. Symbolic links to
// files are visited; symbolic links to directories are never followed.
//
// ctx is checked before every entry. A canceled walk returns an error
// matching errors.ErrSearchCanceled.
func (w *Walker) Walk(ctx context.Context, root string, recursive bool, visit VisitFunc) error {
	if err := checkpoint(ctx); err != nil {
		return err
	}
	entries, err := w.fs.ReadDir(root)
	if err != nil {
		return perrors.NewPathError("readdir", root, err)
	}
	return w.walkEntries(ctx, root, "", entries, recursive, visit)
}

func (w *Walker) walkEntries(ctx context.Context, dir, rel string, entries []vfs.FileInfo, recursive bool, visit VisitFunc) error {
	for _, e := range entries {
		if err := checkpoint(ctx); err != nil {
			return err
		}

		p := w.fs.Join(dir, e.Name())
		r := path.Join(rel, e.Name())

		switch {
		case e.IsSymlink():
			info, err := w.fs.Stat(p)
			if err != nil {
				w.onError(p, perrors.NewPathError("stat", p, err))
				continue
			}
			if !info.IsRegular() {
				continue
			}
			if err := visit(Entry{Path: p, Rel: r, Info: info, Symlink: true}); err != nil {
				return err
			}

		case e.IsDir():
			if !recursive || w.exclude[e.Name()] {
				continue
			}
			children, err := w.fs.ReadDir(p)
			if err != nil {
				w.onError(p, perrors.NewPathError("readdir", p, err))
				continue
			}
			if err := w.walkEntries(ctx, p, r, children, recursive, visit); err != nil {
				return err
			}

		case e.IsRegular():
			if err := visit(Entry{Path: p, Rel: r, Info: e}); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", perrors.ErrSearchCanceled, err)
	}
	return nil
}
