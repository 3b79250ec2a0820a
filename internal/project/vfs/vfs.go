// Package vfs is the file access layer of the search engine.
//
// The walker, scanner and replacer do all of their I/O through VFS so they
// can run against an in-memory tree in tests and against the operating
// system in production.
package vfs

import (
	"io"
	"io/fs"
)

// Reader is the read side of a file system.
type Reader interface {
	// Open opens a file for streaming reads.
	Open(path string) (io.ReadCloser, error)

	// ReadFile reads a whole file.
	ReadFile(path string) ([]byte, error)

	// Stat describes path, following symbolic links.
	Stat(path string) (FileInfo, error)

	// ReadDir lists a directory in name order. Entries describe symbolic
	// links themselves, not their targets.
	ReadDir(path string) ([]FileInfo, error)
}

// Writer is the write side of a file system, limited to what an atomic
// replace needs.
type Writer interface {
	// CreateExclusive creates path with perm. It fails with fs.ErrExist
	// when path already exists.
	CreateExclusive(path string, perm fs.FileMode) (File, error)

	// Remove deletes a file.
	Remove(path string) error

	// Rename moves oldPath over newPath.
	Rename(oldPath, newPath string) error
}

// VFS is a file system with its own path syntax.
type VFS interface {
	Reader
	Writer

	Join(elem ...string) string
	Dir(path string) string
	Base(path string) string
}

// File is a file opened by CreateExclusive.
type File interface {
	io.WriteCloser
	Name() string
	Sync() error
}

// FileInfo is an fs.FileInfo that remembers the path it was read from.
type FileInfo struct {
	fs.FileInfo
	path string
}

// NewFileInfo pairs info with the path it describes.
func NewFileInfo(path string, info fs.FileInfo) FileInfo {
	return FileInfo{FileInfo: info, path: path}
}

// Path returns the path the entry was read from.
func (fi FileInfo) Path() string { return fi.path }

// IsRegular reports whether the entry is a regular file.
func (fi FileInfo) IsRegular() bool { return fi.Mode().IsRegular() }

// IsSymlink reports whether the entry is a symbolic link.
func (fi FileInfo) IsSymlink() bool { return fi.Mode()&fs.ModeSymlink != 0 }
