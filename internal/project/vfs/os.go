package vfs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSFS is the operating system's file system.
type OSFS struct{}

var _ VFS = (*OSFS)(nil)

// NewOSFS returns the operating system's file system.
func NewOSFS() *OSFS {
	return &OSFS{}
}

func (*OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (*OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (*OSFS) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return NewFileInfo(path, info), nil
}

// ReadDir lists path. Entries removed between the listing and their lstat
// are dropped.
func (*OSFS) ReadDir(path string) ([]FileInfo, error) {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			continue
		}
		out = append(out, NewFileInfo(filepath.Join(path, d.Name()), info))
	}
	return out, nil
}

// CreateExclusive opens path with O_EXCL and then applies perm, since the
// umask may have cleared bits the replaced file had.
func (*OSFS) CreateExclusive(path string, perm fs.FileMode) (File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, err
	}
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	return f, nil
}

func (*OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (*OSFS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (*OSFS) Join(elem ...string) string { return filepath.Join(elem...) }
func (*OSFS) Dir(path string) string     { return filepath.Dir(path) }
func (*OSFS) Base(path string) string    { return filepath.Base(path) }
