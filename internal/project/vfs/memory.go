package vfs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path"
	"sort"
	"sync"
	"time"
)

var (
	errIsDir    = errors.New("is a directory")
	errNotDir   = errors.New("not a directory")
	errNotEmpty = errors.New("directory not empty")
	errClosed   = errors.New("file already closed")
)

// MemFS is an in-memory VFS for tests. Paths are slash-separated and
// rooted at "/"; relative paths are taken from the root. It is safe for
// concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

var _ VFS = (*MemFS)(nil)

// node is a file or, when mode has fs.ModeDir, a directory.
type node struct {
	data []byte
	mode fs.FileMode
	mod  time.Time
}

// memInfo is the fs.FileInfo of a node.
type memInfo struct {
	name string
	n    node
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return int64(len(i.n.data)) }
func (i memInfo) Mode() fs.FileMode  { return i.n.mode }
func (i memInfo) ModTime() time.Time { return i.n.mod }
func (i memInfo) IsDir() bool        { return i.n.mode.IsDir() }
func (i memInfo) Sys() any           { return nil }

// NewMemFS returns an empty file system holding only "/".
func NewMemFS() *MemFS {
	return &MemFS{nodes: map[string]*node{
		"/": {mode: fs.ModeDir | 0755, mod: time.Now()},
	}}
}

func clean(p string) string {
	return path.Clean("/" + p)
}

func (m *MemFS) info(p string, n *node) FileInfo {
	return NewFileInfo(p, memInfo{name: path.Base(p), n: *n})
}

// file returns the regular file at p.
func (m *MemFS) file(op, p string) (*node, error) {
	n, ok := m.nodes[p]
	switch {
	case !ok:
		return nil, &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
	case n.mode.IsDir():
		return nil, &fs.PathError{Op: op, Path: p, Err: errIsDir}
	}
	return n, nil
}

func (m *MemFS) Open(p string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.file("open", clean(p))
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(n.data)), nil
}

// ReadFile returns a copy of the file's content.
func (m *MemFS) ReadFile(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.file("read", clean(p))
	if err != nil {
		return nil, err
	}
	return bytes.Clone(n.data), nil
}

func (m *MemFS) Stat(p string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = clean(p)
	n, ok := m.nodes[p]
	if !ok {
		return FileInfo{}, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
	}
	return m.info(p, n), nil
}

func (m *MemFS) ReadDir(dir string) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir = clean(dir)
	d, ok := m.nodes[dir]
	switch {
	case !ok:
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: fs.ErrNotExist}
	case !d.mode.IsDir():
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: errNotDir}
	}

	var out []FileInfo
	for p, n := range m.nodes {
		if p != dir && path.Dir(p) == dir {
			out = append(out, m.info(p, n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// WriteFile creates or truncates a file. Its directory must exist.
func (m *MemFS) WriteFile(p string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put("write", clean(p), data, perm)
}

func (m *MemFS) put(op, p string, data []byte, perm fs.FileMode) error {
	if n, ok := m.nodes[p]; ok && n.mode.IsDir() {
		return &fs.PathError{Op: op, Path: p, Err: errIsDir}
	}
	if parent, ok := m.nodes[path.Dir(p)]; !ok || !parent.mode.IsDir() {
		return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
	}
	m.nodes[p] = &node{data: bytes.Clone(data), mode: perm.Perm(), mod: time.Now()}
	return nil
}

// CreateExclusive creates an empty file. What is written becomes its
// content on Close.
func (m *MemFS) CreateExclusive(p string, perm fs.FileMode) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	if _, ok := m.nodes[p]; ok {
		return nil, &fs.PathError{Op: "create", Path: p, Err: fs.ErrExist}
	}
	if err := m.put("create", p, nil, perm); err != nil {
		return nil, err
	}
	return &memWriter{fs: m, path: p, perm: perm}, nil
}

// MkdirAll creates dir and any missing parents.
func (m *MemFS) MkdirAll(dir string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var missing []string
	for p := clean(dir); ; p = path.Dir(p) {
		n, ok := m.nodes[p]
		if ok {
			if !n.mode.IsDir() {
				return &fs.PathError{Op: "mkdir", Path: p, Err: errNotDir}
			}
			break
		}
		missing = append(missing, p)
	}
	for _, p := range missing {
		m.nodes[p] = &node{mode: fs.ModeDir | perm.Perm(), mod: time.Now()}
	}
	return nil
}

// Remove deletes a file or an empty directory.
func (m *MemFS) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	n, ok := m.nodes[p]
	if !ok {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
	}
	if n.mode.IsDir() {
		for q := range m.nodes {
			if q != p && path.Dir(q) == p {
				return &fs.PathError{Op: "remove", Path: p, Err: errNotEmpty}
			}
		}
	}
	delete(m.nodes, p)
	return nil
}

// Rename moves a file over newPath. Directories cannot be renamed.
func (m *MemFS) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldPath, newPath = clean(oldPath), clean(newPath)
	n, err := m.file("rename", oldPath)
	if err != nil {
		return err
	}
	if t, ok := m.nodes[newPath]; ok && t.mode.IsDir() {
		return &fs.PathError{Op: "rename", Path: newPath, Err: errIsDir}
	}
	if parent, ok := m.nodes[path.Dir(newPath)]; !ok || !parent.mode.IsDir() {
		return &fs.PathError{Op: "rename", Path: newPath, Err: fs.ErrNotExist}
	}
	m.nodes[newPath] = n
	delete(m.nodes, oldPath)
	return nil
}

func (*MemFS) Join(elem ...string) string { return path.Join(elem...) }
func (*MemFS) Dir(p string) string        { return path.Dir(clean(p)) }
func (*MemFS) Base(p string) string       { return path.Base(p) }

// AddFile writes content to p with mode 0644, creating its directories.
func (m *MemFS) AddFile(p, content string) error {
	if err := m.MkdirAll(path.Dir(clean(p)), 0755); err != nil {
		return err
	}
	return m.WriteFile(p, []byte(content), 0644)
}

// Files lists every regular file, sorted.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []string
	for p, n := range m.nodes {
		if !n.mode.IsDir() {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files
}

// memWriter buffers a CreateExclusive file until Close.
type memWriter struct {
	fs     *MemFS
	path   string
	perm   fs.FileMode
	buf    bytes.Buffer
	closed bool
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}
	return w.buf.Write(p)
}

func (w *memWriter) Name() string { return w.path }
func (w *memWriter) Sync() error  { return nil }

func (w *memWriter) Close() error {
	if w.closed {
		return errClosed
	}
	w.closed = true
	return w.fs.WriteFile(w.path, w.buf.Bytes(), w.perm)
}
