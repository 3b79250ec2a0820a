package walk

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	perrors "github.com/dshills/keyfind/internal/project/errors"
	"github.com/dshills/keyfind/internal/project/vfs"
)

func newTree(t *testing.T) *vfs.MemFS {
	t.Helper()
	m := vfs.NewMemFS()
	for _, p := range []string{
		"/root/b.txt",
		"/root/a.txt",
		"/root/sub/c.txt",
		"/root/sub/deep/d.txt",
		"/root/node_modules/x.js",
		"/root/z.md",
	} {
		if err := m.AddFile(p, "content\n"); err != nil {
			t.Fatalf("AddFile(%s): %v", p, err)
		}
	}
	return m
}

func collect(t *testing.T, w *Walker, recursive bool) []string {
	t.Helper()
	var got []string
	err := w.Walk(context.Background(), "/root", recursive, func(e Entry) error {
		got = append(got, e.Rel)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	return got
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name      string
		recursive bool
		opts      []Option
		want      string
	}{
		{
			name: "top level only",
			want: "a.txt b.txt z.md",
		},
		{
			name:      "recursive",
			recursive: true,
			want:      "a.txt b.txt node_modules/x.js sub/c.txt sub/deep/d.txt z.md",
		},
		{
			name:      "excluded directories",
			recursive: true,
			opts:      []Option{WithExcludeDirs("node_modules", "deep")},
			want:      "a.txt b.txt sub/c.txt z.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(collect(t, New(newTree(t), tt.opts...), tt.recursive), " ")
			if got != tt.want {
				t.Errorf("visited %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalk_EntryPaths(t *testing.T) {
	w := New(newTree(t))
	var entries []Entry
	_ = w.Walk(context.Background(), "/root", true, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})

	for _, e := range entries {
		if e.Path != "/root/"+e.Rel {
			t.Errorf("Path %q does not match Rel %q", e.Path, e.Rel)
		}
		if e.Info.Size() != int64(len("content\n")) {
			t.Errorf("%s size = %d", e.Rel, e.Info.Size())
		}
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	err := New(vfs.NewMemFS()).Walk(context.Background(), "/nope", true, func(Entry) error { return nil })
	var pe *perrors.PathError
	if !errors.As(err, &pe) || pe.Op != "readdir" {
		t.Errorf("Walk error = %v, want readdir PathError", err)
	}
}

func TestWalk_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	visited := 0

	err := New(newTree(t)).Walk(ctx, "/root", true, func(e Entry) error {
		visited++
		cancel()
		return nil
	})
	if !errors.Is(err, perrors.ErrSearchCanceled) {
		t.Fatalf("Walk error = %v, want ErrSearchCanceled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Walk error = %v, want context.Canceled in chain", err)
	}
	if visited != 1 {
		t.Errorf("visited %d files after cancel, want 1", visited)
	}
}

func TestWalk_PreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	visited := 0
	err := New(newTree(t)).Walk(ctx, "/root", true, func(Entry) error {
		visited++
		return nil
	})
	if !perrors.IsCanceled(err) || visited != 0 {
		t.Errorf("Walk = %v after %d visits, want immediate cancel", err, visited)
	}
}

func TestWalk_VisitError(t *testing.T) {
	stop := errors.New("stop")
	err := New(newTree(t)).Walk(context.Background(), "/root", true, func(Entry) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("Walk error = %v, want visit error", err)
	}
}

// unreadableFS fails ReadDir for one directory.
type unreadableFS struct {
	*vfs.MemFS
	bad string
}

func (u *unreadableFS) ReadDir(path string) ([]vfs.FileInfo, error) {
	if path == u.bad {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrPermission}
	}
	return u.MemFS.ReadDir(path)
}

func TestWalk_UnreadableDirectory(t *testing.T) {
	u := &unreadableFS{MemFS: newTree(t), bad: "/root/sub"}

	var failed []string
	w := New(u, WithErrorHandler(func(path string, err error) {
		if !errors.Is(err, fs.ErrPermission) {
			t.Errorf("error for %s = %v", path, err)
		}
		failed = append(failed, path)
	}))

	got := strings.Join(collect(t, w, true), " ")
	if got != "a.txt b.txt node_modules/x.js z.md" {
		t.Errorf("visited %q", got)
	}
	if len(failed) != 1 || failed[0] != "/root/sub" {
		t.Errorf("reported %v, want [/root/sub]", failed)
	}
}

func TestWalk_Symlinks(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(p string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, p), []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "real"), 0755); err != nil {
		t.Fatal(err)
	}
	mustWrite("a.txt")
	mustWrite("real/b.txt")

	if err := os.Symlink(filepath.Join(dir, "a.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "real"), filepath.Join(dir, "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	_ = os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling.txt"))

	var got []string
	var links []string
	var failed int
	w := New(vfs.NewOSFS(), WithErrorHandler(func(string, error) { failed++ }))
	err := w.Walk(context.Background(), dir, true, func(e Entry) error {
		got = append(got, e.Rel)
		if e.Symlink {
			links = append(links, e.Rel)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if strings.Join(got, " ") != "a.txt link.txt real/b.txt" {
		t.Errorf("visited %v", got)
	}
	if len(links) != 1 || links[0] != "link.txt" {
		t.Errorf("symlinked files = %v", links)
	}
	if failed != 1 {
		t.Errorf("dangling link reported %d times, want 1", failed)
	}
}
