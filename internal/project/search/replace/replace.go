// Package replace commits rewritten file content to disk without ever
// leaving a target partially written.
//
// A commit recomputes the rewrite from the file as it is now, writes it to a
// temporary file beside the target, verifies what landed on disk and only
// then renames it over the target. When any step fails the target keeps its
// original bytes and the temporary file is removed.
package replace

import (
	"bytes"
	"errors"

	"github.com/google/uuid"

	perrors "github.com/dshills/keyfind/internal/project/errors"
	"github.com/dshills/keyfind/internal/project/search/scan"
	"github.com/dshills/keyfind/internal/project/vfs"
)

// TempSuffix ends the name of every temporary file a commit creates.
const TempSuffix = ".keyfind-tmp"

// Rewriter recomputes the replacement of a file's content.
// *scan.Scanner satisfies it.
type Rewriter interface {
	Rewrite(content []byte) ([]byte, scan.Counts, error)
}

// Job describes one file to commit.
type Job struct {
	// Path is the target file.
	Path string

	// Content is the new content produced by the scan.
	Content []byte

	// Expected holds the counts the scan reported for Content.
	Expected scan.Counts

	// Rewriter recomputes Content from the file on disk.
	Rewriter Rewriter
}

// Replacer commits jobs through a VFS.
type Replacer struct {
	fs      vfs.VFS
	newName func(dir, base string) string
}

// New creates a replacer.
func New(fsys vfs.VFS) *Replacer {
	r := &Replacer{fs: fsys}
	r.newName = func(dir, base string) string {
		return fsys.Join(dir, "."+base+"."+uuid.NewString()+TempSuffix)
	}
	return r
}

// Commit replaces the content of job.Path with job.Content. Every failure
// is an *errors.IntegrityError and leaves the target unchanged.
func (r *Replacer) Commit(job Job) error {
	if job.Rewriter == nil {
		return integrity(job.Path, "no rewriter", nil)
	}

	orig, err := r.fs.Stat(job.Path)
	if err != nil {
		return integrity(job.Path, "stat target", err)
	}
	if !orig.IsRegular() {
		return integrity(job.Path, "target is not a regular file", nil)
	}

	current, err := r.fs.ReadFile(job.Path)
	if err != nil {
		return integrity(job.Path, "re-read target", err)
	}
	recomputed, counts, err := job.Rewriter.Rewrite(current)
	if err != nil {
		return integrity(job.Path, "recompute", err)
	}
	if counts != job.Expected {
		return integrity(job.Path, "file changed since scan", nil)
	}
	if !bytes.Equal(recomputed, job.Content) {
		return integrity(job.Path, "recomputed content differs", nil)
	}

	tmp := r.newName(r.fs.Dir(job.Path), r.fs.Base(job.Path))
	f, err := r.fs.CreateExclusive(tmp, orig.Mode().Perm())
	if err != nil {
		return integrity(job.Path, "create temporary file", err)
	}
	// After a successful rename the temporary name no longer exists.
	defer func() { _ = r.fs.Remove(tmp) }()

	if err := writeAll(f, job.Content); err != nil {
		return integrity(job.Path, "write temporary file", err)
	}

	info, err := r.fs.Stat(tmp)
	if err != nil {
		return integrity(job.Path, "stat temporary file", err)
	}
	if info.Size() != int64(len(job.Content)) {
		return integrity(job.Path, "temporary file size mismatch", nil)
	}

	if dc, ok := r.fs.(vfs.DeviceChecker); ok {
		same, err := dc.SameDevice(tmp, job.Path)
		if err != nil {
			return integrity(job.Path, "device check", err)
		}
		if !same {
			return integrity(job.Path, "device check", perrors.ErrCrossDevice)
		}
	}

	if err := r.fs.Rename(tmp, job.Path); err != nil {
		return integrity(job.Path, "rename", err)
	}
	return nil
}

// writeAll writes, syncs and closes f.
func writeAll(f vfs.File, content []byte) error {
	n, err := f.Write(content)
	if err == nil && n != len(content) {
		err = errShortWrite
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

var errShortWrite = errors.New("short write")

func integrity(path, reason string, err error) error {
	return &perrors.IntegrityError{Path: path, Reason: reason, Err: err}
}
