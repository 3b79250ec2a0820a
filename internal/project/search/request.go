// Package search runs directory-wide find and replace as a cancellable
// background task.
//
// A Coordinator owns one worker goroutine per run. The worker walks the
// tree, scans each file, commits replacements and publishes records to a
// sink; the caller polls the coordinator on its own schedule and is never
// blocked by the worker.
package search

import (
	"strings"

	perrors "github.com/dshills/keyfind/internal/project/errors"
	"github.com/dshills/keyfind/internal/project/search/filetype"
	"github.com/dshills/keyfind/internal/project/search/scan"
	"github.com/dshills/keyfind/internal/project/vfs"
)

// MaxPatternLength bounds the search pattern in bytes.
const MaxPatternLength = 1024

// Request describes one search run. It is not modified once a run starts.
type Request struct {
	// Pattern is the literal text to find.
	Pattern string

	// Replace enables replacement; Replacement may then be empty to
	// delete every occurrence.
	Replace     bool
	Replacement string

	// FileType is a catalog entry name such as "Go" or a filter string
	// such as "C/C++ (*.c;*.h)" or "*.txt". Empty selects every file.
	FileType string

	// Root is the directory searched.
	Root string

	Recurse   bool
	WholeWord bool
	MatchCase bool
}

// Query returns the matching part of the request.
func (r Request) Query() scan.Query {
	return scan.Query{
		Pattern:     r.Pattern,
		Replacement: r.Replacement,
		Replace:     r.Replace,
		WholeWord:   r.WholeWord,
		MatchCase:   r.MatchCase,
	}
}

// Validate checks the request against fs and resolves its file type
// filter. Failures are *errors.ValidationError.
func (r Request) Validate(fs vfs.VFS, catalog []filetype.Entry) (filetype.Filter, error) {
	switch {
	case r.Pattern == "":
		return filetype.Filter{}, perrors.NewValidationError("pattern", "must not be empty")
	case len(r.Pattern) > MaxPatternLength:
		return filetype.Filter{}, perrors.NewValidationError("pattern", "longer than 1024 bytes")
	case strings.ContainsAny(r.Pattern, "\r\n"):
		return filetype.Filter{}, perrors.NewValidationError("pattern", "must not contain a line break")
	case r.Replace && r.Replacement == r.Pattern:
		return filetype.Filter{}, perrors.NewValidationError("replacement", "equals the pattern")
	}

	filter, err := filetype.Lookup(catalog, r.FileType)
	if err != nil {
		return filetype.Filter{}, perrors.NewValidationError("file type", err.Error())
	}

	if r.Root == "" {
		return filetype.Filter{}, perrors.NewValidationError("root", "must not be empty")
	}
	info, err := fs.Stat(r.Root)
	if err != nil {
		return filetype.Filter{}, perrors.NewValidationError("root", "does not exist")
	}
	if !info.IsDir() {
		return filetype.Filter{}, perrors.NewValidationError("root", "is not a directory")
	}
	return filter, nil
}

// State is the lifecycle state of a Coordinator.
type State int

const (
	// StateIdle means no run has been started.
	StateIdle State = iota
	// StateRunning means a worker is active.
	StateRunning
	// StateCompleted means the last run walked the whole tree.
	StateCompleted
	// StateCancelled means the last run stopped at a cancel request.
	StateCancelled
	// StateFailed means the last run could not start or could not finish.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}
