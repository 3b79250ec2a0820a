// Package sink provides the bounded, thread-safe accumulator that carries
// search results from the worker goroutine to a polling consumer.
package sink

import "fmt"

// Kind identifies a record in the result stream.
type Kind int

const (
	// KindMatch is a matching line.
	KindMatch Kind = iota
	// KindProgress names the file currently being scanned.
	KindProgress
	// KindTooManyResults stands in for every match past the cap.
	KindTooManyResults
	// KindFinished is the terminal record of a run and carries its totals.
	KindFinished
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMatch:
		return "MATCH"
	case KindProgress:
		return "PROGRESS"
	case KindTooManyResults:
		return "TOO_MANY_RESULTS"
	case KindFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Stats holds the cumulative counters of a run.
type Stats struct {
	FilesScanned    int // Files opened or attempted, including failures
	FilesMatched    int // Files with at least one match
	Matches         int // Occurrences of the pattern
	Replacements    int // Occurrences actually rewritten on disk
	FilesSkipped    int // Binary or oversized files
	FilesFailed     int // Files that could not be read
	ReplaceFailures int // Files whose replacement was abandoned
}

// Record is one element of the result stream. Records are immutable once
// produced.
type Record struct {
	Kind Kind

	// Path is the file path relative to the search root (KindMatch) or the
	// file being scanned (KindProgress).
	Path string

	// Line is the 1-based line number (KindMatch).
	Line int

	// Snippet is the bounded text of the matching line (KindMatch).
	Snippet string

	// Stats carries the final totals (KindFinished).
	Stats Stats
}

// Match creates a match record.
func Match(path string, line int, snippet string) Record {
	return Record{Kind: KindMatch, Path: path, Line: line, Snippet: snippet}
}

// Progress creates a progress record.
func Progress(path string) Record {
	return Record{Kind: KindProgress, Path: path}
}

// TooManyResults creates the cap sentinel record.
func TooManyResults() Record {
	return Record{Kind: KindTooManyResults}
}

// Finished creates the terminal record.
func Finished(stats Stats) Record {
	return Record{Kind: KindFinished, Stats: stats}
}

// String formats the record for logs and plain output.
func (r Record) String() string {
	switch r.Kind {
	case KindMatch:
		return fmt.Sprintf("%s:%d: %s", r.Path, r.Line, r.Snippet)
	case KindProgress:
		return fmt.Sprintf("scanning %s", r.Path)
	case KindTooManyResults:
		return "too many results"
	case KindFinished:
		return fmt.Sprintf("finished: %d matches, %d replacements in %d of %d files",
			r.Stats.Matches, r.Stats.Replacements, r.Stats.FilesMatched, r.Stats.FilesScanned)
	default:
		return r.Kind.String()
	}
}
