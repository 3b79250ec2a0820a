// Package scan reads one file line by line, reports the lines that contain
// the search pattern and, when replacing, builds the rewritten content.
package scan

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	perrors "github.com/dshills/keyfind/internal/project/errors"
	"github.com/dshills/keyfind/internal/project/search/filetype"
	"github.com/dshills/keyfind/internal/project/search/match"
	"github.com/dshills/keyfind/internal/project/search/sink"
	"github.com/dshills/keyfind/internal/project/vfs"
)

// ErrIncompleteLine is returned by Rewrite when a line exceeds the maximum
// line length. Content with a possibly misread line boundary is never
// rewritten.
var ErrIncompleteLine = errors.New("line exceeds maximum length")

const (
	// DefaultMaxLineLength bounds the bytes read for a single line.
	DefaultMaxLineLength = 64 * 1024

	// DefaultMaxFileSize skips files larger than this.
	DefaultMaxFileSize = 64 * 1024 * 1024

	// DefaultSnippetLength bounds the snippet carried by a match record.
	DefaultSnippetLength = 120

	// minLineLength keeps the read buffer large enough to sniff content.
	minLineLength = 256

	ellipsis = "..."
)

// Options configures a Scanner.
type Options struct {
	// MaxLineLength is the largest line read in one piece.
	MaxLineLength int

	// MaxFileSize skips larger files (0 = unlimited).
	MaxFileSize int64

	// SnippetLength is the maximum snippet size in bytes, ellipsis included.
	SnippetLength int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxLineLength: DefaultMaxLineLength,
		MaxFileSize:   DefaultMaxFileSize,
		SnippetLength: DefaultSnippetLength,
	}
}

// Query is the matching part of a search request.
type Query struct {
	Pattern     string
	Replacement string
	Replace     bool
	WholeWord   bool
	MatchCase   bool
}

// Counts are the occurrence counters of one file.
type Counts struct {
	Matches      int
	Replacements int
}

// Target identifies the file to scan.
type Target struct {
	Path string // Path handed to the VFS
	Rel  string // Path reported in match records
	Size int64  // Size from the directory listing, -1 if unknown
}

// Outcome is the result of scanning one file.
type Outcome struct {
	// Matches holds the match records when Scan was called without an
	// emit function.
	Matches []sink.Record

	// Rewritten is the full new content. It is nil unless at least one
	// replacement was made and every line was read completely.
	Rewritten []byte

	// Counts holds the occurrences found and, when Rewritten is set, the
	// replacements it contains.
	Counts Counts

	// MatchedLines is the number of lines with at least one occurrence.
	MatchedLines int

	// Incomplete is set when a line exceeded MaxLineLength.
	Incomplete bool

	// MixedLineEndings is set when more than one line ending style was seen.
	MixedLineEndings bool

	// Skipped is set for binary and oversized files; SkipReason says which.
	Skipped    bool
	SkipReason error
}

// EmitFunc receives match records as they are produced. Returning false
// stops record production for the rest of the file; counting continues.
type EmitFunc func(sink.Record) bool

// Scanner scans files for one query. A Scanner is not safe for concurrent
// use; the search worker owns exactly one.
type Scanner struct {
	fs          vfs.VFS
	opts        Options
	query       Query
	pattern     []byte
	replacement []byte

	lower []byte // reused lowering buffer
}

// New creates a scanner for query.
func New(fs vfs.VFS, query Query, opts Options) *Scanner {
	if opts.MaxLineLength < minLineLength {
		opts.MaxLineLength = minLineLength
	}
	if opts.SnippetLength <= len(ellipsis) {
		opts.SnippetLength = DefaultSnippetLength
	}

	pattern := []byte(query.Pattern)
	if !query.MatchCase {
		pattern = match.ToLowerASCII(pattern)
	}

	return &Scanner{
		fs:          fs,
		opts:        opts,
		query:       query,
		pattern:     pattern,
		replacement: []byte(query.Replacement),
	}
}

// Options returns the effective options.
func (s *Scanner) Options() Options {
	return s.opts
}

// Scan scans one file. When emit is nil, match records are collected in
// the outcome. Open and read failures are returned as *errors.PathError;
// after a read failure the outcome still counts the lines read before it.
func (s *Scanner) Scan(t Target, emit EmitFunc) (Outcome, error) {
	if filetype.IsBinaryName(t.Path) {
		return Outcome{Skipped: true, SkipReason: perrors.ErrBinaryFile}, nil
	}
	if s.opts.MaxFileSize > 0 && t.Size > s.opts.MaxFileSize {
		return Outcome{Skipped: true, SkipReason: perrors.ErrFileTooLarge}, nil
	}

	f, err := s.fs.Open(t.Path)
	if err != nil {
		return Outcome{}, perrors.NewPathError("open", t.Path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, s.opts.MaxLineLength)

	sample, err := br.Peek(min(filetype.SniffLen, br.Size()))
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return Outcome{}, perrors.NewPathError("read", t.Path, err)
	}
	if filetype.IsBinaryContent(sample) {
		return Outcome{Skipped: true, SkipReason: perrors.ErrBinaryFile}, nil
	}

	var out Outcome
	collect := emit == nil
	if collect {
		emit = func(r sink.Record) bool {
			out.Matches = append(out.Matches, r)
			return true
		}
	}

	res, err := s.run(br, t.Rel, emit, sizeHint(t.Size))
	out.Counts = res.counts
	out.MatchedLines = res.matchedLines
	out.Incomplete = res.incomplete
	out.MixedLineEndings = res.mixed()
	out.Rewritten = res.rewritten
	if err != nil {
		// The lines read before the failure were reported; keep their counts.
		return out, perrors.NewPathError("read", t.Path, err)
	}
	return out, nil
}

// Rewrite applies the query's replacement to content with the same line
// pass Scan uses. It returns ErrIncompleteLine when a line is too long.
func (s *Scanner) Rewrite(content []byte) ([]byte, Counts, error) {
	if !s.query.Replace {
		return nil, Counts{}, fmt.Errorf("rewrite: query has no replacement")
	}

	res, err := s.run(bytes.NewReader(content), "", nil, len(content))
	if err != nil {
		return nil, Counts{}, err
	}
	if res.incomplete {
		return nil, res.counts, ErrIncompleteLine
	}
	if res.rewritten == nil {
		// Nothing to replace; the content is its own rewrite.
		return content, res.counts, nil
	}
	return res.rewritten, res.counts, nil
}

type runResult struct {
	counts       Counts
	matchedLines int
	incomplete   bool
	rewritten    []byte

	crlf, lf, cr int
}

func (r *runResult) mixed() bool {
	styles := 0
	for _, n := range []int{r.crlf, r.lf, r.cr} {
		if n > 0 {
			styles++
		}
	}
	return styles > 1
}

// run is the line pass shared by Scan and Rewrite. On a read error the
// result holds what was counted up to it, and no rewrite.
func (s *Scanner) run(r io.Reader, rel string, emit EmitFunc, hint int) (runResult, error) {
	var res runResult
	var out *bytes.Buffer
	if s.query.Replace {
		out = bytes.NewBuffer(make([]byte, 0, hint))
	}

	lr := newLineReader(r, s.opts.MaxLineLength)
	emitting := emit != nil

	// window is the text searched for one piece: the tail of the previous
	// piece of the same line, then the piece. The tail is one byte longer
	// than the pattern so the byte before a straddling hit is known.
	var window []byte
	keep := len(s.pattern) + 1
	line := 1
	lineHit := false

	for lr.next() {
		if lr.cont {
			res.incomplete = true
			out = nil
		}

		tail := len(window)
		window = append(window, lr.body...)
		hay := window
		if !s.query.MatchCase {
			s.lower = match.AppendLowerASCII(s.lower[:0], window)
			hay = s.lower
		}

		hits := match.Indexes(hay, s.pattern, s.query.WholeWord)
		kept := hits[:0]
		for _, pos := range hits {
			end := pos + len(s.pattern)
			switch {
			case end < tail:
				// Counted with the previous piece.
			case lr.cont && end == len(hay):
				// The byte after it is in the next piece; the tail carries it over.
			default:
				kept = append(kept, pos)
			}
		}
		hits = kept

		if len(hits) > 0 {
			res.counts.Matches += len(hits)
			if !lineHit {
				lineHit = true
				res.matchedLines++
				if emitting {
					text := window
					if tail > 0 {
						text = window[hits[0]:]
					}
					emitting = emit(sink.Match(rel, line, s.snippet(text)))
				}
			}
		}

		if out != nil {
			prev := 0
			for _, pos := range hits {
				out.Write(window[prev:pos])
				out.Write(s.replacement)
				prev = pos + len(s.pattern)
			}
			out.Write(window[prev:])
			out.Write(lr.term)
			res.counts.Replacements += len(hits)
		}

		if lr.cont {
			n := min(keep, len(window))
			window = append(window[:0], window[len(window)-n:]...)
			continue
		}

		switch string(lr.term) {
		case "\r\n":
			res.crlf++
		case "\n":
			res.lf++
		case "\r":
			res.cr++
		}
		if len(lr.term) > 0 {
			line++
		}
		window = window[:0]
		lineHit = false
	}

	if err := lr.err(); err != nil {
		res.counts.Replacements = 0
		return res, err
	}
	if out != nil && res.counts.Replacements > 0 {
		res.rewritten = out.Bytes()
	} else {
		res.counts.Replacements = 0
	}
	return res, nil
}

// lineReader splits input into lines ended by "\n", "\r\n" or a lone "\r".
// A line longer than max bytes arrives in max-byte pieces; all pieces but
// the last have cont set and no terminator.
type lineReader struct {
	sc  *bufio.Scanner
	max int

	body []byte
	term []byte
	cont bool

	termLen  int
	overflow bool
}

func newLineReader(r io.Reader, max int) *lineReader {
	l := &lineReader{sc: bufio.NewScanner(r), max: max}
	// A full piece plus a "\r\n" must fit.
	l.sc.Buffer(make([]byte, 0, min(max+2, 4096)), max+2)
	l.sc.Split(l.split)
	return l
}

func (l *lineReader) next() bool {
	if !l.sc.Scan() {
		return false
	}
	tok := l.sc.Bytes()
	l.body, l.term = tok[:len(tok)-l.termLen], tok[len(tok)-l.termLen:]
	l.cont = l.overflow
	return true
}

func (l *lineReader) err() error {
	return l.sc.Err()
}

func (l *lineReader) split(data []byte, atEOF bool) (int, []byte, error) {
	l.termLen, l.overflow = 0, false
	if len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data[:min(len(data), l.max+1)], "\r\n"); i >= 0 {
		switch {
		case data[i] == '\n':
			l.termLen = 1
			return i + 1, data[:i+1], nil
		case i+1 < len(data) && data[i+1] == '\n':
			l.termLen = 2
			return i + 2, data[:i+2], nil
		case i+1 < len(data) || atEOF:
			l.termLen = 1
			return i + 1, data[:i+1], nil
		}
		// A "\r" at the end of the buffer may start a "\r\n".
		return 0, nil, nil
	}

	if len(data) > l.max {
		l.overflow = true
		return l.max, data[:l.max], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// snippet returns the bounded, trimmed text of a line starting at text.
func (s *Scanner) snippet(text []byte) string {
	seg := bytes.TrimLeft(text, " \t")
	seg = bytes.TrimRight(seg, " \t")

	limit := s.opts.SnippetLength
	if len(seg) <= limit {
		return string(seg)
	}

	cut := limit - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(seg[cut]) {
		cut--
	}
	return string(seg[:cut]) + ellipsis
}

func sizeHint(size int64) int {
	if size <= 0 || size > DefaultMaxFileSize {
		return 4096
	}
	return int(size) + int(size)/8
}
