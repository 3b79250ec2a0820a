package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/tidwall/sjson"

	"github.com/dshills/keyfind/internal/project/search"
	"github.com/dshills/keyfind/internal/project/search/match"
	"github.com/dshills/keyfind/internal/project/search/sink"
)

type printerOptions struct {
	json     bool
	color    bool
	progress bool
}

// printer writes records as they are polled. Matches go to out; progress,
// warnings and the summary go to errOut so out can be piped.
type printer struct {
	out    io.Writer
	errOut io.Writer
	opts   printerOptions

	pattern   []byte
	matchCase bool
	wholeWord bool
	replace   bool

	path *color.Color
	line *color.Color
	hit  *color.Color
	note *color.Color

	finished bool
	status   string
}

func newPrinter(out, errOut io.Writer, req search.Request, opts printerOptions) *printer {
	p := &printer{
		out:       out,
		errOut:    errOut,
		opts:      opts,
		pattern:   []byte(req.Pattern),
		matchCase: req.MatchCase,
		wholeWord: req.WholeWord,
		replace:   req.Replace,
		path:      color.New(color.FgCyan),
		line:      color.New(color.FgYellow),
		hit:       color.New(color.FgYellow, color.Bold),
		note:      color.New(color.FgMagenta),
	}
	if !p.matchCase {
		p.pattern = match.ToLowerASCII(p.pattern)
	}
	if !opts.color {
		for _, c := range []*color.Color{p.path, p.line, p.hit, p.note} {
			c.DisableColor()
		}
	}
	return p
}

// batch prints one poll's records and reports whether FINISHED was seen.
func (p *printer) batch(b search.Batch) bool {
	for _, r := range b.Records {
		switch r.Kind {
		case sink.KindMatch:
			p.clearStatus()
			p.match(r)
		case sink.KindTooManyResults:
			p.clearStatus()
			p.tooMany()
		case sink.KindFinished:
			p.finished = true
		}
	}
	if r, ok := b.Progress(); ok && !p.finished {
		p.showStatus(r)
	} else if p.finished {
		p.clearStatus()
	}
	return p.finished
}

func (p *printer) match(r sink.Record) {
	if p.opts.json {
		s, _ := sjson.Set("", "kind", r.Kind.String())
		s, _ = sjson.Set(s, "path", r.Path)
		s, _ = sjson.Set(s, "line", r.Line)
		s, _ = sjson.Set(s, "snippet", r.Snippet)
		fmt.Fprintln(p.out, s)
		return
	}
	fmt.Fprintf(p.out, "%s:%s: %s\n", p.path.Sprint(r.Path), p.line.Sprint(r.Line), p.highlight(r.Snippet))
}

// highlight colors the occurrences of the pattern that survived snippet
// truncation.
func (p *printer) highlight(snippet string) string {
	hay := []byte(snippet)
	if !p.matchCase {
		hay = match.ToLowerASCII(hay)
	}
	idx := match.Indexes(hay, p.pattern, p.wholeWord)
	if len(idx) == 0 {
		return snippet
	}

	var sb strings.Builder
	prev := 0
	for _, i := range idx {
		end := i + len(p.pattern)
		sb.WriteString(snippet[prev:i])
		sb.WriteString(p.hit.Sprint(snippet[i:end]))
		prev = end
	}
	sb.WriteString(snippet[prev:])
	return sb.String()
}

func (p *printer) tooMany() {
	if p.opts.json {
		s, _ := sjson.Set("", "kind", sink.KindTooManyResults.String())
		fmt.Fprintln(p.out, s)
		return
	}
	p.note.Fprintf(p.errOut, "too many results, further matches are counted but not listed\n")
}

func (p *printer) showStatus(r sink.Record) {
	if !p.opts.progress || r.Path == p.status {
		return
	}
	p.status = r.Path
	fmt.Fprintf(p.errOut, "\r\x1b[K%s", r)
}

func (p *printer) clearStatus() {
	if p.status == "" {
		return
	}
	p.status = ""
	fmt.Fprint(p.errOut, "\r\x1b[K")
}

// summary prints the totals of a finished run.
func (p *printer) summary(state search.State, st sink.Stats, hints []string, elapsed time.Duration) {
	if p.opts.json {
		s, _ := sjson.Set("", "kind", sink.KindFinished.String())
		s, _ = sjson.Set(s, "state", state.String())
		s, _ = sjson.Set(s, "matches", st.Matches)
		s, _ = sjson.Set(s, "replacements", st.Replacements)
		s, _ = sjson.Set(s, "filesMatched", st.FilesMatched)
		s, _ = sjson.Set(s, "filesScanned", st.FilesScanned)
		s, _ = sjson.Set(s, "filesSkipped", st.FilesSkipped)
		s, _ = sjson.Set(s, "filesFailed", st.FilesFailed)
		s, _ = sjson.Set(s, "replaceFailures", st.ReplaceFailures)
		s, _ = sjson.Set(s, "elapsedMs", elapsed.Milliseconds())
		if len(hints) > 0 {
			s, _ = sjson.Set(s, "hints", hints)
		}
		fmt.Fprintln(p.out, s)
		return
	}

	var sb strings.Builder
	if p.replace {
		fmt.Fprintf(&sb, "replaced %s of %s %s",
			humanize.Comma(int64(st.Replacements)), humanize.Comma(int64(st.Matches)), plural(st.Matches, "match", "matches"))
	} else {
		fmt.Fprintf(&sb, "found %s %s", humanize.Comma(int64(st.Matches)), plural(st.Matches, "match", "matches"))
	}
	fmt.Fprintf(&sb, " in %s of %s %s",
		humanize.Comma(int64(st.FilesMatched)), humanize.Comma(int64(st.FilesScanned)), plural(st.FilesScanned, "file", "files"))

	var extra []string
	if st.FilesSkipped > 0 {
		extra = append(extra, humanize.Comma(int64(st.FilesSkipped))+" skipped")
	}
	if st.FilesFailed > 0 {
		extra = append(extra, humanize.Comma(int64(st.FilesFailed))+" unreadable")
	}
	if st.ReplaceFailures > 0 {
		extra = append(extra, humanize.Comma(int64(st.ReplaceFailures))+" not replaced")
	}
	if len(extra) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(extra, ", "))
	}
	fmt.Fprintf(&sb, " in %v", elapsed.Round(time.Millisecond))
	if state != search.StateCompleted {
		fmt.Fprintf(&sb, ", %s", state)
	}
	fmt.Fprintln(p.errOut, sb.String())

	for _, h := range hints {
		p.note.Fprintf(p.errOut, "hint: %s\n", h)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
