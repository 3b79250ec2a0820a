package search

import (
	"fmt"

	"github.com/dshills/keyfind/internal/project/search/sink"
)

// Hints explains a run that found nothing. It returns nil when the run
// matched at least once.
func Hints(req Request, stats sink.Stats) []string {
	if stats.Matches > 0 {
		return nil
	}

	var hints []string
	if stats.FilesScanned == 0 {
		hints = append(hints, "no files matched the file type filter")
	}
	if !req.Recurse {
		hints = append(hints, "subdirectories excluded")
	}
	if req.MatchCase {
		hints = append(hints, "case-sensitive match")
	}
	if req.WholeWord {
		hints = append(hints, "whole-word match")
	}
	if n := stats.FilesSkipped; n > 0 {
		hints = append(hints, fmt.Sprintf("%d %s skipped as binary or too large", n, plural(n, "file")))
	}
	if n := stats.FilesFailed; n > 0 {
		hints = append(hints, fmt.Sprintf("%d %s could not be read", n, plural(n, "file")))
	}
	return hints
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
