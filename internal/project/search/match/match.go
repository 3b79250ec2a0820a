// Package match implements literal substring search over a line buffer.
//
// Matching is always exact byte comparison. Case-insensitive callers lower
// both the line and the pattern with ToLowerASCII first; ASCII lowering
// keeps byte lengths, so offsets found in a lowered copy address the
// original line.
package match

import "bytes"

// IsWordByte reports whether c is an identifier byte: an ASCII letter,
// digit or underscore.
func IsWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Find returns the offset of the first occurrence of pattern in line at or
// after start, or -1. With wholeWord set, an occurrence only counts when the
// bytes immediately before and after it are not word bytes.
func Find(line []byte, start int, pattern []byte, wholeWord bool) int {
	if len(pattern) == 0 || start < 0 {
		return -1
	}
	for start+len(pattern) <= len(line) {
		i := bytes.Index(line[start:], pattern)
		if i < 0 {
			return -1
		}
		pos := start + i
		if !wholeWord || isWholeWord(line, pos, len(pattern)) {
			return pos
		}
		start = pos + 1
	}
	return -1
}

// FindAll counts the non-overlapping occurrences of pattern in line.
func FindAll(line, pattern []byte, wholeWord bool) int {
	n := 0
	for pos := Find(line, 0, pattern, wholeWord); pos >= 0; pos = Find(line, pos+len(pattern), pattern, wholeWord) {
		n++
	}
	return n
}

// Indexes returns the offsets of the occurrences FindAll counts.
func Indexes(line, pattern []byte, wholeWord bool) []int {
	var out []int
	for pos := Find(line, 0, pattern, wholeWord); pos >= 0; pos = Find(line, pos+len(pattern), pattern, wholeWord) {
		out = append(out, pos)
	}
	return out
}

// ToLowerASCII returns a lowered copy of b. Only A-Z are folded.
func ToLowerASCII(b []byte) []byte {
	return AppendLowerASCII(make([]byte, 0, len(b)), b)
}

// AppendLowerASCII appends the lowered bytes of src to dst. Scanners reuse
// dst across lines to avoid an allocation per line.
func AppendLowerASCII(dst, src []byte) []byte {
	for _, c := range src {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		dst = append(dst, c)
	}
	return dst
}

func isWholeWord(line []byte, pos, n int) bool {
	if pos > 0 && IsWordByte(line[pos-1]) {
		return false
	}
	end := pos + n
	if end < len(line) && IsWordByte(line[end]) {
		return false
	}
	return true
}
