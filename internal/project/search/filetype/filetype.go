// Package filetype parses the human readable file type filters offered to
// users ("C/C++ (*.c;*.cpp;*.h)", "Makefile", "All (*.*)") and decides
// which files a search should look at.
package filetype

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrEmptyFilter is returned when a filter string contains no patterns.
var ErrEmptyFilter = errors.New("file type filter has no patterns")

// Entry is a named catalog entry.
type Entry struct {
	Name     string   `toml:"name" yaml:"name"`
	Patterns []string `toml:"patterns" yaml:"patterns"`
}

// String renders the entry the way it is shown to users, e.g.
// "Go (*.go;go.mod)". Entries whose only pattern equals the name render
// as the bare name.
func (e Entry) String() string {
	if len(e.Patterns) == 1 && e.Patterns[0] == e.Name {
		return e.Name
	}
	return fmt.Sprintf("%s (%s)", e.Name, strings.Join(e.Patterns, ";"))
}

// DefaultCatalog returns the built-in file type catalog.
func DefaultCatalog() []Entry {
	return []Entry{
		{Name: "All", Patterns: []string{"*.*"}},
		{Name: "Text", Patterns: []string{"*.txt", "*.log", "*.text"}},
		{Name: "C/C++", Patterns: []string{"*.c", "*.cc", "*.cpp", "*.cxx", "*.h", "*.hh", "*.hpp", "*.hxx", "*.inl"}},
		{Name: "Go", Patterns: []string{"*.go", "go.mod", "go.sum"}},
		{Name: "Java", Patterns: []string{"*.java"}},
		{Name: "C#", Patterns: []string{"*.cs"}},
		{Name: "Python", Patterns: []string{"*.py", "*.pyw"}},
		{Name: "Lua", Patterns: []string{"*.lua"}},
		{Name: "Script", Patterns: []string{"*.sh", "*.bash", "*.zsh", "*.bat", "*.cmd", "*.ps1"}},
		{Name: "Web", Patterns: []string{"*.html", "*.htm", "*.css", "*.js", "*.ts", "*.json"}},
		{Name: "Markdown", Patterns: []string{"*.md", "*.markdown"}},
		{Name: "Config", Patterns: []string{"*.ini", "*.cfg", "*.conf", "*.toml", "*.yaml", "*.yml", "*.xml"}},
		{Name: "Makefile", Patterns: []string{"Makefile"}},
		{Name: "CMake", Patterns: []string{"CMakeLists.txt", "*.cmake"}},
	}
}

type rule struct {
	all  bool
	ext  string // lowered, with leading dot
	name string // exact base name
	glob string // path.Match pattern
}

// Filter decides whether a file name belongs to a file type.
type Filter struct {
	source string
	rules  []rule
}

// All returns a filter that matches every file.
func All() Filter {
	return Filter{source: "All (*.*)", rules: []rule{{all: true}}}
}

// Parse parses a filter string. The patterns are taken from the text inside
// the trailing parentheses when present, otherwise from the whole string,
// and are separated by ';' or ','. An empty string yields All.
func Parse(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return All(), nil
	}

	list := s
	if strings.HasSuffix(s, ")") {
		if open := strings.LastIndex(s, "("); open >= 0 {
			list = s[open+1 : len(s)-1]
		}
	}

	f := Filter{source: s}
	for _, p := range strings.FieldsFunc(list, func(r rune) bool { return r == ';' || r == ',' }) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r, err := parseRule(p)
		if err != nil {
			return Filter{}, fmt.Errorf("file type %q: %w", s, err)
		}
		f.rules = append(f.rules, r)
	}
	if len(f.rules) == 0 {
		return Filter{}, fmt.Errorf("file type %q: %w", s, ErrEmptyFilter)
	}
	return f, nil
}

// Lookup resolves a filter by catalog entry name (case-insensitive) or, when
// no entry matches, parses s as a filter string.
func Lookup(catalog []Entry, s string) (Filter, error) {
	name := strings.TrimSpace(s)
	for _, e := range catalog {
		if strings.EqualFold(e.Name, name) || e.String() == name {
			return Parse(e.String())
		}
	}
	return Parse(s)
}

func parseRule(p string) (rule, error) {
	switch {
	case p == "*" || p == "*.*":
		return rule{all: true}, nil
	case strings.HasPrefix(p, "*.") && !strings.ContainsAny(p[2:], "*?["):
		return rule{ext: strings.ToLower(p[1:])}, nil
	case strings.ContainsAny(p, "*?["):
		if _, err := path.Match(p, ""); err != nil {
			return rule{}, err
		}
		return rule{glob: p}, nil
	default:
		return rule{name: p}, nil
	}
}

// Match reports whether the base name of name is accepted by the filter.
func (f Filter) Match(name string) bool {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	for _, r := range f.rules {
		switch {
		case r.all:
			return true
		case r.ext != "":
			if len(base) > len(r.ext) && strings.EqualFold(base[len(base)-len(r.ext):], r.ext) {
				return true
			}
		case r.name != "":
			if base == r.name {
				return true
			}
		case r.glob != "":
			if ok, _ := path.Match(r.glob, base); ok {
				return true
			}
		}
	}
	return false
}

// MatchesAll reports whether the filter accepts every file.
func (f Filter) MatchesAll() bool {
	for _, r := range f.rules {
		if r.all {
			return true
		}
	}
	return false
}

// String returns the filter source text.
func (f Filter) String() string {
	return f.source
}
