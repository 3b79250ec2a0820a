package loader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Kind is the type an environment variable is parsed as.
type Kind int

const (
	// KindString keeps the value as is.
	KindString Kind = iota
	// KindBool accepts true/false, yes/no, on/off and 1/0.
	KindBool
	// KindInt accepts a base 10 integer.
	KindInt
	// KindList splits the value on commas.
	KindList
)

// Binding maps an environment variable to a configuration path.
type Binding struct {
	Path string
	Kind Kind
}

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix   string
	bindings map[string]Binding
	lookup   func(string) (string, bool)
}

// NewEnvLoader creates a loader with the default bindings. Binding names
// are relative to prefix, which should include the trailing underscore
// (e.g. "KEYFIND_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:   prefix,
		bindings: defaultBindings(),
		lookup:   os.LookupEnv,
	}
}

func defaultBindings() map[string]Binding {
	return map[string]Binding{
		"LOG_LEVEL":       {"logging.level", KindString},
		"RECURSE":         {"search.recurse", KindBool},
		"MATCH_CASE":      {"search.matchCase", KindBool},
		"WHOLE_WORD":      {"search.wholeWord", KindBool},
		"FILE_TYPE":       {"search.fileType", KindString},
		"POLL_INTERVAL":   {"search.pollInterval", KindString},
		"MAX_LINE_LENGTH": {"search.maxLineLength", KindInt},
		"MAX_FILE_SIZE":   {"search.maxFileSize", KindInt},
		"SNIPPET_LENGTH":  {"search.snippetLength", KindInt},
		"EXCLUDE_DIRS":    {"search.excludeDirs", KindList},
		"COLOR":           {"output.color", KindBool},
		"JSON":            {"output.json", KindBool},
	}
}

// Bind adds or replaces the binding for prefix+name.
func (l *EnvLoader) Bind(name string, b Binding) {
	l.bindings[name] = b
}

// SetLookup replaces os.LookupEnv as the variable source.
func (l *EnvLoader) SetLookup(fn func(string) (string, bool)) {
	l.lookup = fn
}

// Names returns the bound variable names, prefix included.
func (l *EnvLoader) Names() []string {
	names := make([]string, 0, len(l.bindings))
	for name := range l.bindings {
		names = append(names, l.prefix+name)
	}
	sort.Strings(names)
	return names
}

// Load reads every bound variable that is set. An empty value counts as
// set. It returns an error naming the first variable that does not parse.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for name, b := range l.bindings {
		env := l.prefix + name
		raw, ok := l.lookup(env)
		if !ok {
			continue
		}
		val, err := parseValue(raw, b.Kind)
		if err != nil {
			return nil, fmt.Errorf("environment %s=%q: %w", env, raw, err)
		}
		SetPath(config, b.Path, val)
	}
	return config, nil
}

func parseValue(s string, kind Kind) (any, error) {
	switch kind {
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean")
	case KindInt:
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case KindList:
		var out []any
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	default:
		return s, nil
	}
}
