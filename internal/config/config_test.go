package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dshills/keyfind/internal/config/loader"
	"github.com/dshills/keyfind/internal/logging"
	"github.com/dshills/keyfind/internal/project/search/filetype"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func load(t *testing.T, fsys fstest.MapFS, opts LoadOptions) (*Config, error) {
	t.Helper()
	opts.FS = fsys
	if opts.ConfigHome == "" {
		opts.ConfigHome = "home"
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = noEnv
	}
	return Load(opts)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, fstest.MapFS{}, LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Default()
	if !reflect.DeepEqual(cfg.Search, want.Search) {
		t.Errorf("Search = %+v, want %+v", cfg.Search, want.Search)
	}
	if cfg.Logging.Level != "warn" || !cfg.Output.Color || cfg.Output.JSON {
		t.Errorf("Logging/Output = %+v %+v", cfg.Logging, cfg.Output)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
	if cfg.Search.PollInterval.Std() != 150*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Search.PollInterval.Std())
	}
}

func TestLoad_ProjectTOML(t *testing.T) {
	fsys := fstest.MapFS{
		".keyfind.toml": {Data: []byte(`
[search]
matchCase = true
pollInterval = "40ms"
excludeDirs = ["vendor"]

[logging]
level = "debug"
`)},
		"home/keyfind/config.toml": {Data: []byte("[search]\nwholeWord = true\n")},
	}

	cfg, err := load(t, fsys, LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source != ".keyfind.toml" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if !cfg.Search.MatchCase || !cfg.Search.Recurse {
		t.Errorf("MatchCase=%v Recurse=%v, want both true", cfg.Search.MatchCase, cfg.Search.Recurse)
	}
	if cfg.Search.WholeWord {
		t.Error("user config was read although a project config exists")
	}
	if cfg.Search.PollInterval.Std() != 40*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Search.PollInterval.Std())
	}
	if !reflect.DeepEqual(cfg.Search.ExcludeDirs, []string{"vendor"}) {
		t.Errorf("ExcludeDirs = %v", cfg.Search.ExcludeDirs)
	}
	if cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel())
	}
}

func TestLoad_UserYAMLAndExplicit(t *testing.T) {
	fsys := fstest.MapFS{
		"home/keyfind/config.toml": {Data: []byte("[output]\njson = true\n")},
		"custom.yaml": {Data: []byte(`
search:
  recurse: false
  snippetLength: 60
fileTypes:
  - name: Proto
    patterns: ["*.proto"]
`)},
	}

	cfg, err := load(t, fsys, LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source != "home/keyfind/config.toml" || !cfg.Output.JSON {
		t.Errorf("user config not applied: source=%q json=%v", cfg.Source, cfg.Output.JSON)
	}

	cfg, err = load(t, fsys, LoadOptions{Path: "custom.yaml"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Search.Recurse || cfg.Search.SnippetLength != 60 {
		t.Errorf("Search = %+v", cfg.Search)
	}
	if cfg.Output.JSON {
		t.Error("user config was merged with an explicit config")
	}
	want := []filetype.Entry{{Name: "Proto", Patterns: []string{"*.proto"}}}
	if !reflect.DeepEqual(cfg.FileTypes, want) {
		t.Errorf("FileTypes = %+v", cfg.FileTypes)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	fsys := fstest.MapFS{
		".keyfind.toml": {Data: []byte("[search]\nmatchCase = true\nmaxLineLength = 1024\n")},
	}
	env := envMap(map[string]string{
		"KEYFIND_MATCH_CASE":   "false",
		"KEYFIND_EXCLUDE_DIRS": "a,b",
		"KEYFIND_LOG_LEVEL":    "error",
	})

	cfg, err := load(t, fsys, LoadOptions{LookupEnv: env})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Search.MatchCase {
		t.Error("environment did not override the file")
	}
	if cfg.Search.MaxLineLength != 1024 {
		t.Errorf("MaxLineLength = %d", cfg.Search.MaxLineLength)
	}
	if !reflect.DeepEqual(cfg.Search.ExcludeDirs, []string{"a", "b"}) {
		t.Errorf("ExcludeDirs = %v", cfg.Search.ExcludeDirs)
	}
	if cfg.LogLevel() != logging.LevelError {
		t.Errorf("LogLevel = %v", cfg.LogLevel())
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
		opts  LoadOptions
		check func(error) bool
	}{
		{
			name:  "explicit file missing",
			files: fstest.MapFS{},
			opts:  LoadOptions{Path: "nope.toml"},
			check: func(err error) bool { return errors.Is(err, ErrFileNotFound) },
		},
		{
			name:  "parse error",
			files: fstest.MapFS{".keyfind.toml": {Data: []byte("[search\n")}},
			check: func(err error) bool {
				var pe *loader.ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:  "unknown key",
			files: fstest.MapFS{".keyfind.toml": {Data: []byte("[search]\nfuzzy = true\n")}},
			check: func(err error) bool { return err != nil && strings.Contains(err.Error(), "unknown setting") },
		},
		{
			name:  "bad duration",
			files: fstest.MapFS{".keyfind.toml": {Data: []byte("[search]\npollInterval = \"soon\"\n")}},
			check: func(err error) bool { return err != nil },
		},
		{
			name:  "bad environment",
			files: fstest.MapFS{},
			opts:  LoadOptions{LookupEnv: envMap(map[string]string{"KEYFIND_RECURSE": "sometimes"})},
			check: func(err error) bool { return err != nil && strings.Contains(err.Error(), "KEYFIND_RECURSE") },
		},
		{
			name:  "invalid value",
			files: fstest.MapFS{".keyfind.toml": {Data: []byte("[logging]\nlevel = \"loud\"\n")}},
			check: func(err error) bool { return errors.Is(err, ErrValidationFailed) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.files, tt.opts)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		path   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"poll interval", func(c *Config) { c.Search.PollInterval = 0 }, "search.pollInterval"},
		{"line length", func(c *Config) { c.Search.MaxLineLength = 0 }, "search.maxLineLength"},
		{"file size", func(c *Config) { c.Search.MaxFileSize = -1 }, "search.maxFileSize"},
		{"snippet", func(c *Config) { c.Search.SnippetLength = -5 }, "search.snippetLength"},
		{"level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"file type name", func(c *Config) {
			c.FileTypes = []filetype.Entry{{Name: " ", Patterns: []string{"*.x"}}}
		}, "fileTypes[0].name"},
		{"file type patterns", func(c *Config) {
			c.FileTypes = []filetype.Entry{{Name: "Empty"}}
		}, "fileTypes[0].patterns"},
		{"custom file type", func(c *Config) {
			c.FileTypes = []filetype.Entry{{Name: "Proto", Patterns: []string{"*.proto"}}}
			c.Search.FileType = "proto"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.path == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Path != tt.path {
				t.Errorf("Path = %q, want %q", ve.Path, tt.path)
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Error("ValidationError does not match ErrValidationFailed")
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	cfg := Default()
	cfg.FileTypes = []filetype.Entry{
		{Name: "go", Patterns: []string{"*.go"}},
		{Name: "Proto", Patterns: []string{"*.proto"}},
	}
	catalog := cfg.Catalog()

	if len(catalog) != len(filetype.DefaultCatalog())+1 {
		t.Fatalf("catalog has %d entries", len(catalog))
	}
	f, err := filetype.Lookup(catalog, "Go")
	if err != nil {
		t.Fatal(err)
	}
	if f.Match("go.mod") {
		t.Error("configured Go entry did not replace the built-in one")
	}
	if f, _ := filetype.Lookup(catalog, "Proto"); !f.Match("api/v1.proto") {
		t.Error("configured Proto entry not found")
	}
}

func TestScanOptions(t *testing.T) {
	cfg := Default()
	cfg.Search.MaxLineLength = 4096
	opts := cfg.ScanOptions()
	if opts.MaxLineLength != 4096 || opts.SnippetLength != cfg.Search.SnippetLength || opts.MaxFileSize != cfg.Search.MaxFileSize {
		t.Errorf("ScanOptions = %+v", opts)
	}
}

func TestDuration_Text(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	text, _ := d.MarshalText()
	if string(text) != "1.5s" {
		t.Errorf("MarshalText = %q", text)
	}
	var back Duration
	if err := back.UnmarshalText(text); err != nil || back != d {
		t.Errorf("UnmarshalText = %v, %v", back, err)
	}
	if err := back.UnmarshalText([]byte("fast")); err == nil {
		t.Error("expected error for invalid duration")
	}
}
