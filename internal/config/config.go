package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/keyfind/internal/config/loader"
	"github.com/dshills/keyfind/internal/logging"
	"github.com/dshills/keyfind/internal/project/search/filetype"
	"github.com/dshills/keyfind/internal/project/search/scan"
)

// DefaultEnvPrefix prefixes every environment variable keyfind reads.
const DefaultEnvPrefix = "KEYFIND_"

// Project config file names, tried in order in the working directory.
var projectFiles = []string{".keyfind.toml", ".keyfind.yaml", ".keyfind.yml"}

// Config is the resolved keyfind configuration.
type Config struct {
	Search    SearchConfig     `toml:"search"`
	Logging   LoggingConfig    `toml:"logging"`
	Output    OutputConfig     `toml:"output"`
	FileTypes []filetype.Entry `toml:"fileTypes"`

	// Source is the config file that was read, empty when none was found.
	Source string `toml:"-"`
}

// SearchConfig holds the search defaults and scanner limits.
type SearchConfig struct {
	Recurse       bool     `toml:"recurse"`
	MatchCase     bool     `toml:"matchCase"`
	WholeWord     bool     `toml:"wholeWord"`
	FileType      string   `toml:"fileType"`
	PollInterval  Duration `toml:"pollInterval"`
	MaxLineLength int      `toml:"maxLineLength"`
	MaxFileSize   int64    `toml:"maxFileSize"`
	SnippetLength int      `toml:"snippetLength"`
	ExcludeDirs   []string `toml:"excludeDirs"`
}

// LoggingConfig configures the diagnostic log.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// OutputConfig configures how results are printed.
type OutputConfig struct {
	Color bool `toml:"color"`
	JSON  bool `toml:"json"`
}

// Duration is a time.Duration written as a string such as "150ms".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := scan.DefaultOptions()
	return &Config{
		Search: SearchConfig{
			Recurse:       true,
			PollInterval:  Duration(150 * time.Millisecond),
			MaxLineLength: opts.MaxLineLength,
			MaxFileSize:   opts.MaxFileSize,
			SnippetLength: opts.SnippetLength,
			ExcludeDirs:   []string{".git", ".hg", ".svn", "node_modules"},
		},
		Logging: LoggingConfig{Level: "warn"},
		Output:  OutputConfig{Color: true},
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path is an explicit config file. It must exist.
	Path string

	// FS reads config files. The default is the OS file system.
	FS loader.FileSystem

	// WorkDir holds the project config file.
	WorkDir string

	// ConfigHome replaces os.UserConfigDir for the user config file.
	ConfigHome string

	// EnvPrefix defaults to DefaultEnvPrefix.
	EnvPrefix string

	// LookupEnv replaces os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration from the defaults, the first config file
// found and the environment, then validates it.
func Load(opts LoadOptions) (*Config, error) {
	if opts.FS == nil {
		opts.FS = loader.DefaultFS()
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = DefaultEnvPrefix
	}

	merged, err := defaultsMap()
	if err != nil {
		return nil, err
	}

	source, err := locate(opts)
	if err != nil {
		return nil, err
	}
	if source != "" {
		fileMap, err := loader.ForFile(opts.FS, source).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, fileMap)
	}

	env := loader.NewEnvLoader(opts.EnvPrefix)
	if opts.LookupEnv != nil {
		env.SetLookup(opts.LookupEnv)
	}
	envMap, err := env.Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, envMap)

	cfg, err := decode(merged)
	if err != nil {
		if source != "" {
			return nil, fmt.Errorf("config %s: %w", source, err)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// locate returns the config file to read, or "" when there is none.
func locate(opts LoadOptions) (string, error) {
	if opts.Path != "" {
		if _, err := opts.FS.Stat(opts.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrFileNotFound, opts.Path)
			}
			return "", fmt.Errorf("config %s: %w", opts.Path, err)
		}
		return opts.Path, nil
	}

	candidates := make([]string, 0, len(projectFiles)+1)
	for _, name := range projectFiles {
		candidates = append(candidates, filepath.Join(opts.WorkDir, name))
	}
	home := opts.ConfigHome
	if home == "" {
		home, _ = os.UserConfigDir()
	}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, "keyfind", "config.toml"))
	}

	for _, p := range candidates {
		if info, err := opts.FS.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

// defaultsMap renders Default as the base layer for merging.
func defaultsMap() (map[string]any, error) {
	data, err := toml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

// decode converts the merged layers into a Config. Keys that do not name
// a setting are an error.
func decode(merged map[string]any) (*Config, error) {
	data, err := toml.Marshal(merged)
	if err != nil {
		return nil, err
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown setting: %s", strings.TrimSpace(strict.String()))
		}
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	s := c.Search
	switch {
	case s.PollInterval <= 0:
		return &ValidationError{Path: "search.pollInterval", Message: "must be positive", Value: s.PollInterval.Std()}
	case s.MaxLineLength <= 0:
		return &ValidationError{Path: "search.maxLineLength", Message: "must be positive", Value: s.MaxLineLength}
	case s.MaxFileSize < 0:
		return &ValidationError{Path: "search.maxFileSize", Message: "must not be negative", Value: s.MaxFileSize}
	case s.SnippetLength <= 0:
		return &ValidationError{Path: "search.snippetLength", Message: "must be positive", Value: s.SnippetLength}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ValidationError{Path: "logging.level", Message: err.Error(), Value: c.Logging.Level}
	}

	for i, e := range c.FileTypes {
		path := fmt.Sprintf("fileTypes[%d]", i)
		if strings.TrimSpace(e.Name) == "" {
			return &ValidationError{Path: path + ".name", Message: "must not be empty", Value: e.Name}
		}
		if _, err := filetype.Parse(e.String()); err != nil {
			return &ValidationError{Path: path + ".patterns", Message: err.Error(), Value: e.Patterns}
		}
	}

	if s.FileType != "" {
		if _, err := filetype.Lookup(c.Catalog(), s.FileType); err != nil {
			return &ValidationError{Path: "search.fileType", Message: err.Error(), Value: s.FileType}
		}
	}
	return nil
}

// ScanOptions returns the scanner limits.
func (c *Config) ScanOptions() scan.Options {
	return scan.Options{
		MaxLineLength: c.Search.MaxLineLength,
		MaxFileSize:   c.Search.MaxFileSize,
		SnippetLength: c.Search.SnippetLength,
	}
}

// Catalog returns the built-in file types with the configured ones
// merged in. A configured entry replaces a built-in one of the same name.
func (c *Config) Catalog() []filetype.Entry {
	catalog := filetype.DefaultCatalog()
	for _, e := range c.FileTypes {
		replaced := false
		for i := range catalog {
			if strings.EqualFold(catalog[i].Name, e.Name) {
				catalog[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			catalog = append(catalog, e)
		}
	}
	return catalog
}

// LogLevel returns the parsed log level. Validate has already rejected
// unknown names.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}
