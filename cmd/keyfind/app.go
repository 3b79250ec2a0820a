package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dshills/keyfind/internal/config"
	"github.com/dshills/keyfind/internal/logging"
	"github.com/dshills/keyfind/internal/project/search"
)

// Exit codes.
const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

// errCancelled ends a run stopped by a signal.
var errCancelled = errors.New("search cancelled")

type flags struct {
	replace    string
	fileType   string
	recurse    bool
	word       bool
	matchCase  bool
	configPath string
	logLevel   string
	json       bool
	noColor    bool
	listTypes  bool
	poll       time.Duration
}

// app holds what one invocation writes to and reads from.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	loadOpts config.LoadOptions
	terminal func(io.Writer) bool
	code     int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		terminal: isTerminal,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// run executes the command line and returns the exit code.
func (a *app) run(ctx context.Context, args []string) int {
	a.code = exitError
	cmd := a.command()
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "keyfind: %v\n", err)
		return exitError
	}
	return a.code
}

func (a *app) command() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "keyfind PATTERN [DIR]",
		Short: "Find and replace literal text across a directory tree",
		Long: `keyfind searches every file under DIR (default ".") for PATTERN, a literal
string, and prints each matching line. With --replace it rewrites matching
files in place; a file is only replaced when it still holds what was scanned.

Defaults come from --config, ./.keyfind.toml, ./.keyfind.yaml or the user
config file, then from KEYFIND_* environment variables; flags override both.

Exit status is 0 when something matched, 1 when nothing did and 2 on error.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if f.listTypes {
				return cobra.MaximumNArgs(0)(cmd, args)
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.search(cmd, args, &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.replace, "replace", "r", "", "replace every match with `TEXT` (may be empty)")
	fl.StringVarP(&f.fileType, "type", "t", "", "file type name or filter, e.g. Go or \"*.c;*.h\"")
	fl.BoolVarP(&f.recurse, "recurse", "R", true, "search subdirectories")
	fl.BoolVarP(&f.word, "word", "w", false, "match whole words only")
	fl.BoolVarP(&f.matchCase, "case", "c", false, "match case")
	fl.StringVar(&f.configPath, "config", "", "read settings from `FILE`")
	fl.StringVar(&f.logLevel, "log-level", "", "log `LEVEL`: debug, info, warn or error")
	fl.BoolVar(&f.json, "json", false, "print one JSON object per record")
	fl.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fl.BoolVar(&f.listTypes, "list-types", false, "list the known file types and exit")
	fl.DurationVar(&f.poll, "poll", 0, "result polling `INTERVAL` (default from config)")
	return cmd
}

// settings merges the flags that were set into the loaded configuration.
func (a *app) settings(cmd *cobra.Command, f *flags) (*config.Config, error) {
	opts := a.loadOpts
	opts.Path = f.configPath
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("recurse") {
		cfg.Search.Recurse = f.recurse
	}
	if fl.Changed("word") {
		cfg.Search.WholeWord = f.word
	}
	if fl.Changed("case") {
		cfg.Search.MatchCase = f.matchCase
	}
	if fl.Changed("type") {
		cfg.Search.FileType = f.fileType
	}
	if fl.Changed("poll") {
		cfg.Search.PollInterval = config.Duration(f.poll)
	}
	if fl.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if fl.Changed("json") {
		cfg.Output.JSON = f.json
	}
	if f.noColor {
		cfg.Output.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) search(cmd *cobra.Command, args []string, f *flags) error {
	cfg, err := a.settings(cmd, f)
	if err != nil {
		return err
	}

	if f.listTypes {
		for _, e := range cfg.Catalog() {
			fmt.Fprintln(a.stdout, e.String())
		}
		a.code = exitMatch
		return nil
	}

	root := "."
	if len(args) > 1 {
		root = args[1]
	}
	req := search.Request{
		Pattern:     args[0],
		Replace:     cmd.Flags().Changed("replace"),
		Replacement: f.replace,
		FileType:    cfg.Search.FileType,
		Root:        root,
		Recurse:     cfg.Search.Recurse,
		WholeWord:   cfg.Search.WholeWord,
		MatchCase:   cfg.Search.MatchCase,
	}

	log := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: a.stderr,
		Prefix: "keyfind",
	})
	if cfg.Source != "" {
		log.Debug("config loaded from %s", cfg.Source)
	}

	coord := search.New(
		search.WithLogger(log),
		search.WithScanOptions(cfg.ScanOptions()),
		search.WithExcludeDirs(cfg.Search.ExcludeDirs...),
		search.WithCatalog(cfg.Catalog()),
	)

	ctx := cmd.Context()
	started := time.Now()
	if err := coord.Start(ctx, req); err != nil {
		return err
	}

	p := newPrinter(a.stdout, a.stderr, req, printerOptions{
		json:     cfg.Output.JSON,
		color:    cfg.Output.Color,
		progress: !cfg.Output.JSON && a.terminal(a.stderr),
	})
	a.poll(ctx, coord, p, cfg.Search.PollInterval.Std())

	// The worker publishes FINISHED just before it records the final state.
	_ = coord.Wait(context.Background())
	state := coord.State()
	stats := coord.Stats()
	p.summary(state, stats, search.Hints(req, stats), time.Since(started))

	switch state {
	case search.StateFailed:
		return coord.Err()
	case search.StateCancelled:
		return errCancelled
	}
	if stats.Matches > 0 {
		a.code = exitMatch
	} else {
		a.code = exitNoMatch
	}
	return nil
}

// poll drains the coordinator on every tick until the run's FINISHED
// record has been printed. A done ctx cancels the run once.
func (a *app) poll(ctx context.Context, coord *search.Coordinator, p *printer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	interrupt := ctx.Done()
	for {
		select {
		case <-interrupt:
			coord.Cancel()
			interrupt = nil
		case <-ticker.C:
		}

		batch := coord.Poll()
		if p.batch(batch) || batch.State.Terminal() {
			return
		}
	}
}
