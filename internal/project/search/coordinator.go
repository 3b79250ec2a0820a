package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keyfind/internal/logging"
	perrors "github.com/dshills/keyfind/internal/project/errors"
	"github.com/dshills/keyfind/internal/project/search/filetype"
	"github.com/dshills/keyfind/internal/project/search/replace"
	"github.com/dshills/keyfind/internal/project/search/scan"
	"github.com/dshills/keyfind/internal/project/search/sink"
	"github.com/dshills/keyfind/internal/project/search/walk"
	"github.com/dshills/keyfind/internal/project/vfs"
)

// Spawner starts fn on a new goroutine. It must not run fn on the calling
// goroutine.
type Spawner func(fn func()) error

func goSpawner(fn func()) error {
	go fn()
	return nil
}

// Batch is what one Poll returns.
type Batch struct {
	// Records drained from the sink, in production order.
	Records []sink.Record

	// CurrentFile is the file being scanned, empty between runs.
	CurrentFile string

	// Stats are the live counters, or the final ones once State is terminal.
	Stats sink.Stats

	// State is read before the sink is drained: once it is terminal, the
	// FINISHED record is in this batch or an earlier one.
	State State
}

// Progress returns the PROGRESS record for the file being scanned. The hint
// is overwritten rather than queued, so a batch carries at most one.
func (b Batch) Progress() (sink.Record, bool) {
	if b.CurrentFile == "" || b.State.Terminal() {
		return sink.Record{}, false
	}
	return sink.Progress(b.CurrentFile), true
}

// Coordinator runs one search at a time.
type Coordinator struct {
	mu sync.Mutex

	fs       vfs.VFS
	log      *logging.Logger
	scanOpts scan.Options
	sink     *sink.Sink
	spawn    Spawner
	exclude  []string
	catalog  []filetype.Entry

	state  State
	err    error
	runID  string
	req    Request
	final  sink.Stats
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithFS sets the file system. The default is the operating system.
func WithFS(fs vfs.VFS) Option {
	return func(c *Coordinator) { c.fs = fs }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithScanOptions sets the scanner limits.
func WithScanOptions(opts scan.Options) Option {
	return func(c *Coordinator) { c.scanOpts = opts }
}

// WithSink sets the result sink.
func WithSink(s *sink.Sink) Option {
	return func(c *Coordinator) { c.sink = s }
}

// WithRetryWait sets the producer's bounded wait on the default sink.
func WithRetryWait(d time.Duration) Option {
	return func(c *Coordinator) { c.sink = sink.New(sink.WithRetryWait(d)) }
}

// WithSpawner replaces the goroutine launcher.
func WithSpawner(s Spawner) Option {
	return func(c *Coordinator) { c.spawn = s }
}

// WithExcludeDirs skips directories with these base names.
func WithExcludeDirs(names ...string) Option {
	return func(c *Coordinator) { c.exclude = append(c.exclude, names...) }
}

// WithCatalog sets the file type catalog used to resolve Request.FileType.
func WithCatalog(catalog []filetype.Entry) Option {
	return func(c *Coordinator) { c.catalog = catalog }
}

// New creates an idle coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		fs:       vfs.NewOSFS(),
		log:      logging.NullLogger,
		scanOpts: scan.DefaultOptions(),
		spawn:    goSpawner,
		catalog:  filetype.DefaultCatalog(),
		done:     make(chan struct{}),
	}
	close(c.done)
	for _, opt := range opts {
		opt(c)
	}
	if c.sink == nil {
		c.sink = sink.New()
	}
	c.log = c.log.WithComponent("search")
	return c
}

// Start validates req and starts a run. It returns ErrAlreadyRunning while
// a run is active and a *errors.ValidationError for a bad request; both
// leave the coordinator as it was. A spawner failure moves it to
// StateFailed and returns an error matching ErrResourceExhausted.
func (c *Coordinator) Start(ctx context.Context, req Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return perrors.ErrAlreadyRunning
	}
	filter, err := req.Validate(c.fs, c.catalog)
	if err != nil {
		return err
	}

	c.sink.Reset()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	runID := uuid.NewString()
	log := c.log.WithField("run", runID)

	c.state = StateRunning
	c.err = nil
	c.runID = runID
	c.req = req
	c.final = sink.Stats{}
	c.cancel = cancel
	c.done = done

	w := &worker{
		c:      c,
		req:    req,
		filter: filter,
		log:    log,
		done:   done,
		cancel: cancel,
	}
	if err := c.spawn(func() { w.run(runCtx) }); err != nil {
		cancel()
		close(done)
		c.cancel = nil
		c.state = StateFailed
		c.err = fmt.Errorf("%w: %w", perrors.ErrResourceExhausted, err)
		log.Error("start search: %v", err)
		return c.err
	}

	log.Info("search started: pattern=%q root=%s filter=%q recurse=%v replace=%v",
		req.Pattern, req.Root, filter.String(), req.Recurse, req.Replace)
	return nil
}

// Cancel asks the running worker to stop at its next checkpoint. The run
// keeps its partial counts and still ends with a FINISHED record.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning && c.cancel != nil {
		c.log.WithField("run", c.runID).Debug("cancel requested")
		c.cancel()
	}
}

// IsRunning reports whether a run is active.
func (c *Coordinator) IsRunning() bool {
	return c.State() == StateRunning
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that ended the last run in StateFailed.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// RunID identifies the current or last run.
func (c *Coordinator) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Request returns the request of the current or last run.
func (c *Coordinator) Request() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req
}

// Stats returns the live counters, or the final ones after a run.
func (c *Coordinator) Stats() sink.Stats {
	c.mu.Lock()
	state, final := c.state, c.final
	c.mu.Unlock()

	if state.Terminal() {
		return final
	}
	return c.sink.Stats()
}

// Poll drains the records produced since the last call.
func (c *Coordinator) Poll() Batch {
	c.mu.Lock()
	state, final := c.state, c.final
	c.mu.Unlock()

	records, current, stats := c.sink.Snapshot()
	if state.Terminal() {
		stats = final
		current = ""
	}
	return Batch{Records: records, CurrentFile: current, Stats: stats, State: state}
}

// Done returns a channel closed when the current run ends. It is already
// closed when no run is active.
func (c *Coordinator) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Wait blocks until the current run ends or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker is the state of one run, owned by its goroutine.
type worker struct {
	c      *Coordinator
	req    Request
	filter filetype.Filter
	log    *logging.Logger
	done   chan struct{}
	cancel context.CancelFunc

	stats sink.Stats
}

func (w *worker) run(ctx context.Context) {
	defer w.cancel()

	c := w.c
	started := time.Now()
	out := c.sink
	scanner := scan.New(c.fs, w.req.Query(), c.scanOpts)
	replacer := replace.New(c.fs)
	walker := walk.New(c.fs,
		walk.WithExcludeDirs(c.exclude...),
		walk.WithErrorHandler(func(path string, err error) {
			w.log.Warn("skipping %s: %v", path, err)
		}),
	)

	err := walker.Walk(ctx, w.req.Root, w.req.Recurse, func(e walk.Entry) error {
		if !w.filter.Match(e.Rel) {
			return nil
		}
		w.visit(e, scanner, replacer)
		return nil
	})

	state := StateCompleted
	switch {
	case err == nil:
	case errors.Is(err, perrors.ErrSearchCanceled):
		state = StateCancelled
		err = nil
	default:
		state = StateFailed
		w.log.Error("search failed: %v", err)
	}

	// FINISHED is queued before the state turns terminal; see Batch.State.
	out.Finish(w.stats)

	c.mu.Lock()
	c.state = state
	c.err = err
	c.final = w.stats
	c.cancel = nil
	c.mu.Unlock()
	close(w.done)

	w.log.Info("search %s in %v: %d matches, %d replacements in %d of %d files",
		state, time.Since(started).Round(time.Millisecond),
		w.stats.Matches, w.stats.Replacements, w.stats.FilesMatched, w.stats.FilesScanned)
}

func (w *worker) visit(e walk.Entry, scanner *scan.Scanner, replacer *replace.Replacer) {
	out := w.c.sink
	w.stats.FilesScanned++
	out.SetCurrentFile(e.Rel)
	defer func() { out.PublishStats(w.stats) }()

	res, err := scanner.Scan(scan.Target{Path: e.Path, Rel: e.Rel, Size: e.Info.Size()}, out.Push)
	if err != nil {
		// Records of the lines read before the failure are already out.
		w.stats.FilesFailed++
		w.stats.Matches += res.Counts.Matches
		if res.Counts.Matches > 0 {
			w.stats.FilesMatched++
		}
		w.log.Warn("scan %s: %v", e.Rel, err)
		return
	}
	if res.Skipped {
		w.stats.FilesSkipped++
		w.log.Debug("skip %s: %v", e.Rel, res.SkipReason)
		return
	}

	w.stats.Matches += res.Counts.Matches
	if res.Counts.Matches > 0 {
		w.stats.FilesMatched++
	}
	if res.MixedLineEndings {
		w.log.Debug("%s has mixed line endings", e.Rel)
	}
	if !w.req.Replace || res.Counts.Matches == 0 {
		return
	}

	switch {
	case res.Incomplete:
		w.stats.ReplaceFailures++
		w.log.Warn("not replacing in %s: %v", e.Rel, scan.ErrIncompleteLine)
	case e.Symlink:
		w.stats.ReplaceFailures++
		w.log.Warn("not replacing in %s: file is a symbolic link", e.Rel)
	case res.Rewritten != nil:
		err := replacer.Commit(replace.Job{
			Path:     e.Path,
			Content:  res.Rewritten,
			Expected: res.Counts,
			Rewriter: scanner,
		})
		if err != nil {
			w.stats.ReplaceFailures++
			w.log.Error("%v", err)
			return
		}
		w.stats.Replacements += res.Counts.Replacements
	}
}
