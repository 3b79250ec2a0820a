package sink

import (
	"sync"
	"time"
)

// MaxResults is the number of match records a run may queue before the
// TooManyResults sentinel replaces further output.
const MaxResults = 16383

// DefaultRetryWait is how long the producer waits before its second and
// final attempt to take a contended lock.
const DefaultRetryWait = 2 * time.Millisecond

// Sink is a capacity-bounded queue of records shared by one producer (the
// search worker) and one consumer (the polling caller).
//
// The producer never blocks on the consumer: it tries the lock, waits
// RetryWait once, tries again, and otherwise keeps records in a private
// pending buffer that is flushed on a later push. Only Finish, which ends
// a run, takes the lock unconditionally.
type Sink struct {
	mu      sync.Mutex
	records []Record
	current string
	stats   Stats

	// Producer-owned; touched only by the worker goroutine, or by Reset
	// while no worker runs.
	pending  []Record
	accepted int
	capped   bool
	live     Stats
	liveFile string
	dirty    bool

	max       int
	retryWait time.Duration
}

// Option configures a Sink.
type Option func(*Sink)

// WithMaxResults overrides the match cap.
func WithMaxResults(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithRetryWait overrides the producer's bounded wait.
func WithRetryWait(d time.Duration) Option {
	return func(s *Sink) {
		if d >= 0 {
			s.retryWait = d
		}
	}
}

// New creates an empty sink.
func New(opts ...Option) *Sink {
	s := &Sink{
		max:       MaxResults,
		retryWait: DefaultRetryWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push queues a match record. It returns false once the cap has been
// reached; the first refused push queues a single TooManyResults record.
func (s *Sink) Push(r Record) bool {
	if s.capped {
		return false
	}
	if s.accepted >= s.max {
		s.capped = true
		s.pending = append(s.pending, TooManyResults())
		s.dirty = true
		s.flush()
		return false
	}
	s.accepted++
	s.pending = append(s.pending, r)
	s.dirty = true
	s.flush()
	return true
}

// Capped reports whether the cap has been reached. Producer side only.
func (s *Sink) Capped() bool {
	return s.capped
}

// SetCurrentFile publishes the file being scanned. The hint is overwritten,
// never queued.
func (s *Sink) SetCurrentFile(path string) {
	s.liveFile = path
	s.dirty = true
	s.flush()
}

// PublishStats publishes live counters for progress display.
func (s *Sink) PublishStats(stats Stats) {
	s.live = stats
	s.dirty = true
	s.flush()
}

// Finish queues the terminal record carrying stats and flushes everything
// pending. It is the last producer call of a run.
func (s *Sink) Finish(stats Stats) {
	s.live = stats
	s.liveFile = ""
	s.pending = append(s.pending, Finished(stats))

	s.mu.Lock()
	s.publishLocked()
	s.mu.Unlock()
}

// DrainAll atomically takes every queued record.
func (s *Sink) DrainAll() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.records
	s.records = nil
	return out
}

// CurrentFile returns the most recently published file hint.
func (s *Sink) CurrentFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Stats returns the most recently published counters.
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Snapshot drains the queue and returns it with the current hint and
// counters under a single lock acquisition.
func (s *Sink) Snapshot() ([]Record, string, Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.records
	s.records = nil
	return out, s.current, s.stats
}

// Reset clears the sink for a new run. It must not be called while a
// producer is active.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.current = ""
	s.stats = Stats{}
	s.pending = nil
	s.accepted = 0
	s.capped = false
	s.live = Stats{}
	s.liveFile = ""
	s.dirty = false
}

// flush moves pending producer state into the shared queue if the lock can
// be had within one bounded retry.
func (s *Sink) flush() {
	if !s.dirty {
		return
	}
	if !s.mu.TryLock() {
		if s.retryWait > 0 {
			time.Sleep(s.retryWait)
		}
		if !s.mu.TryLock() {
			return
		}
	}
	s.publishLocked()
	s.mu.Unlock()
}

func (s *Sink) publishLocked() {
	if len(s.pending) > 0 {
		s.records = append(s.records, s.pending...)
		s.pending = s.pending[:0]
	}
	s.current = s.liveFile
	s.stats = s.live
	s.dirty = false
}
