// Package bulk loads many RDF documents into one destination using a pool
// of workers.
package bulk

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/rdfio"
	"github.com/aleksaelezovic/quadstream/pkg/store"
)

// Policy decides what a failing document does to the rest of the job.
type Policy string

const (
	// Skip records the failure and carries on with the next file.
	Skip Policy = "skip"
	// Abort stops every worker after the file it is working on.
	Abort Policy = "abort"
)

// ParsePolicy accepts "skip", "abort" or an empty string, which means Skip.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Skip:
		return Skip, nil
	case Abort:
		return Abort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

const (
	DefaultWorkers   = 4
	DefaultBatchSize = 1000
)

type Config struct {
	Workers   int
	BatchSize int
	OnError   Policy
	// Settings are handed to every parser the loader creates.
	Settings parsing.Settings
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.OnError == "" {
		c.OnError = Skip
	}
	return c
}

// Option configures a Loader.
type Option func(*Loader)

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithFs opens files through fs instead of the operating system.
func WithFs(fs afero.Fs) Option {
	return func(l *Loader) { l.fs = fs }
}

// WithRegisterer registers the loader's metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(l *Loader) { l.registerer = r }
}

func WithJobID(id string) Option {
	return func(l *Loader) { l.jobID = id }
}

// LoadRecorder is implemented by destinations that keep a manifest of the
// files loaded into them.
type LoadRecorder interface {
	RecordLoad(rec store.LoadRecord) error
}

// Failure is a document that could not be loaded.
type Failure struct {
	File string
	Err  error
}

func (f Failure) Error() string { return f.File + ": " + f.Err.Error() }

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes a Run.
type Report struct {
	JobID    string
	Files    int
	Quads    int
	Failures []Failure
	Took     time.Duration
}

// Loader parses queued files into a shared destination. The destination
// must accept concurrent InsertQuadsBatch calls.
type Loader struct {
	dest       store.QuadWriter
	config     Config
	logger     *zap.Logger
	fs         afero.Fs
	registerer prometheus.Registerer
	jobID      string
	metrics    *metrics

	mu    sync.Mutex
	queue *linkedlistqueue.Queue

	terminated parsing.Latch

	reportMu sync.Mutex
	report   Report
}

func NewLoader(dest store.QuadWriter, config Config, opts ...Option) (*Loader, error) {
	l := &Loader{
		dest:    dest,
		config:  config.withDefaults(),
		logger:  zap.NewNop(),
		fs:      afero.NewOsFs(),
		queue:   linkedlistqueue.New(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.jobID == "" {
		l.jobID = uuid.NewString()
	}
	if l.registerer != nil {
		if err := l.metrics.register(l.registerer); err != nil {
			return nil, fmt.Errorf("failed to register loader metrics: %w", err)
		}
	}
	if l.config.OnError != Skip && l.config.OnError != Abort {
		return nil, fmt.Errorf("unknown failure policy %q", l.config.OnError)
	}
	l.logger = l.logger.With(zap.String("job", l.jobID))
	return l, nil
}

func (l *Loader) JobID() string { return l.jobID }

// Enqueue appends files to the pending queue. It may be called while Run is
// in progress.
func (l *Loader) Enqueue(files ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range files {
		l.queue.Enqueue(f)
	}
}

// Clear drops every file that has not been picked up yet.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue.Clear()
}

// Pending returns the number of files still queued.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Size()
}

// Terminate asks every worker to stop once its current file is done.
func (l *Loader) Terminate() { l.terminated.Set() }

func (l *Loader) Terminated() bool { return l.terminated.Load() }

func (l *Loader) next() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.queue.Dequeue()
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Run starts the workers and waits until the queue is drained or the job
// is terminated. With the Skip policy the returned error combines every
// failure; with Abort it is the first one.
func (l *Loader) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	l.logger.Info("bulk load started",
		zap.Int("workers", l.config.Workers),
		zap.Int("files", l.Pending()),
		zap.String("on-error", string(l.config.OnError)))

	// in-flight documents are never cancelled by another worker's failure
	var g errgroup.Group
	for i := 0; i < l.config.Workers; i++ {
		id := i + 1
		g.Go(func() error {
			return l.work(ctx, id)
		})
	}
	runErr := g.Wait()

	l.reportMu.Lock()
	report := l.report
	report.JobID = l.jobID
	report.Failures = append([]Failure(nil), l.report.Failures...)
	l.reportMu.Unlock()
	report.Took = time.Since(start)

	if runErr == nil && l.config.OnError == Skip {
		for _, f := range report.Failures {
			runErr = multierr.Append(runErr, f)
		}
	}
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}

	l.logger.Info("bulk load finished",
		zap.Int("files", report.Files),
		zap.Int("quads", report.Quads),
		zap.Int("failures", len(report.Failures)),
		zap.Bool("terminated", l.Terminated()),
		zap.Duration("took", report.Took))
	return &report, runErr
}

func (l *Loader) work(ctx context.Context, id int) error {
	logger := l.logger.With(zap.Int("worker", id))
	for {
		if ctx.Err() != nil {
			l.Terminate()
		}
		if l.Terminated() {
			return nil
		}
		file, ok := l.next()
		if !ok {
			return nil
		}

		l.metrics.busyWorkers.Inc()
		n, took, err := l.loadFile(ctx, file)
		l.metrics.busyWorkers.Dec()
		l.finish(logger, file, n, took, err)

		if err != nil && l.config.OnError == Abort {
			l.Terminate()
			return Failure{File: file, Err: err}
		}
	}
}

func (l *Loader) finish(logger *zap.Logger, file string, n int, took time.Duration, err error) {
	l.metrics.parseSeconds.Observe(took.Seconds())
	l.metrics.quads.Add(float64(n))

	l.reportMu.Lock()
	l.report.Files++
	l.report.Quads += n
	if err != nil {
		l.report.Failures = append(l.report.Failures, Failure{File: file, Err: err})
	}
	l.reportMu.Unlock()

	if err != nil {
		l.metrics.files.WithLabelValues(resultFailed).Inc()
		logger.Warn("failed to load file", zap.String("file", file), zap.Error(err))
	} else {
		l.metrics.files.WithLabelValues(resultOK).Inc()
		logger.Debug("loaded file", zap.String("file", file), zap.Int("quads", n), zap.Duration("took", took))
	}

	if recorder, ok := l.dest.(LoadRecorder); ok {
		rec, recErr := store.NewLoadRecord(l.jobID, file, n, took, err)
		if recErr == nil {
			recErr = recorder.RecordLoad(rec)
		}
		if recErr != nil {
			logger.Warn("failed to record load", zap.String("file", file), zap.Error(recErr))
		}
	}
}

// loadFile parses one document with a parser of its own and reports how
// many statements reached the destination.
func (l *Loader) loadFile(ctx context.Context, file string) (int, time.Duration, error) {
	start := time.Now()
	parser, err := rdfio.ForFile(file, l.config.Settings)
	if err != nil {
		return 0, time.Since(start), err
	}

	f, err := l.fs.Open(file)
	if err != nil {
		return 0, time.Since(start), fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	sink := newBatchSink(l.dest, l.config.BatchSize)
	err = parser.Parse(ctx, f, sink)
	if err == nil && sink.err != nil {
		err = fmt.Errorf("failed to write to destination: %w", sink.err)
	}
	return sink.count, time.Since(start), err
}
