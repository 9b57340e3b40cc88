package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/observability"
	"github.com/couchcryptid/airquality-ingest-service/internal/progress"
)

// Defaults applied when an upload does not specify its own options.
const (
	DefaultSeparator = ';'
	DefaultChunkSize = 500
)

const notifyTimeout = 5 * time.Second

// BatchLoader writes one bounded batch of measurements in a single operation.
type BatchLoader interface {
	SaveAll(ctx context.Context, rows []domain.Measurement) error
}

// StateNotifier receives the terminal state of every job.
type StateNotifier interface {
	NotifyState(ctx context.Context, jobID string, state domain.JobState) error
}

// Options controls how a single upload is decoded and persisted. Zero fields
// fall back to the orchestrator defaults.
type Options struct {
	Separator rune
	ChunkSize int
}

// Orchestrator runs ingestion jobs: a counting pass, a normalizing pass, and a
// chunked flush, publishing job state through the progress registry.
type Orchestrator struct {
	loader      BatchLoader
	registry    *progress.Registry
	transformer *RowTransformer
	notifiers   []StateNotifier
	defaults    Options
	clock       clockwork.Clock
	newID       func() string
	logger      *slog.Logger
	metrics     *observability.Metrics
	wg          sync.WaitGroup
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithClock swaps the time source used for state timestamps.
func WithClock(c clockwork.Clock) Option { return func(o *Orchestrator) { o.clock = c } }

// WithLocation sets the time zone rows' date and time are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) { o.transformer = NewRowTransformer(loc) }
}

// WithDefaults overrides the separator and chunk size used when an upload
// leaves them unset.
func WithDefaults(opts Options) Option {
	return func(o *Orchestrator) {
		if opts.Separator != 0 {
			o.defaults.Separator = opts.Separator
		}
		if opts.ChunkSize > 0 {
			o.defaults.ChunkSize = opts.ChunkSize
		}
	}
}

// WithNotifier registers a receiver for terminal job states.
func WithNotifier(n StateNotifier) Option {
	return func(o *Orchestrator) { o.notifiers = append(o.notifiers, n) }
}

// WithIDGenerator replaces the job identifier source.
func WithIDGenerator(fn func() string) Option { return func(o *Orchestrator) { o.newID = fn } }

// New creates an Orchestrator persisting through loader and publishing to registry.
func New(loader BatchLoader, registry *progress.Registry, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		loader:      loader,
		registry:    registry,
		transformer: NewRowTransformer(time.UTC),
		defaults:    Options{Separator: DefaultSeparator, ChunkSize: DefaultChunkSize},
		clock:       clockwork.NewRealClock(),
		newID:       uuid.NewString,
		logger:      logger,
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start registers a new job for data and processes it asynchronously. It
// returns as soon as the job is registered. data must not be modified
// afterwards.
func (o *Orchestrator) Start(data []byte, opts Options) (string, error) {
	opts, err := o.resolve(opts)
	if err != nil {
		return "", err
	}

	id := o.newID()
	ch, err := o.registry.Open(id)
	if err != nil {
		return "", fmt.Errorf("open progress channel: %w", err)
	}

	j := newJob(id, ch, o.clock)
	o.metrics.JobsStarted.Inc()
	o.logger.Info("ingestion started", "job_id", id, "bytes", len(data),
		"separator", string(opts.Separator), "chunk_size", opts.ChunkSize)

	o.wg.Add(1)
	go o.run(j, data, opts)
	return id, nil
}

// Subscribe attaches to the progress stream of a job.
func (o *Orchestrator) Subscribe(ctx context.Context, jobID string) (*progress.Subscription, error) {
	return o.registry.Subscribe(ctx, jobID)
}

// Wait blocks until every started job has reached a terminal state.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) resolve(opts Options) (Options, error) {
	if opts.Separator == 0 {
		opts.Separator = o.defaults.Separator
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = o.defaults.ChunkSize
	}
	if opts.ChunkSize < 0 {
		return opts, fmt.Errorf("%w: %d", domain.ErrInvalidChunkSize, opts.ChunkSize)
	}
	if !validSeparator(opts.Separator) {
		return opts, fmt.Errorf("%w: %q", domain.ErrInvalidSeparator, opts.Separator)
	}
	return opts, nil
}

func (o *Orchestrator) run(j *job, data []byte, opts Options) {
	defer o.wg.Done()

	logger := o.logger.With("job_id", j.id)
	started := o.clock.Now()
	o.metrics.JobsActive.Inc()
	defer o.metrics.JobsActive.Dec()

	// No cancellation is exposed: a job runs to completion or failure.
	err := o.process(context.Background(), j, data, opts, logger)
	o.metrics.JobDuration.Observe(o.clock.Since(started).Seconds())

	if err != nil {
		o.fail(j, err, logger)
		return
	}
	o.complete(j, logger)
}

func (o *Orchestrator) process(ctx context.Context, j *job, data []byte, opts Options, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ingestion panic: %v", r)
		}
	}()

	j.update(func(s *domain.JobState) {
		s.Status = domain.StatusProcessing
		s.Progress = 0
	})

	total, err := countRows(data, opts.Separator)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	j.update(func(s *domain.JobState) { s.Total = total })
	logger.Debug("rows counted", "total", total)

	rows, err := o.normalize(j, data, opts.Separator, total)
	if err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}

	return o.flush(ctx, rows, opts.ChunkSize, logger)
}

// normalize runs the second pass, publishing progress after every row.
func (o *Orchestrator) normalize(j *job, data []byte, sep rune, total int) ([]domain.Measurement, error) {
	rows := make([]domain.Measurement, 0, total)
	iterated := 0

	err := eachRecord(data, sep, func(rec Record) {
		iterated++
		if m, err := o.transformer.Transform(rec); err == nil {
			rows = append(rows, m)
		}
		j.update(func(s *domain.JobState) {
			s.Processed = len(rows)
			s.Skipped = iterated - len(rows)
			s.Progress = percent(iterated, total)
		})
	})

	o.metrics.RowsParsed.Add(float64(iterated))
	o.metrics.RowsSkipped.Add(float64(iterated - len(rows)))
	return rows, err
}

// flush hands rows to the loader in consecutive chunks, one at a time.
func (o *Orchestrator) flush(ctx context.Context, rows []domain.Measurement, chunkSize int, logger *slog.Logger) error {
	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))
		began := o.clock.Now()

		if err := o.loader.SaveAll(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("save rows %d-%d: %w", start, end-1, err)
		}

		o.metrics.ChunkWriteDuration.Observe(o.clock.Since(began).Seconds())
		o.metrics.RowsPersisted.Add(float64(end - start))
		logger.Debug("chunk persisted", "chunk", start/chunkSize, "rows", end-start)
	}
	return nil
}

func (o *Orchestrator) complete(j *job, logger *slog.Logger) {
	j.update(func(s *domain.JobState) {
		s.Status = domain.StatusCompleted
		s.Progress = 100
	})
	j.ch.Complete()
	o.metrics.JobsFinished.WithLabelValues(string(domain.StatusCompleted)).Inc()

	final := j.snapshot()
	logger.Info("ingestion completed",
		"processed", final.Processed, "skipped", final.Skipped, "total", final.Total)
	o.notify(j.id, final, logger)
}

func (o *Orchestrator) fail(j *job, err error, logger *slog.Logger) {
	j.update(func(s *domain.JobState) {
		s.Status = domain.StatusError
		s.Error = err.Error()
	})
	j.ch.Fail(err)
	o.metrics.JobsFinished.WithLabelValues(string(domain.StatusError)).Inc()

	logger.Error("ingestion failed", "error", err)
	o.notify(j.id, j.snapshot(), logger)
}

func (o *Orchestrator) notify(jobID string, state domain.JobState, logger *slog.Logger) {
	if len(o.notifiers) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	for _, n := range o.notifiers {
		if err := n.NotifyState(ctx, jobID, state); err != nil {
			logger.Warn("state notification failed", "error", err)
		}
	}
}

// percent is the share of rows iterated, held below 100 until completion.
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return min(done*100/total, 99)
}
