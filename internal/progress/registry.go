// Package progress fans ingestion job states out to any number of
// subscribers. Each job owns a Channel that replays its most recent states to
// late subscribers and terminates exactly once, by completion or failure.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/observability"
)

// DefaultReplaySize is the number of past states replayed to a new subscriber.
const DefaultReplaySize = 50

// Registry maps job identifiers to their broadcast channels. Finished jobs are
// evicted after the retention period; a zero retention keeps them for the life
// of the process.
type Registry struct {
	mu        sync.Mutex
	channels  map[string]*Channel
	replay    int
	retention time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option customises a Registry.
type Option func(*Registry)

// WithReplaySize sets how many past states a late subscriber receives.
func WithReplaySize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.replay = n
		}
	}
}

// WithRetention sets how long a finished job stays subscribable.
func WithRetention(d time.Duration) Option { return func(r *Registry) { r.retention = d } }

// WithClock swaps the time source used for eviction.
func WithClock(c clockwork.Clock) Option { return func(r *Registry) { r.clock = c } }

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Registry {
	r := &Registry{
		channels: make(map[string]*Channel),
		replay:   DefaultReplaySize,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open creates the channel for a new job.
func (r *Registry) Open(jobID string) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[jobID]; ok {
		return nil, fmt.Errorf("progress channel %q already open", jobID)
	}
	ch := newChannel(r.replay, r.metrics, func() { r.finished(jobID) })
	r.channels[jobID] = ch
	r.metrics.TrackedJobs.Set(float64(len(r.channels)))
	return ch, nil
}

// Subscribe attaches to a job's channel. The subscription first yields the
// replay buffer, then live states, and closes after the terminal signal.
// Unknown jobs yield an error wrapping domain.ErrJobNotFound.
func (r *Registry) Subscribe(ctx context.Context, jobID string) (*Subscription, error) {
	r.mu.Lock()
	ch, ok := r.channels[jobID]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}
	return ch.Subscribe(ctx), nil
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

func (r *Registry) finished(jobID string) {
	if r.retention <= 0 {
		return
	}
	r.clock.AfterFunc(r.retention, func() { r.evict(jobID) })
}

func (r *Registry) evict(jobID string) {
	r.mu.Lock()
	delete(r.channels, jobID)
	n := len(r.channels)
	r.mu.Unlock()

	r.metrics.TrackedJobs.Set(float64(n))
	r.logger.Debug("progress channel evicted", "job_id", jobID)
}
