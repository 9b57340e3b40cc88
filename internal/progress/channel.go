package progress

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/observability"
)

// errJobFailed stands in when a channel is failed without a cause.
var errJobFailed = errors.New("ingestion failed")

// Channel is the broadcast primitive for a single job: a bounded replay
// buffer plus the set of live subscribers. Publishing never blocks on slow
// subscribers; each subscription queues its own backlog.
type Channel struct {
	mu      sync.Mutex
	history []domain.JobState
	limit   int
	subs    map[*Subscription]struct{}
	closed  bool
	err     error
	onClose func()
	metrics *observability.Metrics
}

func newChannel(limit int, metrics *observability.Metrics, onClose func()) *Channel {
	return &Channel{
		history: make([]domain.JobState, 0, limit),
		limit:   limit,
		subs:    make(map[*Subscription]struct{}),
		onClose: onClose,
		metrics: metrics,
	}
}

// Publish records a state and delivers it to every current subscriber.
// States published after termination are dropped.
func (c *Channel) Publish(state domain.JobState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if len(c.history) == c.limit {
		copy(c.history, c.history[1:])
		c.history[len(c.history)-1] = state
	} else {
		c.history = append(c.history, state)
	}
	for sub := range c.subs {
		sub.push(state)
	}
}

// Complete terminates the channel normally.
func (c *Channel) Complete() { c.terminate(nil) }

// Fail terminates the channel with an error.
func (c *Channel) Fail(err error) {
	if err == nil {
		err = errJobFailed
	}
	c.terminate(err)
}

// Closed reports whether the channel has terminated.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) terminate(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	subs := c.subs
	c.subs = make(map[*Subscription]struct{})
	c.mu.Unlock()

	for sub := range subs {
		sub.finish(err)
	}
	if c.onClose != nil {
		c.onClose()
	}
}

// Subscribe attaches a new subscriber. Cancelling ctx or calling Close on the
// subscription detaches it.
func (c *Channel) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		wake:   make(chan struct{}, 1),
		out:    make(chan domain.JobState),
		cancel: cancel,
	}

	c.mu.Lock()
	sub.queue = append(sub.queue, c.history...)
	if c.closed {
		sub.finished = true
		sub.err = c.err
	} else {
		c.subs[sub] = struct{}{}
	}
	c.mu.Unlock()

	c.metrics.ProgressSubscribers.Inc()
	go sub.run(ctx, func() {
		c.unsubscribe(sub)
		c.metrics.ProgressSubscribers.Dec()
	})
	return sub
}

func (c *Channel) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	delete(c.subs, sub)
	c.mu.Unlock()
}
