package progress

import (
	"context"
	"sync"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

// Subscription is one consumer's view of a job channel.
type Subscription struct {
	mu       sync.Mutex
	queue    []domain.JobState
	finished bool
	err      error

	wake   chan struct{}
	out    chan domain.JobState
	cancel context.CancelFunc
}

// C yields states in publish order and is closed after the terminal signal.
func (s *Subscription) C() <-chan domain.JobState { return s.out }

// Err reports why C was closed: the job's failure, the context error if the
// subscription was cancelled first, or nil on normal completion.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() { s.cancel() }

func (s *Subscription) push(state domain.JobState) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, state)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) finish(err error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.err = err
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) abandon(err error) {
	s.mu.Lock()
	if !s.finished {
		s.finished = true
		s.err = err
	}
	s.queue = nil
	s.mu.Unlock()
}

// run drains the queue into out until the terminal signal has been delivered
// or ctx is cancelled.
func (s *Subscription) run(ctx context.Context, onExit func()) {
	defer close(s.out)
	defer onExit()

	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			next := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- next:
			case <-ctx.Done():
				s.abandon(ctx.Err())
				return
			}
			continue
		}
		if s.finished {
			s.mu.Unlock()
			s.cancel()
			return
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-ctx.Done():
			s.abandon(ctx.Err())
			return
		}
	}
}
