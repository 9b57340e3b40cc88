package pipeline

import (
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/progress"
)

// job holds the mutable state of one ingestion run. After Start hands it to
// the run goroutine, only that goroutine touches it.
type job struct {
	id    string
	ch    *progress.Channel
	clock clockwork.Clock
	state domain.JobState
}

func newJob(id string, ch *progress.Channel, clock clockwork.Clock) *job {
	j := &job{id: id, ch: ch, clock: clock}
	j.update(func(s *domain.JobState) { s.Status = domain.StatusIdle })
	return j
}

// update applies fn, stamps the state, and publishes a copy.
func (j *job) update(fn func(*domain.JobState)) {
	fn(&j.state)
	j.state.Timestamp = j.clock.Now().UTC()
	j.ch.Publish(j.state)
}

func (j *job) snapshot() domain.JobState {
	return j.state
}
