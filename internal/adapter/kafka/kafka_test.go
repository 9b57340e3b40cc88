package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/airquality-ingest-service/internal/config"
	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	state := domain.JobState{
		Status:    domain.StatusCompleted,
		Progress:  100,
		Processed: 9357,
		Skipped:   114,
		Total:     9471,
		Timestamp: now,
	}

	msg, err := serializeToMessage("job-1", state)
	require.NoError(t, err)

	assert.Equal(t, []byte("job-1"), msg.Key)
	assert.JSONEq(t, `{
		"job_id": "job-1",
		"status": "completed",
		"progress": 100,
		"processed": 9357,
		"skipped": 114,
		"total": 9471,
		"timestamp": "2024-04-26T15:10:00Z"
	}`, string(msg.Value))
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("completed"), msg.Headers[0].Value)
	assert.Equal(t, "finished_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_IncludesError(t *testing.T) {
	msg, err := serializeToMessage("job-2", domain.JobState{Status: domain.StatusError, Error: "disk full"})
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"error":"disk full"`)
	assert.Equal(t, []byte("error"), msg.Headers[0].Value)
}

func TestProgressWriter_NotifyState(t *testing.T) {
	fake := &fakeWriter{}
	w := &ProgressWriter{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.NotifyState(context.Background(), "job-1", domain.JobState{Status: domain.StatusCompleted}))
	require.Len(t, fake.msgs, 1)
	assert.Equal(t, []byte("job-1"), fake.msgs[0].Key)

	fake.err = errors.New("broker down")
	err := w.NotifyState(context.Background(), "job-1", domain.JobState{})
	require.ErrorIs(t, err, fake.err)

	require.NoError(t, w.Close())
	assert.True(t, fake.closed)
}

func TestNewProgressWriter_UsesConfig(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaProgressTopic: "ingestion-progress"}
	w := NewProgressWriter(cfg, slog.Default())

	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "ingestion-progress", kw.Topic)
	assert.Equal(t, "localhost:9092", kw.Addr.String())
}
