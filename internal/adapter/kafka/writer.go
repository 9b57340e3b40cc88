package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/airquality-ingest-service/internal/config"
	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

// ProgressWriter publishes terminal ingestion job states to a Kafka topic.
// It implements pipeline.StateNotifier.
type ProgressWriter struct {
	writer messageWriter
	logger *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// progressEvent is the JSON value of a progress message.
type progressEvent struct {
	JobID     string           `json:"job_id"`
	Status    domain.JobStatus `json:"status"`
	Progress  int              `json:"progress"`
	Processed int              `json:"processed"`
	Skipped   int              `json:"skipped"`
	Total     int              `json:"total"`
	Timestamp time.Time        `json:"timestamp"`
	Error     string           `json:"error,omitempty"`
}

// NewProgressWriter creates a Kafka producer for the configured progress topic.
func NewProgressWriter(cfg *config.Config, logger *slog.Logger) *ProgressWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaProgressTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &ProgressWriter{writer: w, logger: logger}
}

// NotifyState publishes one job state keyed by job id, so every event of a
// job lands on the same partition.
func (w *ProgressWriter) NotifyState(ctx context.Context, jobID string, state domain.JobState) error {
	msg, err := serializeToMessage(jobID, state)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish job state: %w", err)
	}
	w.logger.Debug("job state published", "job_id", jobID, "status", state.Status)
	return nil
}

func (w *ProgressWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a job state into a Kafka message.
func serializeToMessage(jobID string, state domain.JobState) (kafkago.Message, error) {
	data, err := json.Marshal(progressEvent{
		JobID:     jobID,
		Status:    state.Status,
		Progress:  state.Progress,
		Processed: state.Processed,
		Skipped:   state.Skipped,
		Total:     state.Total,
		Timestamp: state.Timestamp,
		Error:     state.Error,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize job state: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(jobID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(state.Status)},
			{Key: "finished_at", Value: []byte(state.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
