package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/dengue-data-service/internal/config"
	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// Reader consumes record change events from the change topic.
type Reader struct {
	reader messageReader
	logger *slog.Logger
}

// NewReader creates a consumer in groupID for the configured change topic.
// An empty groupID reads the topic from the latest offset without committing.
func NewReader(cfg *config.Config, groupID string, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaChangeTopic,
		GroupID:     groupID,
		StartOffset: kafkago.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Reader{reader: r, logger: logger}
}

// Next blocks until the next change event arrives. Messages that do not
// decode are logged and skipped.
func (r *Reader) Next(ctx context.Context) (domain.ChangeEvent, error) {
	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			return domain.ChangeEvent{}, fmt.Errorf("read change event: %w", err)
		}
		event, err := deserializeMessage(msg)
		if err != nil {
			r.logger.Warn("skipping undecodable change event",
				"error", err, "partition", msg.Partition, "offset", msg.Offset)
			continue
		}
		return event, nil
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func deserializeMessage(msg kafkago.Message) (domain.ChangeEvent, error) {
	var event domain.ChangeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("decode change event: %w", err)
	}
	if event.RecordID == "" {
		event.RecordID = string(msg.Key)
	}
	return event, nil
}
