// Package publish exports newly cached news items to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/assembly-news-radar/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes one message per item, keyed by content id.
type Kafka struct {
	w     messageWriter
	topic string
}

// NewKafka creates a publisher for topic on brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}
	return &Kafka{w: w, topic: topic}
}

// Publish sends items tagged with the pipeline run id.
func (k *Kafka) Publish(ctx context.Context, runID string, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	msgs, err := buildMessages(runID, items, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := k.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.w.Close()
}

func buildMessages(runID string, items []models.NewsItem, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(items))
	for _, it := range items {
		payload, err := json.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("marshal item %s: %w", it.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(it.ID),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(runID)},
				{Key: "keyword", Value: []byte(it.Keyword)},
				{Key: "timestamp", Value: []byte(now.Format(time.RFC3339))},
			},
		})
	}
	return msgs, nil
}
