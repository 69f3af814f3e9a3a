package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/abhishek622/filmsocial/social/pkg/model"
)

const pollTimeout = 500 * time.Millisecond

// ErrInvalidEvent is returned when a message is not a usable graph event.
var ErrInvalidEvent = errors.New("invalid graph event")

// Ingester defines a Kafka ingester of graph events.
type Ingester struct {
	consumer *kafka.Consumer
	topic    string
	logger   *zap.Logger
}

// NewIngester creates a new Kafka ingester.
func NewIngester(addr, groupID, topic string, logger *zap.Logger) (*Ingester, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": addr,
		"group.id":          groupID,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, err
	}
	return &Ingester{consumer, topic, logger}, nil
}

// Ingest starts ingestion from Kafka and returns a channel of graph events.
// The channel is closed and the consumer shut down once ctx is done.
func (i *Ingester) Ingest(ctx context.Context) (chan model.GraphEvent, error) {
	if err := i.consumer.SubscribeTopics([]string{i.topic}, nil); err != nil {
		return nil, err
	}
	ch := make(chan model.GraphEvent, 1)
	go func() {
		defer func() {
			close(ch)
			if err := i.consumer.Close(); err != nil {
				i.logger.Warn("Failed to close consumer", zap.Error(err))
			}
		}()
		for ctx.Err() == nil {
			msg, err := i.consumer.ReadMessage(pollTimeout)
			if err != nil {
				var kafkaErr kafka.Error
				if errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				i.logger.Warn("Consumer error", zap.Error(err))
				continue
			}
			event, err := Decode(msg.Value)
			if err != nil {
				i.logger.Warn("Skipping message",
					zap.String("topic", i.topic),
					zap.String("offset", msg.TopicPartition.Offset.String()),
					zap.Error(err),
				)
				continue
			}
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Decode parses a graph event message.
func Decode(payload []byte) (model.GraphEvent, error) {
	var event model.GraphEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return model.GraphEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.UserID <= 0 || event.TargetID <= 0 {
		return model.GraphEvent{}, fmt.Errorf("%w: ids must be positive", ErrInvalidEvent)
	}
	switch event.Kind {
	case model.GraphEventKindLike, model.GraphEventKindUnlike,
		model.GraphEventKindFriendRequest, model.GraphEventKindFriendRemove:
	default:
		return model.GraphEvent{}, fmt.Errorf("%w: kind %q", ErrInvalidEvent, event.Kind)
	}
	return event, nil
}
