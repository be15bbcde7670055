package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"todo-demo/internal/models"
	"todo-demo/internal/store"
	"todo-demo/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// EnsureTopic creates topic on the cluster controller. An existing topic is not
// an error.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int) error {
	if len(brokers) == 0 {
		return nil
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial %s: %w", brokers[0], err)
	}
	defer conn.Close()

	leader, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("lookup controller: %w", err)
	}
	addr := net.JoinHostPort(leader.Host, strconv.Itoa(leader.Port))
	ctrl, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", addr, err)
	}
	defer ctrl.Close()

	return ctrl.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
}

// Encode builds the Kafka message for ev. Events of one list share a key, so they
// land on one partition in order.
func Encode(ev models.ChangeEvent) (kafka.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.ListID, 10)),
		Value: payload,
	}, nil
}

// Decode parses a message value written by Encode.
func Decode(value []byte) (models.ChangeEvent, error) {
	var ev models.ChangeEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return models.ChangeEvent{}, fmt.Errorf("decode change event: %w", err)
	}
	if ev.Kind == "" {
		return models.ChangeEvent{}, fmt.Errorf("decode change event: missing kind")
	}
	return ev, nil
}

// Publisher writes change events to one topic. A nil *Publisher drops everything,
// which is what you get without brokers.
type Publisher struct {
	w     *kafka.Writer
	topic string
}

// NewPublisher returns an async publisher, or nil when brokers is empty.
func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{
		topic: topic,
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    100,
			Async:        true,
			RequiredAcks: kafka.RequireOne,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					logger.Error(context.Background(), "Change events lost", "error", err, "count", len(messages), "topic", topic)
				}
			},
		},
	}
}

// Publish queues ev. With the async writer it does not wait for the broker.
func (p *Publisher) Publish(ctx context.Context, ev models.ChangeEvent) error {
	if p == nil {
		return nil
	}
	msg, err := Encode(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

// Observer adapts p to a store observer.
func (p *Publisher) Observer() store.Observer {
	return func(ctx context.Context, ev models.ChangeEvent) {
		if err := p.Publish(ctx, ev); err != nil {
			logger.Error(ctx, "Change event publish failed", "error", err, "kind", ev.Kind)
		}
	}
}

// Close flushes pending events.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.w.Close()
}
