package worker

import (
	"context"
	"sync/atomic"

	"todo-demo/internal/models"
	"todo-demo/internal/queue"
	"todo-demo/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// GroupID is shared by every replica: they share one Redis, so one invalidation
// per event is enough.
const GroupID = "todo-cache-invalidators"

// Invalidator drops whatever a change event makes stale.
type Invalidator interface {
	Invalidate(ctx context.Context, ev models.ChangeEvent)
}

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer applies change events from Kafka to an Invalidator.
type Consumer struct {
	r         reader
	target    Invalidator
	topic     string
	processed atomic.Int64
}

// New returns a consumer for topic, or nil when brokers is empty.
func New(brokers []string, topic string, target Invalidator) *Consumer {
	if len(brokers) == 0 {
		return nil
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{r: r, target: target, topic: topic}
}

// Run consumes until ctx is done. A nil Consumer returns immediately.
func (w *Consumer) Run(ctx context.Context) {
	if w == nil {
		logger.Info(ctx, "Worker disabled (no Kafka brokers)")
		return
	}
	defer w.r.Close()

	logger.Info(ctx, "Kafka consumer started", "topic", w.topic, "group", GroupID)
	for {
		msg, err := w.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Kafka consumer stopped", "processed", w.processed.Load())
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		w.handle(ctx, msg)
		// committed even when undecodable, a bad payload must not stall the partition
		if err := w.r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "Worker commit failed", "error", err, "offset", msg.Offset)
		}
	}
}

// Processed returns how many events were applied.
func (w *Consumer) Processed() int64 {
	return w.processed.Load()
}

func (w *Consumer) handle(ctx context.Context, msg kafka.Message) {
	ev, err := queue.Decode(msg.Value)
	if err != nil {
		logger.Warn(ctx, "Skipping change event", "error", err, "partition", msg.Partition, "offset", msg.Offset)
		return
	}
	logger.Debug(ctx, "Change event received", "kind", ev.Kind, "entity_id", ev.EntityID, "list_id", ev.ListID)
	w.target.Invalidate(ctx, ev)
	w.processed.Add(1)
}
