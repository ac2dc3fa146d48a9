package events

import (
	"context"
	"strconv"

	"MacroPipe/internal/usecase"
	pkgkafka "MacroPipe/pkg/kafka"
	xlogger "MacroPipe/pkg/logger"
)

// KafkaPublisher streams job lifecycle events to a Kafka topic, keyed by job
// id so one job's transitions stay ordered. Publish failures are logged and
// dropped; the event stream is observability, not source of truth.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	logger   *xlogger.Logger
}

// NewKafkaPublisher creates a publisher for the given topic.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string, lgr *xlogger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: lgr}
}

// NotifyJobEvent implements usecase.JobNotifier.
func (p *KafkaPublisher) NotifyJobEvent(ctx context.Context, ev usecase.JobEvent) {
	key := []byte(strconv.FormatInt(ev.JobID, 10))
	if err := p.producer.Publish(ctx, p.topic, key, ev); err != nil && p.logger != nil {
		p.logger.Warn("job event publish failed",
			xlogger.Int64("job_id", ev.JobID),
			xlogger.Error(err),
		)
	}
}

// PublishMessage implements logger.Publisher so the log aggregation
// collector can flush through the same producer.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// Close flushes and closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Fanout delivers each job event to every notifier in order.
type Fanout []usecase.JobNotifier

// NotifyJobEvent implements usecase.JobNotifier.
func (f Fanout) NotifyJobEvent(ctx context.Context, ev usecase.JobEvent) {
	for _, n := range f {
		if n != nil {
			n.NotifyJobEvent(ctx, ev)
		}
	}
}
