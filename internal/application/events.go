package application

import (
	"context"
	"reflect"

	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/platform/kafka"
)

const eventSource = "service-booking"

// EventPublisher writes CloudEvents to the bus. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

type pendingEvent struct {
	topic     string
	eventType string
	key       string
	data      interface{}
}

// eventBatch collects events inside a transaction. They are only published after it commits.
type eventBatch []pendingEvent

func (b *eventBatch) add(topic, eventType, key string, data interface{}) {
	*b = append(*b, pendingEvent{topic: topic, eventType: eventType, key: key, data: data})
}

// emitter publishes events best-effort: failures are logged and never fail the operation.
type emitter struct {
	publisher EventPublisher
	logger    *zap.Logger
}

// newEmitter treats a nil *kafka.Producer (or any nil pointer) the same as no publisher.
func newEmitter(publisher EventPublisher, logger *zap.Logger) emitter {
	if isNilDependency(publisher) {
		publisher = nil
	}
	return emitter{publisher: publisher, logger: logger}
}

// isNilDependency reports whether v is nil or an interface wrapping a nil pointer.
func isNilDependency(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func (e emitter) flush(ctx context.Context, batch eventBatch) {
	for _, evt := range batch {
		e.publishEvent(ctx, evt.topic, evt.eventType, evt.key, evt.data)
	}
}

func (e emitter) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	if e.publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		e.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := e.publisher.PublishEvent(ctx, topic, cloudEvent.WithSubject(key)); err != nil {
		e.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
