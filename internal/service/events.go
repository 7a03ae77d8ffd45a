package service

import (
	"context"
	"log/slog"
	"time"
)

const (
	TopicOrderEvents   = "order_events"
	TopicUserEvents    = "user_events"
	TopicProductEvents = "product_events"
)

// EventPublisher is satisfied by mykafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// publish never fails the caller: events are best effort.
func publish(ctx context.Context, l *slog.Logger, p EventPublisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		l.Warn("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
