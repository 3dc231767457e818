package kafka

import (
	"context"

	"github.com/NordCoder/pingerus-notifier/internal/domain/kafka"
	"github.com/NordCoder/pingerus-notifier/internal/domain/monitor"
)

// TopicStatusChanged carries monitor.ChangeEvent as JSON, keyed by monitor id.
const TopicStatusChanged = "pingerus.status.changed"

type StatusEventsKafka struct {
	p *Producer
}

func NewStatusEventsKafka(p *Producer) *StatusEventsKafka { return &StatusEventsKafka{p: p} }

var _ kafka.StatusEvents = (*StatusEventsKafka)(nil)

func (e *StatusEventsKafka) PublishStatusChanged(ctx context.Context, ev monitor.ChangeEvent) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(ev.ID), ev)
}
