package kafka

import (
	"context"

	"github.com/NordCoder/pingerus-notifier/internal/domain/monitor"
)

type StatusEvents interface {
	PublishStatusChanged(ctx context.Context, ev monitor.ChangeEvent) error
}
