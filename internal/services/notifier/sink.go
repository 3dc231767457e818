package notifier

import (
	"context"
	"fmt"

	"github.com/NordCoder/pingerus-notifier/internal/obs/retry"
)

// Sink delivers rendered payloads of one channel kind.
type Sink interface {
	Deliver(ctx context.Context, p Payload) error
}

func unexpectedPayload(sink string, p Payload) error {
	return retry.Permanent(fmt.Errorf("%s: unexpected payload %T", sink, p))
}
