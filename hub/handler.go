package hub

import (
	"context"

	"github.com/tailored-agentic-units/agentcomm/messaging"
)

// MessageHandler is invoked once for every message the hub delivers to the
// subscribed agent. Handlers for one subscription run sequentially in
// delivery order on a dedicated goroutine; they may call back into the hub.
type MessageHandler func(ctx context.Context, message *messaging.Message) error

// Recorder persists hub state changes. The hub calls it before committing a
// message or thread change; an error aborts the operation.
type Recorder interface {
	RecordMessage(ctx context.Context, message *messaging.Message) error
	RecordThread(ctx context.Context, thread messaging.Thread) error
}
