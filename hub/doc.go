// Package hub provides the in-process message hub that agents use to
// coordinate.
//
// The hub routes addressed and broadcast messages into per-agent inboxes,
// groups related messages into threads, and pushes every delivery to
// subscribed handlers. It keeps an append-only record of accepted messages
// for lookups and statistics.
//
// # Lifecycle
//
// A hub is created, started once, and stopped once:
//
//	h, err := hub.New(config.DefaultHubConfig())
//	if err != nil {
//	    return err
//	}
//	if err := h.Start(ctx); err != nil {
//	    return err
//	}
//	defer h.Stop(5 * time.Second)
//
// Operations other than the read-only lookups (Message, Thread, Threads,
// ThreadMessages, Agents, Stats) fail with ErrInvalidState unless the hub is
// running. Stop is terminal.
//
// # Messaging
//
//	h.RegisterAgent(ctx, messaging.Agent{ID: "developer-3", Type: "developer"})
//
//	id, err := h.Send(ctx, "coordinator", "developer-3",
//	    messaging.KindTaskAssignment,
//	    messaging.TaskAssignment{Task: "pressure input"},
//	    hub.WithPriority(messaging.PriorityHigh))
//
//	h.Broadcast(ctx, "coordinator", messaging.KindSystemAlert,
//	    messaging.SystemAlert{Alert: "phase 2 starts"})
//
//	h.Reply(ctx, "developer-3", id, messaging.Payload{"eta": "2d"})
//
// An empty recipient broadcasts to every registered agent, the sender
// included. Sending to an agent that is not registered fails with
// ErrUnknownRecipient.
//
// # Inboxes
//
// GetMessages peeks: it returns the newest messages oldest-first and never
// removes them.
//
// # Threads
//
// Threads only grow. Participants join through JoinThread or by sending
// within the thread (InThread), which adds the sender and the explicit
// recipient.
//
// # Subscriptions
//
// Subscribe attaches a MessageHandler to an agent. Each subscription owns an
// unbounded queue drained by its own goroutine, so handlers see messages in
// delivery order, never block senders, and may call back into the hub.
// Handler errors are reported as hub.handler.error events and counted in
// Stats.
//
// # Persistence
//
// WithRecorder attaches a Recorder that is called before every message or
// thread change is committed. A recorder error fails the operation and
// leaves the hub unchanged.
package hub
