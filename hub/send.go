package hub

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tailored-agentic-units/agentcomm/messaging"
	"github.com/tailored-agentic-units/agentcomm/observability"
)

// Send delivers a message to the inbox and subscribers of to, or to every
// registered agent when to is empty. It returns the new message id.
func (h *hub) Send(ctx context.Context, from, to string, kind messaging.Kind, content messaging.Content, opts ...SendOption) (string, error) {
	o := sendOptions{kind: kind}
	for _, opt := range opts {
		opt(&o)
	}

	builder := messaging.NewMessage(from, to, o.kind, messaging.CloneContent(content)).
		Subject(o.subject).
		Thread(o.threadID)
	if o.hasPriority {
		builder.Priority(o.priority)
	}

	return h.post(ctx, builder.Build(), "hub.Send")
}

// Broadcast is Send with no explicit recipient. The sender, if registered,
// receives its own broadcast.
func (h *hub) Broadcast(ctx context.Context, from string, kind messaging.Kind, content messaging.Content, opts ...SendOption) (string, error) {
	return h.Send(ctx, from, "", kind, content, opts...)
}

// Reply answers parentID. The reply goes to the parent's sender within the
// parent's thread and inherits its kind and priority unless overridden.
// InThread is ignored.
func (h *hub) Reply(ctx context.Context, from, parentID string, content messaging.Content, opts ...SendOption) (string, error) {
	h.mu.RLock()
	if err := h.requireRunning(); err != nil {
		h.mu.RUnlock()
		return "", err
	}
	parent, exists := h.messages[parentID]
	h.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("%w: message %s", ErrNotFound, parentID)
	}

	o := sendOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	builder := messaging.NewReply(from, parent, messaging.CloneContent(content))
	if o.kind != "" {
		builder.Kind(o.kind)
	}
	if o.hasPriority {
		builder.Priority(o.priority)
	}
	if o.subject != "" {
		builder.Subject(o.subject)
	}

	return h.post(ctx, builder.Build(), "hub.Reply")
}

func validateMessage(msg *messaging.Message) error {
	if msg.From == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidMessage)
	}
	if !msg.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, msg.Kind)
	}
	if !msg.Priority.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidMessage, msg.Priority)
	}
	if structured, ok := msg.Content.(messaging.Structured); ok && structured.Kind() != msg.Kind {
		return fmt.Errorf("%w: %s content on a %s message", ErrInvalidMessage, structured.Kind(), msg.Kind)
	}
	if _, err := messaging.EncodeFields(msg.Content); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// post validates, records and commits msg, then fans it out. Nothing is
// committed if any check or the recorder fails.
func (h *hub) post(ctx context.Context, msg *messaging.Message, source string) (string, error) {
	if err := validateMessage(msg); err != nil {
		return "", err
	}

	h.mu.Lock()
	if err := h.requireRunning(); err != nil {
		h.mu.Unlock()
		return "", err
	}

	recipients, err := h.recipients(msg)
	if err != nil {
		h.mu.Unlock()
		return "", err
	}

	var (
		ts     *threadState
		joined []string
	)
	if msg.ThreadID != "" {
		var exists bool
		if ts, exists = h.threads[msg.ThreadID]; !exists {
			h.mu.Unlock()
			return "", fmt.Errorf("%w: thread %s", ErrNotFound, msg.ThreadID)
		}
		joined = ts.missing(msg.From, msg.To)
	}

	if h.recorder != nil {
		if len(joined) > 0 {
			updated := ts.thread.Clone()
			updated.Participants = mergeParticipants(updated.Participants, joined)
			if err := h.recorder.RecordThread(ctx, updated); err != nil {
				h.mu.Unlock()
				return "", fmt.Errorf("failed to record thread: %w", err)
			}
		}
		if err := h.recorder.RecordMessage(ctx, msg); err != nil {
			h.mu.Unlock()
			return "", fmt.Errorf("failed to record message: %w", err)
		}
	}

	h.messages[msg.ID] = msg
	h.counts.add(msg)
	h.metrics.RecordMessage(msg.Kind, msg.Priority)
	if ts != nil {
		ts.thread.Participants = mergeParticipants(ts.thread.Participants, joined)
		ts.messages = append(ts.messages, msg)
	}

	handlers := 0
	for _, reg := range recipients {
		reg.inbox = append(reg.inbox, msg)
		h.metrics.RecordDelivery(DeliveryInbox, time.Since(msg.Timestamp))
		for _, sub := range reg.subscriptions {
			if sub.queue.Push(msg) {
				handlers++
			}
		}
	}
	h.mu.Unlock()

	h.emit(ctx, EventMessageSend, observability.LevelInfo, source, map[string]any{
		"message_id": msg.ID,
		"from":       msg.From,
		"to":         msg.To,
		"kind":       string(msg.Kind),
		"priority":   msg.Priority.String(),
		"thread_id":  msg.ThreadID,
		"recipients": len(recipients),
		"handlers":   handlers,
	})
	if len(joined) > 0 {
		h.emit(ctx, EventThreadJoin, observability.LevelVerbose, source, map[string]any{
			"thread_id": msg.ThreadID,
			"joined":    joined,
		})
	}

	return msg.ID, nil
}

// recipients must be called with h.mu held. Broadcast recipients are
// ordered by agent id.
func (h *hub) recipients(msg *messaging.Message) ([]*registration, error) {
	if !msg.IsBroadcast() {
		reg, exists := h.agents[msg.To]
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRecipient, msg.To)
		}
		return []*registration{reg}, nil
	}

	ids := make([]string, 0, len(h.agents))
	for id := range h.agents {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	regs := make([]*registration, len(ids))
	for i, id := range ids {
		regs[i] = h.agents[id]
	}
	return regs, nil
}
