package hub

import (
	"fmt"

	"github.com/tailored-agentic-units/agentcomm/messaging"
)

// GetMessages returns up to limit of the newest messages in the agent's
// inbox, oldest first. A limit of zero or less returns the whole inbox.
// Reading never removes messages, so repeated calls are idempotent.
func (h *hub) GetMessages(agentID string, limit int) ([]*messaging.Message, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if err := h.requireRunning(); err != nil {
		return nil, err
	}

	reg, exists := h.agents[agentID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecipient, agentID)
	}

	inbox := reg.inbox
	if limit > 0 && len(inbox) > limit {
		inbox = inbox[len(inbox)-limit:]
	}
	return cloneMessages(inbox), nil
}

func (h *hub) Message(id string) (*messaging.Message, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg, exists := h.messages[id]
	if !exists {
		return nil, fmt.Errorf("%w: message %s", ErrNotFound, id)
	}
	return msg.Clone(), nil
}

func cloneMessages(messages []*messaging.Message) []*messaging.Message {
	out := make([]*messaging.Message, len(messages))
	for i, msg := range messages {
		out[i] = msg.Clone()
	}
	return out
}
