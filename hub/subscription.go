package hub

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/agentcomm/messaging"
	"github.com/tailored-agentic-units/agentcomm/observability"
)

type SubscriptionID string

type subscription struct {
	id      SubscriptionID
	agentID string
	handler MessageHandler
	queue   *Queue[*messaging.Message]
	done    chan struct{}
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Subscribe registers handler for every message delivered to agentID from
// now on, alongside inbox storage. Each subscription runs its handler on
// its own goroutine, in delivery order.
func (h *hub) Subscribe(agentID string, handler MessageHandler) (SubscriptionID, error) {
	if handler == nil {
		return "", fmt.Errorf("%w: handler is required", ErrInvalidArgument)
	}

	h.mu.Lock()
	if err := h.requireRunning(); err != nil {
		h.mu.Unlock()
		return "", err
	}

	reg, exists := h.agents[agentID]
	if !exists {
		h.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownRecipient, agentID)
	}

	sub := &subscription{
		id:      SubscriptionID(uuid.Must(uuid.NewV7()).String()),
		agentID: agentID,
		handler: handler,
		queue:   NewQueue[*messaging.Message](),
		done:    make(chan struct{}),
	}
	reg.subscriptions[sub.id] = sub
	h.live[sub.id] = sub
	h.subCount++
	h.metrics.SetSubscriptions(h.subCount)

	h.dispatchers.Add(1)
	go h.dispatch(sub)
	h.mu.Unlock()

	h.emit(h.ctx, EventSubscribe, observability.LevelInfo, "hub.Subscribe", map[string]any{
		"agent_id":        agentID,
		"subscription_id": string(sub.id),
	})
	return sub.id, nil
}

// Unsubscribe stops future deliveries to the subscription. Messages already
// queued for it are still handled.
func (h *hub) Unsubscribe(agentID string, id SubscriptionID) error {
	h.mu.Lock()
	if err := h.requireRunning(); err != nil {
		h.mu.Unlock()
		return err
	}

	reg, exists := h.agents[agentID]
	if !exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, agentID)
	}

	sub, exists := reg.subscriptions[id]
	if !exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: subscription %s", ErrNotFound, id)
	}

	delete(reg.subscriptions, id)
	sub.queue.Close()
	h.subCount--
	h.metrics.SetSubscriptions(h.subCount)
	h.mu.Unlock()

	h.emit(h.ctx, EventUnsubscribe, observability.LevelInfo, "hub.Unsubscribe", map[string]any{
		"agent_id":        agentID,
		"subscription_id": string(id),
		"pending":         sub.queue.Len(),
	})
	return nil
}

// SubscriptionDone returns a channel that is closed once the subscription's
// dispatcher has handled its last message. That happens after Unsubscribe,
// UnregisterAgent of the owning agent, or Stop. Unknown ids get a closed
// channel.
func (h *hub) SubscriptionDone(id SubscriptionID) <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if sub, exists := h.live[id]; exists {
		return sub.done
	}
	return closedDone
}

func (h *hub) dispatch(sub *subscription) {
	defer h.dispatchers.Done()
	defer func() {
		h.mu.Lock()
		delete(h.live, sub.id)
		h.mu.Unlock()
		close(sub.done)
	}()

	for {
		msg, ok := sub.queue.Pop(h.ctx)
		if !ok {
			h.logger.DebugContext(
				h.ctx,
				"subscription dispatcher exited",
				slog.String("hub_name", h.name),
				slog.String("agent_id", sub.agentID),
				slog.String("subscription_id", string(sub.id)),
			)
			return
		}
		h.invoke(sub, msg)
	}
}

func (h *hub) invoke(sub *subscription, msg *messaging.Message) {
	h.metrics.RecordDelivery(DeliveryHandler, time.Since(msg.Timestamp))

	err := h.callHandler(sub, msg.Clone())
	if err == nil {
		h.emit(h.ctx, EventMessageDeliver, observability.LevelVerbose, "hub.dispatch", map[string]any{
			"message_id":      msg.ID,
			"agent_id":        sub.agentID,
			"subscription_id": string(sub.id),
		})
		return
	}

	h.metrics.RecordHandlerError()
	h.emit(h.ctx, EventHandlerError, observability.LevelWarning, "hub.dispatch", map[string]any{
		"message_id":      msg.ID,
		"agent_id":        sub.agentID,
		"subscription_id": string(sub.id),
		"error":           err.Error(),
	})
}

func (h *hub) callHandler(sub *subscription, msg *messaging.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return sub.handler(h.ctx, msg)
}
