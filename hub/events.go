package hub

import "github.com/tailored-agentic-units/agentcomm/observability"

// Hub event types.
const (
	EventStart           observability.EventType = "hub.start"
	EventStop            observability.EventType = "hub.stop"
	EventAgentRegister   observability.EventType = "hub.agent.register"
	EventAgentUnregister observability.EventType = "hub.agent.unregister"
	EventMessageSend     observability.EventType = "hub.message.send"
	EventMessageDeliver  observability.EventType = "hub.message.deliver"
	EventThreadCreate    observability.EventType = "hub.thread.create"
	EventThreadJoin      observability.EventType = "hub.thread.join"
	EventSubscribe       observability.EventType = "hub.subscribe"
	EventUnsubscribe     observability.EventType = "hub.unsubscribe"
	EventHandlerError    observability.EventType = "hub.handler.error"
)
