package hub

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tailored-agentic-units/agentcomm/messaging"
	"github.com/tailored-agentic-units/agentcomm/observability"
)

// Option configures a Hub after construction from config.
type Option func(*hub)

// WithObserver overrides the observer named by HubConfig.Observer.
func WithObserver(o observability.Observer) Option {
	return func(h *hub) { h.observer = o }
}

// WithRecorder persists every message and thread change through r.
func WithRecorder(r Recorder) Option {
	return func(h *hub) { h.recorder = r }
}

// WithRegisterer registers the hub's Prometheus collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(h *hub) { h.registerer = reg }
}

// SendOption adjusts a message before it is sent.
type SendOption func(*sendOptions)

type sendOptions struct {
	subject     string
	threadID    string
	priority    messaging.Priority
	hasPriority bool
	kind        messaging.Kind
}

func WithSubject(subject string) SendOption {
	return func(o *sendOptions) { o.subject = subject }
}

func WithPriority(priority messaging.Priority) SendOption {
	return func(o *sendOptions) {
		o.priority = priority
		o.hasPriority = true
	}
}

// InThread sends the message within an existing thread. The sender and the
// explicit recipient join the thread's participants.
func InThread(threadID string) SendOption {
	return func(o *sendOptions) { o.threadID = threadID }
}

// WithKind overrides the kind a reply inherits from its parent.
func WithKind(kind messaging.Kind) SendOption {
	return func(o *sendOptions) { o.kind = kind }
}

// ThreadOption adjusts a thread before it is created.
type ThreadOption func(*threadOptions)

type threadOptions struct {
	id        string
	createdBy string
}

// WithThreadID uses id instead of a generated identifier. CreateThread fails
// with ErrDuplicateThread if id is taken, and with ErrInvalidArgument unless
// id is made of letters, digits, '.', '_' and '-'.
func WithThreadID(id string) ThreadOption {
	return func(o *threadOptions) { o.id = id }
}

func CreatedBy(agentID string) ThreadOption {
	return func(o *threadOptions) { o.createdBy = agentID }
}
