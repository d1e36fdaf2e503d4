package hub

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tailored-agentic-units/agentcomm/config"
	"github.com/tailored-agentic-units/agentcomm/messaging"
	"github.com/tailored-agentic-units/agentcomm/observability"
)

// State is the hub lifecycle position. Transitions only move forward:
// created, running, stopped.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Hub interface {
	Name() string
	State() State
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error

	RegisterAgent(ctx context.Context, agent messaging.Agent) error
	UnregisterAgent(ctx context.Context, agentID string) error
	Agents() []messaging.Agent

	Send(ctx context.Context, from, to string, kind messaging.Kind, content messaging.Content, opts ...SendOption) (string, error)
	Broadcast(ctx context.Context, from string, kind messaging.Kind, content messaging.Content, opts ...SendOption) (string, error)
	Reply(ctx context.Context, from, parentID string, content messaging.Content, opts ...SendOption) (string, error)

	CreateThread(ctx context.Context, title string, participants []string, threadContext map[string]any, opts ...ThreadOption) (string, error)
	JoinThread(ctx context.Context, threadID string, agentIDs ...string) error

	GetMessages(agentID string, limit int) ([]*messaging.Message, error)
	Subscribe(agentID string, handler MessageHandler) (SubscriptionID, error)
	Unsubscribe(agentID string, id SubscriptionID) error
	SubscriptionDone(id SubscriptionID) <-chan struct{}

	Message(id string) (*messaging.Message, error)
	Thread(id string) (messaging.Thread, error)
	Threads() []messaging.Thread
	ThreadMessages(threadID string) ([]*messaging.Message, error)

	Stats() CommunicationStats
	Metrics() MetricsSnapshot
}

type registration struct {
	agent         messaging.Agent
	inbox         []*messaging.Message
	subscriptions map[SubscriptionID]*subscription
}

type threadState struct {
	thread   messaging.Thread
	messages []*messaging.Message
	seq      uint64
}

type hub struct {
	name            string
	shutdownTimeout time.Duration

	logger     *slog.Logger
	observer   observability.Observer
	recorder   Recorder
	registerer prometheus.Registerer
	metrics    *Metrics

	mu        sync.RWMutex
	state     State
	agents    map[string]*registration
	messages  map[string]*messaging.Message
	threads   map[string]*threadState
	threadSeq uint64
	counts    messageCounts
	subCount  int
	live      map[SubscriptionID]*subscription

	ctx         context.Context
	cancel      context.CancelFunc
	dispatchers sync.WaitGroup
}

// New creates a Hub in the created state. cfg is merged over
// config.DefaultHubConfig, and cfg.Observer is resolved through the
// observability registry unless WithObserver overrides it.
func New(cfg config.HubConfig, opts ...Option) (Hub, error) {
	merged := config.DefaultHubConfig()
	merged.Merge(&cfg)

	observer, err := observability.GetObserver(merged.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	h := &hub{
		name:            merged.Name,
		shutdownTimeout: merged.ShutdownTimeout.Std(),
		logger:          merged.Logger,
		observer:        observer,
		state:           StateCreated,
		agents:          make(map[string]*registration),
		messages:        make(map[string]*messaging.Message),
		threads:         make(map[string]*threadState),
		counts:          newMessageCounts(),
		live:            make(map[SubscriptionID]*subscription),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.metrics = NewMetrics(h.name, h.registerer)

	return h, nil
}

func (h *hub) Name() string {
	return h.name
}

func (h *hub) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.state != StateCreated {
		state := h.state
		h.mu.Unlock()
		return fmt.Errorf("%w: cannot start a %s hub", ErrInvalidState, state)
	}
	// Dispatchers live until Stop, not until the caller's ctx ends.
	h.ctx, h.cancel = context.WithCancel(context.WithoutCancel(ctx))
	h.state = StateRunning
	h.mu.Unlock()

	h.emit(ctx, EventStart, observability.LevelInfo, "hub.Start", nil)
	return nil
}

// Stop closes every subscription queue and waits up to timeout for the
// dispatchers to drain them. A non-positive timeout uses the configured
// shutdown timeout. The hub is stopped even when draining times out.
func (h *hub) Stop(timeout time.Duration) error {
	h.mu.Lock()
	if h.state != StateRunning {
		state := h.state
		h.mu.Unlock()
		return fmt.Errorf("%w: cannot stop a %s hub", ErrInvalidState, state)
	}
	h.state = StateStopped
	for _, reg := range h.agents {
		for _, sub := range reg.subscriptions {
			sub.queue.Close()
		}
	}
	h.mu.Unlock()

	if timeout <= 0 {
		timeout = h.shutdownTimeout
	}

	drained := make(chan struct{})
	go func() {
		h.dispatchers.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-time.After(timeout):
		err = fmt.Errorf("hub shutdown timeout after %v", timeout)
		h.logger.WarnContext(
			h.ctx,
			"subscription queues not drained",
			slog.String("hub_name", h.name),
			slog.Duration("timeout", timeout),
		)
	}
	h.cancel()

	h.emit(context.Background(), EventStop, observability.LevelInfo, "hub.Stop", map[string]any{
		"drained": err == nil,
	})
	return err
}

func (h *hub) RegisterAgent(ctx context.Context, agent messaging.Agent) error {
	if strings.TrimSpace(agent.ID) == "" {
		return fmt.Errorf("%w: agent id is required", ErrInvalidArgument)
	}

	h.mu.Lock()
	if err := h.requireRunning(); err != nil {
		h.mu.Unlock()
		return err
	}

	agent = agent.Clone()
	reg, exists := h.agents[agent.ID]
	if exists {
		agent.RegisteredAt = reg.agent.RegisteredAt
		reg.agent = agent
	} else {
		if agent.RegisteredAt.IsZero() {
			agent.RegisteredAt = time.Now()
		}
		h.agents[agent.ID] = &registration{
			agent:         agent,
			subscriptions: make(map[SubscriptionID]*subscription),
		}
	}
	h.metrics.SetAgents(len(h.agents))
	h.mu.Unlock()

	h.emit(ctx, EventAgentRegister, observability.LevelInfo, "hub.RegisterAgent", map[string]any{
		"agent_id":     agent.ID,
		"agent_type":   agent.Type,
		"capabilities": len(agent.Capabilities),
		"updated":      exists,
	})
	return nil
}

// UnregisterAgent removes the agent, drops its inbox, and closes its
// subscriptions. Handlers already queued still run.
func (h *hub) UnregisterAgent(ctx context.Context, agentID string) error {
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

	delete(h.agents, agentID)
	for _, sub := range reg.subscriptions {
		sub.queue.Close()
	}
	h.subCount -= len(reg.subscriptions)
	h.metrics.SetAgents(len(h.agents))
	h.metrics.SetSubscriptions(h.subCount)
	h.mu.Unlock()

	h.emit(ctx, EventAgentUnregister, observability.LevelInfo, "hub.UnregisterAgent", map[string]any{
		"agent_id":      agentID,
		"subscriptions": len(reg.subscriptions),
		"inbox":         len(reg.inbox),
	})
	return nil
}

// Agents returns the registered agents ordered by id.
func (h *hub) Agents() []messaging.Agent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	agents := make([]messaging.Agent, 0, len(h.agents))
	for _, reg := range h.agents {
		agents = append(agents, reg.agent.Clone())
	}
	slices.SortFunc(agents, func(a, b messaging.Agent) int {
		return strings.Compare(a.ID, b.ID)
	})
	return agents
}

func (h *hub) Metrics() MetricsSnapshot {
	return h.metrics.Snapshot()
}

// requireRunning must be called with h.mu held.
func (h *hub) requireRunning() error {
	if h.state != StateRunning {
		return fmt.Errorf("%w: hub is %s", ErrInvalidState, h.state)
	}
	return nil
}

func (h *hub) emit(ctx context.Context, eventType observability.EventType, level observability.Level, source string, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 1)
	}
	data["hub"] = h.name

	h.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
