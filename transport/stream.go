package transport

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/agentcomm/messaging"
	"github.com/tailored-agentic-units/agentcomm/observability"
)

// stream subscribes the connection to an agent's deliveries. Frames from
// the peer are read and discarded until it disconnects. The connection is
// closed when the subscription ends, e.g. because the agent was
// unregistered.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	if !s.registered(agentID) {
		http.Error(w, "unknown agent: "+agentID, http.StatusNotFound)
		return
	}

	if !s.track() {
		http.Error(w, "server is closing", http.StatusServiceUnavailable)
		return
	}
	defer s.streams.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "agent", agentID, "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	id, err := s.hub.Subscribe(agentID, func(_ context.Context, msg *messaging.Message) error {
		writeMu.Lock()
		defer writeMu.Unlock()

		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		return conn.WriteJSON(msg)
	})
	if err != nil {
		s.closeStream(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}

	s.emit(r.Context(), EventStreamOpen, agentID, map[string]any{"subscription": string(id)})

	finished := make(chan struct{})
	go func() {
		select {
		case <-s.done:
			s.closeStream(conn, websocket.CloseGoingAway, "server closing")
		case <-s.hub.SubscriptionDone(id):
			s.closeStream(conn, websocket.CloseGoingAway, "subscription closed")
		case <-finished:
		}
	}()

	conn.SetReadLimit(4096)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(finished)

	// Unsubscribe fails once the hub has stopped or the agent is gone,
	// both of which already closed the subscription.
	if err := s.hub.Unsubscribe(agentID, id); err != nil {
		s.logger.Debug("stream unsubscribe", "agent", agentID, "error", err)
	}

	s.emit(r.Context(), EventStreamClose, agentID, map[string]any{"subscription": string(id)})
}

func (s *Server) registered(agentID string) bool {
	return slices.ContainsFunc(s.hub.Agents(), func(a messaging.Agent) bool {
		return a.ID == agentID
	})
}

func (s *Server) closeStream(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(s.writeTimeout)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}

func (s *Server) emit(ctx context.Context, eventType observability.EventType, agentID string, data map[string]any) {
	data["agent"] = agentID
	data["hub"] = s.hub.Name()

	s.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "transport.Server.stream",
		Data:      data,
	})
}
