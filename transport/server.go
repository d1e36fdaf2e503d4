package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tailored-agentic-units/agentcomm/hub"
	"github.com/tailored-agentic-units/agentcomm/observability"
)

const (
	EventStreamOpen  observability.EventType = "transport.stream.open"
	EventStreamClose observability.EventType = "transport.stream.close"
)

// Server serves a hub over HTTP.
type Server struct {
	hub      hub.Hub
	logger   *slog.Logger
	observer observability.Observer
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader

	writeTimeout time.Duration

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	streams sync.WaitGroup
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

func WithObserver(o observability.Observer) ServerOption {
	return func(s *Server) { s.observer = o }
}

// WithGatherer serves g at /metrics. Without it /metrics is not mounted.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) { s.gatherer = g }
}

// WithWriteTimeout bounds each WebSocket frame write.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.writeTimeout = d }
}

func NewServer(h hub.Hub, opts ...ServerOption) *Server {
	s := &Server{
		hub:          h,
		logger:       slog.Default(),
		observer:     observability.NoOpObserver{},
		writeTimeout: 10 * time.Second,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler(opts ...connect.HandlerOption) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.health)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/agents/{id}/stream", s.stream)

	NewService(s.hub).Mount(r, opts...)

	return r
}

// Close ends every open stream and waits for their goroutines. Streams
// outlive http.Server.Shutdown, which does not track hijacked connections.
func (s *Server) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.mu.Unlock()

	s.streams.Wait()
}

// track reserves a slot for a new stream. It fails once Close has begun.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.streams.Add(1)
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	state := s.hub.State()

	status := http.StatusOK
	if state != hub.StateRunning {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"hub":    s.hub.Name(),
		"state":  state.String(),
		"agents": len(s.hub.Agents()),
	})
}
