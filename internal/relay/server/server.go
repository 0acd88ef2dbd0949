// Package server binds the relay engine to HTTP: two WebSocket channels for
// producers and consumers plus a small debug API.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bleikamp/ply/config"
	"github.com/bleikamp/ply/internal/relay/engine"
	"github.com/bleikamp/ply/internal/relay/event"
	"github.com/bleikamp/ply/internal/relay/registry"
	"github.com/bleikamp/ply/internal/relay/store"
)

// Channel paths.
const (
	ProducerPath = "/producer"
	ConsumerPath = "/consumer"
)

// RunningConfig is served from /api/config so clients can see what the
// relay was started with.
type RunningConfig struct {
	Config     *config.Config `json:"config"`
	ConfigFile string         `json:"config_file,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
}

// StateResponse is the body of /api/state.
type StateResponse struct {
	State       store.State     `json:"state"`
	Connections registry.Counts `json:"connections"`
}

// Server manages the relay's HTTP listener and WebSocket connections.
type Server struct {
	logger        *logrus.Entry
	engine        *engine.Engine
	relay         config.RelayConfig
	runningConfig *RunningConfig
	gatherer      prometheus.Gatherer
	upgrader      websocket.Upgrader
	server        *http.Server

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates a Server that routes connections into eng.
func New(eng *engine.Engine, relay config.RelayConfig, logger *logrus.Entry) *Server {
	return &Server{
		logger: logger,
		engine: eng,
		relay:  relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Inspector UIs and browser agents are served from arbitrary origins.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// SetRunningConfig sets the configuration reported by /api/config.
func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.runningConfig = cfg
}

// SetGatherer enables /metrics backed by g.
func (s *Server) SetGatherer(g prometheus.Gatherer) {
	s.gatherer = g
}

// Handler returns the relay's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			s.logger.WithError(err).Debug("Failed to write health response")
		}
	})

	mux.HandleFunc(ProducerPath, s.handleChannel(registry.Producer))
	mux.HandleFunc(ConsumerPath, s.handleChannel(registry.Consumer))

	mux.HandleFunc("/api/state", s.handleGetState)
	mux.HandleFunc("/api/config", s.handleGetConfig)

	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

// ListenAndServe listens on addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.WithField("addr", listener.Addr().String()).Info("Relay listening")
	err := srv.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes every WebSocket.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	s.mu.Lock()
	srv := s.server
	for c := range s.clients {
		c.close()
	}
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// handleChannel upgrades a request and runs the connection for its lifetime.
func (s *Server) handleChannel(group registry.Group) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			s.logger.WithError(err).WithField("group", group).Debug("WebSocket upgrade failed")
			return
		}

		id := uuid.NewString()
		logger := s.logger.WithFields(logrus.Fields{
			"group":  group,
			"id":     id,
			"remote": r.RemoteAddr,
		})
		c := newClient(id, group, conn, s.relay.SendBuffer, logger)

		// The write pump must be running before Connect queues the replay.
		go c.writePump(s.relay.PingInterval.Std(), s.relay.WriteTimeout.Std())
		defer c.close()

		s.track(c, true)
		defer s.track(c, false)

		ctx := context.Background()
		if err := s.engine.Connect(ctx, group, c); err != nil {
			logger.WithError(err).Error("Failed to register connection")
			return
		}

		c.readPump(s.relay.ReadLimit, pongWait(s.relay.PingInterval.Std()), func(env event.Envelope) error {
			return s.engine.Dispatch(ctx, group, id, env)
		})

		if err := s.engine.Disconnect(ctx, group, id); err != nil {
			logger.WithError(err).Error("Failed to unregister connection")
		}
	}
}

func (s *Server) track(c *client, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.clients[c] = struct{}{}
	} else {
		delete(s.clients, c)
	}
}

// pongWait is how long a connection may stay silent before it is considered
// dead: two missed pings.
func pongWait(pingInterval time.Duration) time.Duration {
	if pingInterval <= 0 {
		return 0
	}
	return 2 * pingInterval
}

// handleGetState returns the shared snapshot and connection counts.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		http.Error(w, "engine not initialized", http.StatusServiceUnavailable)
		return
	}

	state, counts, err := s.engine.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, "/api/state", StateResponse{State: state, Connections: counts})
}

// handleGetConfig returns the running configuration as JSON.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, "/api/config", s.runningConfig)
}

func (s *Server) writeJSON(w http.ResponseWriter, path string, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).WithField("path", path).Error("Failed to encode response")
	}
}
