// Package server provides the HTTP server for the astronauts API.
package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/astronauts/cmd/application"
	"github.com/agentstation/astronauts/internal/server/cache"
	"github.com/agentstation/astronauts/internal/server/events"
	"github.com/agentstation/astronauts/internal/server/events/adapters"
	"github.com/agentstation/astronauts/internal/server/middleware"
	"github.com/agentstation/astronauts/internal/server/sse"
	ws "github.com/agentstation/astronauts/internal/server/websocket"
	"github.com/agentstation/astronauts/internal/store"
	"github.com/agentstation/astronauts/pkg/astronauts"
	"github.com/agentstation/astronauts/pkg/errors"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	store          *store.Store
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	metrics        *middleware.Metrics
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	handler        http.Handler
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startOnce      sync.Once
	startTime      time.Time
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	st, err := app.Store()
	if err != nil {
		return nil, errors.WrapResource("create", "server", "", err)
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	cfg.PathPrefix = normalizePrefix(cfg.PathPrefix)

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	// Subscribe transports to broker
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	// Context for managing background services
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		app:            app,
		store:          st,
		cache:          cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for WebSocket
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	if cfg.MetricsEnabled {
		s.metrics = middleware.NewMetrics(st.Len)
	}

	s.connectHooks()
	s.handler = s.setupRouter()

	logger.Debug().
		Int("records", st.Len()).
		Str("prefix", cfg.PathPrefix).
		Msg("Server instance created")
	return s, nil
}

// connectHooks registers store hooks that publish to the broker.
func (s *Server) connectHooks() {
	s.store.OnCreated(func(a astronauts.Astronaut) {
		s.broker.Publish(events.AstronautCreated, a)
		s.logger.Debug().Str("astronaut_id", a.ID).Msg("Astronaut created event published")
	})

	s.store.OnUpdated(func(old, updated astronauts.Astronaut) {
		s.broker.Publish(events.AstronautUpdated, events.UpdatedData{Before: old, After: updated})
		s.logger.Debug().Str("astronaut_id", updated.ID).Msg("Astronaut updated event published")
	})

	s.store.OnDeleted(func(a astronauts.Astronaut) {
		s.broker.Publish(events.AstronautDeleted, a)
		s.logger.Debug().Str("astronaut_id", a.ID).Msg("Astronaut deleted event published")
	})
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster).
// Calling it more than once has no effect.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		s.run(s.broker.Run)
		s.run(s.wsHub.Run)
		s.run(s.sseBroadcaster.Run)
		s.logger.Debug().Msg("Background services started")
	})
}

func (s *Server) run(fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Shutdown stops background services and waits for them to exit or for
// ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// normalizePrefix returns "" or a prefix with one leading and no trailing slash.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
