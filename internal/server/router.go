package server

import (
	"net/http"

	"github.com/agentstation/astronauts/internal/server/handlers"
	"github.com/agentstation/astronauts/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.store,
		s.cache,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
		s.broker,
		s.app.Version(),
		s.startTime,
	)

	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix
	collection := prefix + "/astronauts"
	item := collection + "/{id}"
	search := collection + "/search/{name}"

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health endpoints
	s.handle(mux, "GET /health", h.HandleHealth)
	if prefix != "" {
		s.handle(mux, "GET "+prefix+"/health", h.HandleHealth)
	}
	s.handle(mux, "GET "+prefix+"/ready", h.HandleReady)

	// Astronaut endpoints
	s.handle(mux, "GET "+collection, h.HandleListAstronauts)
	s.handle(mux, "POST "+collection, h.HandleCreateAstronaut)
	s.handle(mux, "GET "+item, h.HandleGetAstronaut)
	s.handle(mux, "PUT "+item, h.HandleReplaceAstronaut)
	s.handle(mux, "PATCH "+item, h.HandleUpdateAstronaut)
	s.handle(mux, "DELETE "+item, h.HandleDeleteAstronaut)
	s.handle(mux, "GET "+search, h.HandleSearchAstronauts)

	// Known paths with an unsupported method answer 405 in the envelope
	// instead of the mux's plain text response.
	mux.Handle(collection, handlers.MethodNotAllowed(http.MethodGet, http.MethodPost))
	mux.Handle(item, handlers.MethodNotAllowed(http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete))
	mux.Handle(search, handlers.MethodNotAllowed(http.MethodGet))

	// Real-time endpoints
	mux.HandleFunc("GET "+prefix+"/updates/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/updates/stream", h.HandleSSE)

	// Metrics endpoint (optional)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("/", h.HandleNotFound)
}

// handle registers fn under pattern, instrumented when metrics are enabled.
func (s *Server) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	if s.metrics == nil {
		mux.Handle(pattern, fn)
		return
	}
	mux.Handle(pattern, s.metrics.Route(pattern, fn))
}

// applyMiddleware wraps handler with middleware chain. The first entry is
// the outermost.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logger(s.logger),
	}

	if s.metrics != nil {
		chain = append(chain, s.metrics.InFlight())
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		} else {
			corsConfig.AllowAll = true
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if cfg.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, cfg.TrustProxy, s.logger)))
	}

	return middleware.Chain(chain...)(handler)
}
