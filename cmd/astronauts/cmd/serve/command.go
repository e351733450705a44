// Package serve provides the HTTP server command for the astronauts CLI.
package serve

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/astronauts/cmd/application"
	"github.com/agentstation/astronauts/internal/server"
)

// drainTimeout bounds how long in-flight requests get after a shutdown signal.
const drainTimeout = 30 * time.Second

// NewCommand creates the serve command. defaults supplies the configured
// server settings that flags override; useFixtures redirects the seed
// file before the store is first built.
func NewCommand(app application.Application, defaults func() server.Config, useFixtures func(string)) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the astronauts REST API server",
		Long: `Start the REST API server for the astronaut roster.

Features:
  - CRUD endpoints under /astronauts plus name search
  - WebSocket change feed (/updates/ws)
  - Server-Sent Events change feed (/updates/stream)
  - Revision-keyed response caching with configurable TTL
  - Rate limiting (requests per minute per IP)
  - CORS support for web applications
  - Request logging, request ids and panic recovery
  - Prometheus metrics (/metrics) and health checks
  - Graceful shutdown with connection draining

HTTP_HOST and HTTP_PORT override the configured bind address;
flags override both.`,
		Example: `  # Start on default port 8080
  astronauts serve

  # Serve under a path prefix with CORS for one origin
  astronauts serve --prefix /api/v1 --cors-origins https://example.com

  # Seed from a custom fixtures file
  astronauts serve --fixtures ./crew.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path := mustGetString(cmd, "fixtures"); path != "" && useFixtures != nil {
				useFixtures(path)
			}
			base := server.DefaultConfig()
			if defaults != nil {
				base = defaults()
			}
			return runServer(cmd, app, parseConfig(cmd, base))
		},
	}

	def := server.DefaultConfig()

	// Server configuration flags
	cmd.Flags().Int("port", def.Port, "Server port")
	cmd.Flags().String("host", def.Host, "Bind address")
	cmd.Flags().String("prefix", def.PathPrefix, "API path prefix (e.g. /api/v1)")

	// CORS flags
	cmd.Flags().Bool("cors", def.CORSEnabled, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", def.CORSOrigins, "Allowed CORS origins (comma-separated)")

	// Performance flags
	cmd.Flags().Int("rate-limit", def.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Bool("trust-proxy", def.TrustProxy, "Rate limit by X-Forwarded-For (only behind a trusted proxy)")
	cmd.Flags().Int("cache-ttl", int(def.CacheTTL/time.Second), "Cache TTL in seconds")

	// Timeout flags
	cmd.Flags().Duration("read-timeout", def.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", def.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", def.IdleTimeout, "HTTP idle timeout")

	// Features flags
	cmd.Flags().Bool("metrics", def.MetricsEnabled, "Enable metrics endpoint")
	cmd.Flags().String("fixtures", "", "Seed file (YAML or JSON) replacing the embedded fixtures")

	return cmd
}

// runServer starts the API server and blocks until the command context ends.
func runServer(cmd *cobra.Command, app application.Application, cfg server.Config) error {
	logger := app.Logger()

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Int("rate_limit", cfg.RateLimit).
		Bool("trust_proxy", cfg.TrustProxy).
		Dur("cache_ttl", cfg.CacheTTL).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("Starting API server")

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start background services (WebSocket hub, SSE broadcaster, event broker)
	srv.Start()

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return fmt.Errorf("listening on %s: %w", httpServer.Addr, err)
	}

	return startWithGracefulShutdown(cmd.Context(), httpServer, listener, srv, logger, cmd.OutOrStdout())
}

// parseConfig applies every flag the user set on top of base.
func parseConfig(cmd *cobra.Command, base server.Config) server.Config {
	cfg := base
	flags := cmd.Flags()

	if flags.Changed("port") {
		cfg.Port = mustGetInt(cmd, "port")
	}
	if flags.Changed("host") {
		cfg.Host = mustGetString(cmd, "host")
	}
	if flags.Changed("prefix") {
		cfg.PathPrefix = mustGetString(cmd, "prefix")
	}
	if flags.Changed("cors") {
		cfg.CORSEnabled = mustGetBool(cmd, "cors")
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
		// Naming origins implies CORS
		if len(cfg.CORSOrigins) > 0 {
			cfg.CORSEnabled = true
		}
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	}
	if flags.Changed("trust-proxy") {
		cfg.TrustProxy = mustGetBool(cmd, "trust-proxy")
	}
	if flags.Changed("cache-ttl") {
		cfg.CacheTTL = time.Duration(mustGetInt(cmd, "cache-ttl")) * time.Second
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	}
	if flags.Changed("write-timeout") {
		cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	}
	if flags.Changed("idle-timeout") {
		cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	}

	return cfg
}

// startWithGracefulShutdown serves on listener until ctx is cancelled, then
// drains the HTTP server and stops the background services.
func startWithGracefulShutdown(ctx context.Context, httpServer *http.Server, listener net.Listener, srv *server.Server, logger *zerolog.Logger, out io.Writer) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().
			Str("addr", listener.Addr().String()).
			Msg("HTTP server listening")

		_, _ = fmt.Fprintf(out, "API server listening on %s\n", listener.Addr())
		_, _ = fmt.Fprintln(out, "   Press Ctrl+C to stop")

		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		_, _ = fmt.Fprintln(out, "\nShutting down API server...")

		// The parent context is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		logger.Info().Msg("Server stopped gracefully")
		_, _ = fmt.Fprintln(out, "API server stopped gracefully")
		return nil
	}
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetStringSlice retrieves a string slice flag value or panics if the flag doesn't exist.
func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetDuration retrieves a duration flag value or panics if the flag doesn't exist.
func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
