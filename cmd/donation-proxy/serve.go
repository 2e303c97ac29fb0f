package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/api"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/cache"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/config"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/fetcher"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/logging"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/proxy"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/ratelimit"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/warmup"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var (
		host string
		port string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := newServer(*cfg, logging.NewLogger("server"))
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Addr())
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
			}
			return srv.Serve(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides HOST)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")

	return cmd
}

// server wires the snapshot service, HTTP handlers and background jobs.
type server struct {
	cfg      config.Config
	service  *proxy.Service
	handlers *api.Handlers
	tracker  *ratelimit.Tracker
	handler  http.Handler
	logger   zerolog.Logger
}

func newServer(cfg config.Config, logger zerolog.Logger) (*server, error) {
	pageFetcher, err := fetcher.New(cfg.FetcherConfig())
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	service := proxy.NewService(pageFetcher, cache.NewStore(), proxy.Config{TTL: cfg.CacheTTL})
	handlers := api.NewHandlers(service)

	s := &server{
		cfg:      cfg,
		service:  service,
		handlers: handlers,
		logger:   logger,
	}

	routerCfg := api.RouterConfig{Logger: logging.NewLogger("http")}
	if cfg.RateLimitRPS > 0 {
		s.tracker = ratelimit.NewTracker(ratelimit.Config{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		}, logging.NewLogger("ratelimit"))
		routerCfg.RateLimit = s.tracker.Middleware
	}
	s.handler = api.NewRouter(handlers, routerCfg)

	return s, nil
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured timeout.
func (s *server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()

	if s.tracker != nil {
		go s.tracker.Run(bgCtx, ratelimit.DefaultSweepInterval)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("user_agent", s.cfg.UserAgent).
		Dur("cache_ttl", s.cfg.CacheTTL).
		Bool("rate_limit", s.tracker != nil).
		Msg("Donation proxy listening")

	go s.warm(bgCtx)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down")
	s.handlers.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

// warm prefetches the configured organizations and then reports ready.
// Failed warmups are logged and do not block readiness.
func (s *server) warm(ctx context.Context) {
	if len(s.cfg.WarmOrgs) > 0 {
		w := warmup.NewWarmer(s.service, warmup.Config{
			MaxConcurrency: s.cfg.WarmConcurrency,
			Timeout:        s.cfg.FetchTimeout,
		})
		if _, err := w.Run(ctx, s.cfg.WarmOrgs); err != nil {
			return
		}
	}
	s.handlers.SetReady(true)
}
