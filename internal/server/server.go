package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tsukisama9292/judgemicro/internal/api"
	"github.com/tsukisama9292/judgemicro/internal/config"
	"github.com/tsukisama9292/judgemicro/internal/judge"
	"github.com/tsukisama9292/judgemicro/internal/languages"
	"github.com/tsukisama9292/judgemicro/internal/limiter"
	"github.com/tsukisama9292/judgemicro/internal/queue"
	"github.com/tsukisama9292/judgemicro/internal/sandbox"
	"github.com/tsukisama9292/judgemicro/internal/worker"
)

type Server struct {
	conf        *config.Config
	logger      *zerolog.Logger
	httpServer  *http.Server
	registry    *languages.Registry
	sandboxes   sandbox.Manager
	judge       *judge.Judge
	queue       *queue.Manager
	workers     []*worker.Worker
	rateLimiter *limiter.RateLimiter
	cancelFunc  context.CancelFunc
}

func New(conf *config.Config, logger *zerolog.Logger) (*Server, error) {
	registry := languages.NewRegistry()

	sandboxes, err := newSandboxManager(conf, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox manager: %w", err)
	}

	j := judge.New(sandboxes, registry, logger)
	q := queue.NewManager(conf.Judge.QueueCapacity)

	// Rate limiter: 100 req/sec global, 10 req/sec per IP, 50 concurrent evaluations
	rl := limiter.NewRateLimiter(100, 10, 20, 50)
	rl.StartCleanup(5 * time.Minute)

	handler := api.NewHandler(q, j, registry)

	mux := http.NewServeMux()

	// health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// judging endpoints with rate limiting
	mux.HandleFunc("/judge/submit", rl.Middleware(handler.Submit))
	mux.HandleFunc("/judge/batch", rl.Middleware(handler.Batch))
	mux.HandleFunc("/judge/optimized", rl.Middleware(handler.OptimizedBatch))
	mux.HandleFunc("/judge/languages", handler.Languages)
	mux.HandleFunc("/judge/limits", handler.Limits)

	httpServer := &http.Server{
		Addr:         ":" + conf.Server.Port,
		Handler:      mux,
		ReadTimeout:  time.Duration(conf.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(conf.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(conf.Server.IdleTimeout) * time.Second,
	}

	workers := make([]*worker.Worker, conf.Judge.Workers)
	for i := range workers {
		workers[i] = worker.NewWorker(i, j, q, logger)
	}

	s := &Server{
		conf:        conf,
		logger:      logger,
		httpServer:  httpServer,
		registry:    registry,
		sandboxes:   sandboxes,
		judge:       j,
		queue:       q,
		workers:     workers,
		rateLimiter: rl,
	}

	return s, nil
}

func newSandboxManager(conf *config.Config, logger *zerolog.Logger) (sandbox.Manager, error) {
	if strings.HasPrefix(conf.Docker.Host, "ssh://") {
		return sandbox.NewRemoteManager(logger, conf.Docker.Host, conf.Judge.MaxSandboxes)
	}
	return sandbox.NewManager(logger, conf.Judge.MaxSandboxes)
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("port", s.conf.Server.Port).
		Msg("starting HTTP server")

	// Ensure all required images are pulled
	if err := s.ensureImages(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure docker images: %w", err)
	}

	// Start workers
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel

	for _, w := range s.workers {
		go w.Start(ctx)
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) ensureImages(ctx context.Context) error {
	langs := s.registry.List()
	uniqueImages := make(map[string]bool)
	for _, l := range langs {
		uniqueImages[l.Config.Image] = true
	}

	for img := range uniqueImages {
		if err := s.sandboxes.EnsureImage(ctx, img); err != nil {
			return err
		}
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.sandboxes.Close(); err != nil {
		s.logger.Error().Err(err).Msg("failed to close sandbox manager")
	}

	return nil
}
