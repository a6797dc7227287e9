package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"skidoodle/now-playing/internal/nowplaying"
	"skidoodle/now-playing/internal/stream"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	Stream         bool
	StreamInterval time.Duration
}

// Server is the main application orchestrator.
type Server struct {
	addr       string
	router     chi.Router
	httpServer *http.Server
	hub        *stream.Hub
	poller     *stream.Poller
	log        *logrus.Logger
}

// New creates a new, fully configured server. The stream endpoint is only
// mounted when opts.Stream is set.
func New(opts Options, fetcher nowplaying.Fetcher, logger *logrus.Logger) *Server {
	s := &Server{
		addr:   opts.Addr,
		router: chi.NewRouter(),
		log:    logger,
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(logger))
	s.router.Use(middleware.Recoverer)

	nowPlaying := nowplaying.NewHandler(fetcher, logger)
	s.router.Get("/api/now-playing", nowPlaying.ServeHTTP)
	s.router.Options("/api/now-playing", nowPlaying.ServeHTTP)
	s.router.Get("/health", healthHandler(logger))

	if opts.Stream {
		s.hub = stream.NewHub(logger)
		s.poller = stream.NewPoller(fetcher, s.hub, opts.StreamInterval, logger)
		s.router.Get("/ws", stream.NewHandler(s.hub, s.poller, opts.AllowedOrigins, logger).ServeHTTP)
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server and its components and blocks until ctx is
// cancelled and everything has shut down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	if s.hub != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.hub.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			s.poller.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		s.log.Info("shutdown signal received, stopping http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("http server shutdown error")
		}
	}()

	s.log.WithField("addr", ln.Addr().String()).Info("http server listening")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		wg.Wait()
		return err
	}

	wg.Wait()
	return nil
}
