package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bighelpmob/missionhub/internal/email"
	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/missions"
)

// Options are the dependencies of the HTTP API.
type Options struct {
	Addr       string
	Logger     *slog.Logger
	Store      *SQLiteStore
	Delivery   email.Delivery
	Translator *i18n.Translator
	Roles      missions.RoleList
	SPADir     string
	// Health is mounted at /healthz when set.
	Health http.Handler
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(opts Options) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	addRoutes(r, opts)

	return &Server{
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: opts.Logger,
	}
}

const shutdownGrace = 10 * time.Second

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until Shutdown is called. A closed server is not an error.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains open requests, giving up after shutdownGrace.
// SSE streams are cut when their request context ends.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// requestLogger logs one line per request; server errors are logged at
// error level.
func requestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
