// Package httpapi serves the operator endpoints: health, build info and bot stats.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/m3rciful/healthbot/core/buildinfo"
	"github.com/m3rciful/healthbot/core/logger"
	"github.com/m3rciful/healthbot/core/telegram/sender"
	"github.com/m3rciful/healthbot/internal/tracker"
)

// StatsSource reports tracker counters.
type StatsSource interface {
	Stats(ctx context.Context) (tracker.Stats, error)
}

// Options configure the ops server.
type Options struct {
	Listen         string
	AllowedOrigins []string
	Stats          StatsSource
}

// Server is the ops HTTP server.
type Server struct {
	opts    Options
	handler http.Handler
	srv     *http.Server
	disp    atomic.Pointer[sender.Dispatcher]
	done    chan struct{}
}

type statsResponse struct {
	tracker.Stats
	Sender *sender.Stats `json:"sender,omitempty"`
}

// New builds the router. Stats is required.
func New(opts Options) (*Server, error) {
	if opts.Stats == nil {
		return nil, errors.New("httpapi: stats source is required")
	}
	s := &Server{opts: opts}

	r := mux.NewRouter()
	r.Use(logRequests)
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/version", s.version).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.stats).Methods(http.MethodGet)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
	})
	s.handler = c.Handler(r)
	return s, nil
}

// Handler exposes the CORS-wrapped router.
func (s *Server) Handler() http.Handler { return s.handler }

// SetDispatcher adds sender counters to /stats once the bot runtime is up.
func (s *Server) SetDispatcher(d *sender.Dispatcher) {
	s.disp.Store(d)
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("httpapi: listen %s: %w", s.opts.Listen, err)
	}
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.done = make(chan struct{})
	logger.Info(ctx, logger.CompHTTP, "listen", slog.String("addr", ln.Addr().String()))
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, logger.CompHTTP, "serve",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Shutdown stops the server gracefully. It is a no-op when Start was never called.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	<-s.done
	logger.Info(ctx, logger.CompHTTP, "shutdown", slog.String("status", logger.Status(err)))
	return err
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Current())
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.opts.Stats.Stats(r.Context())
	if err != nil {
		logger.Error(r.Context(), logger.CompHTTP, "stats",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	resp := statsResponse{Stats: st}
	if d := s.disp.Load(); d != nil {
		ds := d.Stats()
		resp.Sender = &ds
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug(r.Context(), logger.CompHTTP, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("http_status", rec.status),
			slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
		)
	})
}
