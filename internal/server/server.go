// Package server provides the HTTP control API of holocore.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/holocore/internal/server/api"
	"github.com/ayusman/holocore/internal/store"
	"github.com/ayusman/holocore/pkg/logger"
	"github.com/ayusman/holocore/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server dependencies. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Recognizer api.Recognizer
	Control    api.Controller
	Plugins    api.Plugins
	Metrics    *metrics.Manager
}

// Server represents the HTTP server of the application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	start   time.Time
	events  *EventsHandler
	hands   *HandsHandler
	log     logger.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		events: NewEventsHandler(),
		log:    logger.Named("server"),
	}
	s.setupRoutes()
	s.handler = s.mux
	if config.Metrics != nil {
		s.handler = instrument(config.Metrics, s.mux)
	}
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	rec := s.config.Recognizer
	if rec != nil {
		rh := api.NewRecognizerHandler(rec, s.config.Control, s.config.Store)
		s.mux.HandleFunc("/api/status", rh.Status)
		s.mux.HandleFunc("/api/config", rh.Config)
		s.mux.HandleFunc("/api/history", rh.History)
		s.mux.HandleFunc("/api/simulate/", rh.Simulate)
		s.mux.HandleFunc("/api/recognizer/", rh.Control)

		s.hands = NewHandsHandler(rec)
		s.mux.Handle("/api/hands", s.hands)
		s.mux.Handle("/api/events", s.events)
	}

	if s.config.Store != nil && rec != nil {
		gestureHandler := api.NewGestureHandler(s.config.Store, rec)
		samplesHandler := api.NewSamplesHandler(s.config.Store, rec)

		// /api/gestures/{id}/samples and /api/gestures/{id}/train
		gestureRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/samples") || strings.HasSuffix(r.URL.Path, "/train") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			gestureHandler.ServeHTTP(w, r)
		})
		s.mux.Handle("/api/gestures", gestureRouter)
		s.mux.Handle("/api/gestures/", gestureRouter)

		if s.config.Plugins != nil {
			actionHandler := api.NewActionHandler(s.config.Store, rec, s.config.Plugins)
			s.mux.Handle("/api/actions", actionHandler)
			s.mux.Handle("/api/actions/", actionHandler)
		}
	}

	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// Events returns the websocket event feed. Subscribe its Publish method to
// the recognizer to feed it.
func (s *Server) Events() *EventsHandler {
	return s.events
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.close()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

func (s *Server) close() {
	if s.hands != nil {
		s.hands.Close()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the
// underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument records request counts and latency per route.
func instrument(m *metrics.Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeLabel(r.URL.Path)
		if route == "/api/events" || route == "/api/hands" || route == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		begin := time.Now()
		next.ServeHTTP(rec, r)
		m.RecordHTTPRequest(route, r.Method, rec.status, time.Since(begin))
	})
}

// routeLabel keeps the first two path segments so ids never become labels.
func routeLabel(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if len(parts) >= 2 && parts[0] == "api" {
		return "/api/" + parts[1]
	}
	if parts[0] == "metrics" {
		return "/metrics"
	}
	return "/"
}
