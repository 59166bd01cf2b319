// Package dashboard serves the traceability report over HTTP with
// live reload on re-trace.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/report"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

// reloadScript reconnects to the event stream and reloads the page
// whenever a new trace result is published.
const reloadScript = `<script>
new EventSource("/events").addEventListener("trace", function () {
  location.reload();
});
</script>`

// Server exposes the latest trace result as HTML and JSON and
// notifies connected browsers when it changes.
type Server struct {
	addr   string
	logger *slog.Logger
	server *http.Server

	mu      sync.RWMutex
	latest  *trace.Result
	clients map[chan struct{}]struct{}
}

// NewServer creates a dashboard server. Publish must be called at
// least once before the first request renders anything useful.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		logger:  logger,
		clients: make(map[chan struct{}]struct{}),
	}
}

// Publish replaces the served result and wakes every connected
// client.
func (s *Server) Publish(result *trace.Result) {
	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.clients {
		select {
		case ch <- struct{}{}:
		default:
			// Drop if client is slow
		}
	}
}

func (s *Server) result() *trace.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Start starts the HTTP server. It blocks until Shutdown.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /api/result", s.handleAPIResult)
	mux.HandleFunc("GET /events", s.handleEvents)

	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No write timeout: /events streams for the page lifetime.
	}

	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	result := s.result()
	if result == nil {
		http.Error(w, "no trace result yet", http.StatusServiceUnavailable)
		return
	}

	page, err := report.HTML(result)
	if err != nil {
		s.logger.Error("render report", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	doc := strings.Replace(string(page), "</body>", reloadScript+"\n</body>", 1)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, doc)
}

func (s *Server) handleAPIResult(w http.ResponseWriter, r *http.Request) {
	result := s.result()
	if result == nil {
		http.Error(w, "no trace result yet", http.StatusServiceUnavailable)
		return
	}

	data, err := report.JSON(result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleEvents streams one SSE "trace" event per published result.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan struct{}, 8)

	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, ch)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			_, _ = fmt.Fprint(w, "event: trace\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
