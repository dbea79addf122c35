// Package web provides an HTTP status server for the camera node. It only
// runs while the radio is on.
package web

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sweeney/alarmguard/internal/logic"
	"github.com/sweeney/alarmguard/internal/status"
)

// PhotoReader reads a stored photo slot.
type PhotoReader interface {
	Read(k int) ([]byte, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	photos     PhotoReader
}

// New creates a Server that reads state from the given tracker. photos may be nil.
func New(addr string, tracker *status.Tracker, photos PhotoReader) *Server {
	s := &Server{tracker: tracker, photos: photos}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/index.json", s.handleJSON)
	r.Get("/photos/{slot}", func(w http.ResponseWriter, r *http.Request) {
		s.handlePhoto(w, r, chi.URLParam(r, "slot"))
	})
	return r
}

// Handler returns the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handlePhoto accepts "3" or "photo3.jpg".
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request, slot string) {
	if s.photos == nil {
		http.NotFound(w, r)
		return
	}
	k, ok := logic.ParseSlotName(slot)
	if !ok {
		n, err := strconv.Atoi(strings.TrimSuffix(slot, ".jpg"))
		if err != nil || n < 0 || n >= logic.PhotoSlotCount {
			http.Error(w, "invalid slot", http.StatusBadRequest)
			return
		}
		k = n
	}
	data, err := s.photos.Read(k)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}
