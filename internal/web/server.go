// Package web provides the HTTP display consumer for the gotchi daemon:
// an HTML face page, a JSON status endpoint, and a websocket stream of
// mood transitions for live UIs.
package web

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hydraesp/gotchi/internal/brain"
	"github.com/hydraesp/gotchi/internal/status"
)

// subBuffer bounds the per-client transition queue. A slow browser misses
// events rather than stalling the broadcaster.
const subBuffer = 8

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	upgrader   websocket.Upgrader

	mu   sync.Mutex
	subs map[chan brain.Transition]struct{}
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{
		tracker: tracker,
		subs:    make(map[chan brain.Transition]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
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

// Broadcast fans a committed transition out to connected websocket clients.
// Never blocks: full client queues just miss the event, and the next page
// poll catches them up.
func (s *Server) Broadcast(t brain.Transition) {
	s.mu.Lock()
	for ch := range s.subs {
		select {
		case ch <- t:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Server) subscribe() chan brain.Transition {
	ch := make(chan brain.Transition, subBuffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan brain.Transition) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// wsEvent is the JSON message sent to websocket clients per transition.
type wsEvent struct {
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Glyph     string `json:"glyph"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: ws upgrade: %v", err)
		return
	}

	ch := s.subscribe()
	defer s.unsubscribe(ch)
	defer conn.Close()

	// Reader goroutine notices client close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case t := <-ch:
			msg := wsEvent{
				Timestamp: t.At.UTC().Format(time.RFC3339),
				From:      t.From.String(),
				To:        t.To.String(),
				Glyph:     t.To.Glyph(),
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
