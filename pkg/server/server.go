package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ethlookup/pkg/lookup"
	"ethlookup/pkg/snapshot"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	dataSource  lookup.DataSource
	explorerURL string
	logger      *log.Logger

	clients    map[*websocket.Conn]bool
	generation uint64
	mu         sync.Mutex
	mux        *http.ServeMux
}

func NewServer(ds lookup.DataSource, explorerURL string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		dataSource:  ds,
		explorerURL: explorerURL,
		logger:      logger,
		clients:     make(map[*websocket.Conn]bool),
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/lookup", s.handleLookup)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(port int) error {
	s.logger.Info("API server listening", "port", port)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	address, err := lookup.Validate(r.URL.Query().Get("address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "The provided hash is not a valid address."})
		return
	}

	in := lookup.Fetch(r.Context(), s.dataSource, address, 1, s.logger, nil)
	writeJSON(w, http.StatusOK, snapshot.Build(in, s.explorerURL))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	streams := len(s.clients)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "streams": streams})
}

// handleWS streams one message per settled fetch, then the final snapshot,
// then closes the connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	address, err := lookup.Validate(r.URL.Query().Get("address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "The provided hash is not a valid address."})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A client hanging up cancels the lookup.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	var writeMu sync.Mutex
	send := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(v); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			s.logger.Debug("websocket write failed", "err", err)
			cancel()
		}
	}

	gen := s.nextGeneration()
	in := lookup.Fetch(ctx, s.dataSource, address, gen, s.logger, func(ev lookup.Event) {
		if ev.Type != lookup.EventLookupSettled {
			send(ev)
		}
	})
	if ctx.Err() != nil {
		return
	}
	send(map[string]interface{}{
		"type":       "snapshot",
		"generation": gen,
		"data":       snapshot.Build(in, s.explorerURL),
	})

	writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	writeMu.Unlock()
}
