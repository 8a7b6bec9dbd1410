package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/devgrid/internal/grid"
	"github.com/muurk/devgrid/internal/logging"
	"github.com/muurk/devgrid/internal/protocol"
)

// RowSource supplies the rows every session grid is built from
type RowSource interface {
	Rows() []grid.Row
}

// ActionRunner performs device actions requested by sessions. A RowSource
// that also implements it enables device-action messages.
type ActionRunner interface {
	Do(action, id string) error
}

// Config holds the server configuration
type Config struct {
	Host string
	Port int

	// Columns and Options configure each session's grid
	Columns []grid.Column
	Options grid.Options

	// Debounce is the quiet period for filter-input messages
	Debounce time.Duration

	// AllowedOrigins restricts WebSocket upgrades; empty allows any origin
	AllowedOrigins []string
}

// Server serves grid sessions over WebSocket.
// Each connection owns an independent grid built from the shared source.
type Server struct {
	config   *Config
	source   RowSource
	actions  ActionRunner
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener

	wg       sync.WaitGroup
	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a new Server instance
func New(config *Config, source RowSource) *Server {
	if config.Debounce <= 0 {
		config.Debounce = grid.DefaultDebounce
	}
	s := &Server{
		config:   config,
		source:   source,
		sessions: make(map[string]*Session),
	}
	s.actions, _ = source.(ActionRunner)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the HTTP handler with all routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/rows", s.handleRows)
	mux.HandleFunc("/api/view", s.handleView)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	logging.Info("Grid session server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("debounce", s.config.Debounce),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr returns the listening address once Start has bound it
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections, closes every session and waits
// for their goroutines to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	var shutdownErr error
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http shutdown: %w", err)
		}
	}

	// hijacked WebSocket connections are not tracked by http.Server
	for _, sess := range sessions {
		logging.LogSession(sess.ID, sess.remoteAddr, "closing")
		sess.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All sessions closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return shutdownErr
}

// ActiveSessions returns the number of connected sessions
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Refresh reloads rows into every session and pushes new views.
// Call it after a rescan or config reload.
func (s *Server) Refresh() {
	rows := s.source.Rows()

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.SetRows(rows)
	}
	logging.Debug("Sessions refreshed", zap.Int("sessions", len(sessions)), zap.Int("rows", len(rows)))
}

// runAction performs a device action for sess. Success refreshes every
// session; failure is reported to sess only.
func (s *Server) runAction(sess *Session, ev grid.ActionEvent) {
	if s.actions == nil {
		sess.queue(protocol.BuildError(fmt.Errorf("action %q on %s: device actions are not available", ev.Action, ev.ID)))
		return
	}
	if err := s.actions.Do(ev.Action, ev.ID); err != nil {
		logging.Warn("Device action failed",
			zap.String("session", sess.ID),
			zap.String("id", ev.ID),
			zap.String("action", ev.Action),
			zap.Error(err),
		)
		sess.queue(protocol.BuildError(err))
		return
	}
	logging.Info("Device action applied", zap.String("id", ev.ID), zap.String("action", ev.Action))
	s.Refresh()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	logging.Warn("Rejected WebSocket origin", zap.String("origin", origin))
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sess := newSession(uuid.NewString(), r.RemoteAddr, conn, s.config)
	sess.onAction = s.runAction
	sess.queue(protocol.BuildHello(sess.ID, s.config.Columns))
	sess.SetRows(s.source.Rows())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	logging.LogSession(sess.ID, sess.remoteAddr, "opened")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		sess.writePump()
	}()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		sess.Close()
		logging.LogSession(sess.ID, sess.remoteAddr, "closed")
		s.wg.Done()
	}()

	sess.readPump()
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows := s.source.Rows()
	if rows == nil {
		rows = []grid.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleView derives a one-shot view from query parameters:
// filter, sort=column[:asc|desc] and group=column.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()

	g := grid.New(s.config.Columns, s.config.Options)
	g.SetRows(s.source.Rows())
	g.SetFilter(q.Get("filter"))

	if raw := q.Get("sort"); raw != "" {
		spec, err := ParseSortFlag(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.SetSort(spec)
	}
	if q.Has("group") {
		g.SetGroupBy(q.Get("group"))
	}

	writeJSON(w, http.StatusOK, g.View())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.ActiveSessions(),
	})
}

// ParseSortFlag parses "column" or "column:direction" into a sort spec
func ParseSortFlag(raw string) (grid.SortSpec, error) {
	column, dir, found := strings.Cut(raw, ":")
	if column == "" {
		return grid.SortSpec{}, fmt.Errorf("invalid sort %q: missing column", raw)
	}
	direction := grid.DirectionAsc
	if found {
		d, err := grid.ParseDirection(dir)
		if err != nil {
			return grid.SortSpec{}, err
		}
		direction = d
	}
	if direction == grid.DirectionNone {
		return grid.SortSpec{Direction: grid.DirectionNone}, nil
	}
	return grid.SortSpec{Column: column, Direction: direction}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write JSON response", zap.Error(err))
	}
}
