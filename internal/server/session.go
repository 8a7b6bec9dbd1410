package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/devgrid/internal/grid"
	"github.com/muurk/devgrid/internal/logging"
	"github.com/muurk/devgrid/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the number of outbound messages queued per session
	sendBuffer = 64
)

// errSessionClosed is returned when queueing to a closed session
var errSessionClosed = errors.New("session closed")

// Session is one connected grid client. All grid access goes through mu;
// all socket writes go through writePump.
type Session struct {
	ID         string
	remoteAddr string
	conn       *websocket.Conn

	mu       sync.Mutex
	grid     *grid.Grid
	debounce *grid.Debouncer

	// inputSeq counts filter-input messages; supersededSeq is inputSeq as
	// of the last set-filter. Both are guarded by mu.
	inputSeq      uint64
	supersededSeq uint64

	// onAction runs requested device actions after mu is released
	onAction func(*Session, grid.ActionEvent)
	actions  []grid.ActionEvent

	send      chan *protocol.ServerMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id, remoteAddr string, conn *websocket.Conn, config *Config) *Session {
	s := &Session{
		ID:         id,
		remoteAddr: remoteAddr,
		conn:       conn,
		grid:       grid.New(config.Columns, config.Options),
		send:       make(chan *protocol.ServerMessage, sendBuffer),
		done:       make(chan struct{}),
	}

	// handlers run with mu held, so they only queue
	s.grid.SetHandlers(grid.Handlers{
		OnSortChanged: func(ev grid.SortChangedEvent) {
			logging.LogGridEvent(s.ID, "sort-changed",
				zap.String("column", ev.Column),
				zap.String("direction", string(ev.Direction)),
			)
			s.queue(protocol.BuildSortChanged(ev))
		},
		OnSelectionChanged: func(ev grid.SelectionChangedEvent) {
			logging.LogGridEvent(s.ID, "selection-changed", zap.Int("selected", len(ev.Selected)))
			s.queue(protocol.BuildSelectionChanged(ev))
		},
		OnRowActivated: func(ev grid.RowActivatedEvent) {
			logging.LogGridEvent(s.ID, "row-activated", zap.String("id", ev.ID))
			s.queue(protocol.BuildRowActivated(ev))
		},
		OnAction: func(ev grid.ActionEvent) {
			logging.LogGridEvent(s.ID, "action-requested",
				zap.String("id", ev.ID),
				zap.String("action", ev.Action),
			)
			s.queue(protocol.BuildActionRequested(ev))
			s.actions = append(s.actions, ev)
		},
	})

	s.debounce = grid.NewDebouncer(config.Debounce, s.applyFilter)
	return s
}

// SetRows replaces the session's rows and pushes a new view.
func (s *Session) SetRows(rows []grid.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid.SetRows(rows)
	s.queueView()
}

// Close stops the debouncer and closes the connection. Safe to call twice.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.debounce.Stop()
		close(s.done)
		s.conn.Close()
	})
}

// queue hands a message to writePump. Drops it if the session is closed or
// the client is too slow to drain its buffer.
func (s *Session) queue(msg *protocol.ServerMessage) error {
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}
	select {
	case s.send <- msg:
		return nil
	case <-s.done:
		return errSessionClosed
	default:
		logging.Warn("Session send buffer full, dropping message",
			zap.String("session", s.ID),
			zap.String("type", msg.Type),
		)
		return nil
	}
}

// queueView must be called with mu held.
func (s *Session) queueView() {
	s.queue(protocol.BuildView(s.grid.View()))
}

// applyFilter runs when the debouncer fires. A set-filter handled after
// the last keystroke wins even if this callback was already in flight.
func (s *Session) applyFilter(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputSeq <= s.supersededSeq {
		logging.LogGridEvent(s.ID, "filter-dropped", zap.String("text", text))
		return
	}
	s.grid.SetFilter(text)
	logging.LogGridEvent(s.ID, "filter-applied", zap.String("text", text))
	s.queueView()
}

// handle applies one client message to the grid. Events the grid emits are
// queued ahead of the resulting view.
func (s *Session) handle(msg *protocol.ClientMessage) {
	if msg.Type == protocol.TypeFilterInput {
		s.mu.Lock()
		s.inputSeq++
		s.mu.Unlock()
		s.debounce.Trigger(msg.Text)
		return
	}

	s.mu.Lock()
	s.apply(msg)
	actions := s.actions
	s.actions = nil
	s.mu.Unlock()

	for _, ev := range actions {
		if s.onAction == nil {
			s.queue(protocol.BuildError(fmt.Errorf("action %q on %s: device actions are not available", ev.Action, ev.ID)))
			continue
		}
		s.onAction(s, ev)
	}
}

// apply must be called with mu held.
func (s *Session) apply(msg *protocol.ClientMessage) {
	switch msg.Type {
	case protocol.TypeSetFilter:
		s.setFilter(msg.Text)
	case protocol.TypeSort:
		s.grid.ActivateSort(msg.Column)
	case protocol.TypeSetSort:
		s.grid.SetSort(msg.SortSpec())
	case protocol.TypeToggleRow:
		s.grid.ToggleRow(msg.ID)
	case protocol.TypeToggleAll:
		s.grid.ToggleAll()
	case protocol.TypeClearSelection:
		s.grid.ClearSelection()
	case protocol.TypeToggleGroup:
		s.grid.ToggleGroup(msg.Group)
	case protocol.TypeSetGroup:
		s.grid.SetGroupBy(msg.Column)
	case protocol.TypeClick, protocol.TypeDeviceAction:
		s.grid.Click(msg.ClickEvent())
	case protocol.TypeGetView:
	}
	s.queueView()
}

// setFilter applies text directly and supersedes every earlier
// filter-input. Must be called with mu held.
func (s *Session) setFilter(text string) {
	s.debounce.Cancel()
	s.supersededSeq = s.inputSeq
	s.grid.SetFilter(text)
}

func (s *Session) readPump() {
	s.conn.SetReadLimit(protocol.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("Session read error", zap.String("session", s.ID), zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			s.queue(protocol.BuildError(errors.New("only text messages are supported")))
			continue
		}

		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			logging.Debug("Rejected client message", zap.String("session", s.ID), zap.Error(err))
			s.queue(protocol.BuildError(err))
			continue
		}
		s.handle(msg)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-s.send:
			data, err := msg.Encode()
			if err != nil {
				logging.Error("Failed to encode message", zap.String("session", s.ID), zap.Error(err))
				continue
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug("Session write failed", zap.String("session", s.ID), zap.Error(err))
				s.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
