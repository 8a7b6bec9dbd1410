package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/muurk/devgrid/internal/grid"
)

// ServerMessage is the envelope of every message sent to a session client.
// Exactly one payload field is set, matching Type.
type ServerMessage struct {
	Type      string                      `json:"type"`
	SessionID string                      `json:"session,omitempty"`
	View      *grid.View                  `json:"view,omitempty"`
	Sort      *grid.SortChangedEvent      `json:"sort,omitempty"`
	Selection *grid.SelectionChangedEvent `json:"selection,omitempty"`
	Activated *grid.RowActivatedEvent     `json:"activated,omitempty"`
	Action    *grid.ActionEvent           `json:"action,omitempty"`
	Columns   []grid.Column               `json:"columns,omitempty"`
	Error     string                      `json:"error,omitempty"`
}

// Encode marshals the message to JSON
func (m *ServerMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", m.Type, err)
	}
	return data, nil
}

// BuildHello greets a new session with its id and column definitions
func BuildHello(sessionID string, columns []grid.Column) *ServerMessage {
	return &ServerMessage{Type: TypeHello, SessionID: sessionID, Columns: columns}
}

// BuildView wraps a view snapshot
func BuildView(view grid.View) *ServerMessage {
	if view.Rows == nil {
		view.Rows = []grid.VisualRow{}
	}
	if view.Selected == nil {
		view.Selected = []string{}
	}
	return &ServerMessage{Type: TypeView, View: &view}
}

// BuildSortChanged wraps a sort-changed event
func BuildSortChanged(ev grid.SortChangedEvent) *ServerMessage {
	return &ServerMessage{Type: TypeSortChanged, Sort: &ev}
}

// BuildSelectionChanged wraps a selection-changed event
func BuildSelectionChanged(ev grid.SelectionChangedEvent) *ServerMessage {
	if ev.Selected == nil {
		ev.Selected = []string{}
	}
	return &ServerMessage{Type: TypeSelectionChanged, Selection: &ev}
}

// BuildRowActivated wraps a row-activated event
func BuildRowActivated(ev grid.RowActivatedEvent) *ServerMessage {
	return &ServerMessage{Type: TypeRowActivated, Activated: &ev}
}

// BuildActionRequested acknowledges an action click before it runs
func BuildActionRequested(ev grid.ActionEvent) *ServerMessage {
	return &ServerMessage{Type: TypeActionRequested, Action: &ev}
}

// BuildError reports a rejected client message
func BuildError(err error) *ServerMessage {
	return &ServerMessage{Type: TypeError, Error: err.Error()}
}
