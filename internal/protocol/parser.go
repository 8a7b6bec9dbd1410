package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/muurk/devgrid/internal/grid"
)

// MaxMessageSize caps a single client message
const MaxMessageSize = 8192

// Client message types
const (
	TypeFilterInput    = "filter-input"    // keystroke-level filter text, debounced
	TypeSetFilter      = "set-filter"      // filter text applied immediately
	TypeSort           = "sort"            // header activation on a column
	TypeSetSort        = "set-sort"        // external sort state
	TypeToggleRow      = "toggle-row"      // checkbox on one row
	TypeToggleAll      = "toggle-all"      // select-all checkbox
	TypeClearSelection = "clear-selection" // empty the selection
	TypeToggleGroup    = "toggle-group"    // collapse or expand a bucket
	TypeSetGroup       = "set-group"       // change the grouping column
	TypeClick          = "click"           // click on a data row
	TypeGetView        = "get-view"        // request a fresh view snapshot
	TypeDeviceAction   = "device-action"   // run a named action on one row
)

// Server message types
const (
	TypeHello            = "hello"
	TypeView             = "view"
	TypeSortChanged      = "sort-changed"
	TypeSelectionChanged = "selection-changed"
	TypeRowActivated     = "row-activated"
	TypeActionRequested  = "action-requested"
	TypeError            = "error"
)

// ClientMessage is a decoded message from a grid session client
type ClientMessage struct {
	Type      string        `json:"type"`
	Text      string        `json:"text,omitempty"`
	Column    string        `json:"column,omitempty"`
	Direction string        `json:"direction,omitempty"`
	ID        string        `json:"id,omitempty"`
	Group     string        `json:"group,omitempty"`
	Path      []grid.Target `json:"path,omitempty"`
	Action    string        `json:"action,omitempty"`
}

// ParseError describes a message that could not be decoded or is missing
// a required field
type ParseError struct {
	Type   string // message type, empty when the JSON itself is bad
	Reason string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	msg := "invalid message"
	if e.Type != "" {
		msg = fmt.Sprintf("invalid %q message", e.Type)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseClientMessage decodes and validates a client message
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	if len(data) > MaxMessageSize {
		return nil, &ParseError{Reason: fmt.Sprintf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)}
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &ParseError{Reason: "malformed JSON", Err: err}
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks that the fields required by the message type are present
func (m *ClientMessage) Validate() error {
	missing := func(field string) error {
		return &ParseError{Type: m.Type, Reason: "missing " + field}
	}

	switch m.Type {
	case "":
		return &ParseError{Reason: "missing type"}

	case TypeFilterInput, TypeSetFilter, TypeToggleAll, TypeClearSelection, TypeGetView, TypeSetGroup:
		// text and column may legitimately be empty

	case TypeSort:
		if m.Column == "" {
			return missing("column")
		}

	case TypeSetSort:
		if _, err := grid.ParseDirection(m.Direction); err != nil {
			return &ParseError{Type: m.Type, Reason: "bad direction", Err: err}
		}

	case TypeToggleRow, TypeClick:
		if m.ID == "" {
			return missing("id")
		}

	case TypeToggleGroup:
		if m.Group == "" {
			return missing("group")
		}

	case TypeDeviceAction:
		if m.ID == "" {
			return missing("id")
		}
		if m.Action == "" {
			return missing("action")
		}

	default:
		return &ParseError{Type: m.Type, Reason: "unknown type"}
	}
	return nil
}

// SortSpec returns the sort carried by a set-sort message
func (m *ClientMessage) SortSpec() grid.SortSpec {
	dir, err := grid.ParseDirection(m.Direction)
	if err != nil || m.Column == "" || dir == grid.DirectionNone {
		return grid.SortSpec{Direction: grid.DirectionNone}
	}
	return grid.SortSpec{Column: m.Column, Direction: dir}
}

// ClickEvent returns the click carried by a click message.
// A click with no path is a plain row click; a device-action message is a
// click on the named action control.
func (m *ClientMessage) ClickEvent() grid.ClickEvent {
	path := m.Path
	if m.Type == TypeDeviceAction {
		path = []grid.Target{grid.TargetAction, grid.TargetRow}
	}
	if len(path) == 0 {
		path = []grid.Target{grid.TargetRow}
	}
	return grid.ClickEvent{RowID: m.ID, Path: path, Action: m.Action}
}
