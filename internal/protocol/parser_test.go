package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/muurk/devgrid/internal/grid"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
		verify  func(t *testing.T, m *ClientMessage)
	}{
		{
			name: "filter input",
			data: `{"type":"filter-input","text":"kit"}`,
			verify: func(t *testing.T, m *ClientMessage) {
				if m.Type != TypeFilterInput || m.Text != "kit" {
					t.Errorf("got %+v", m)
				}
			},
		},
		{
			name: "empty filter is allowed",
			data: `{"type":"set-filter"}`,
		},
		{
			name: "sort",
			data: `{"type":"sort","column":"status"}`,
			verify: func(t *testing.T, m *ClientMessage) {
				if m.Column != "status" {
					t.Errorf("column = %q, want status", m.Column)
				}
			},
		},
		{
			name:    "sort without column",
			data:    `{"type":"sort"}`,
			wantErr: "missing column",
		},
		{
			name: "set sort",
			data: `{"type":"set-sort","column":"name","direction":"desc"}`,
			verify: func(t *testing.T, m *ClientMessage) {
				want := grid.SortSpec{Column: "name", Direction: grid.DirectionDesc}
				if m.SortSpec() != want {
					t.Errorf("SortSpec() = %+v, want %+v", m.SortSpec(), want)
				}
			},
		},
		{
			name:    "set sort with bad direction",
			data:    `{"type":"set-sort","column":"name","direction":"up"}`,
			wantErr: "bad direction",
		},
		{
			name:    "toggle row without id",
			data:    `{"type":"toggle-row"}`,
			wantErr: "missing id",
		},
		{
			name:    "toggle group without group",
			data:    `{"type":"toggle-group"}`,
			wantErr: "missing group",
		},
		{
			name: "click with checkbox in path",
			data: `{"type":"click","id":"porch","path":["checkbox","cell","row"]}`,
			verify: func(t *testing.T, m *ClientMessage) {
				ev := m.ClickEvent()
				if ev.RowID != "porch" || len(ev.Path) != 3 || ev.Path[0] != grid.TargetCheckbox {
					t.Errorf("ClickEvent() = %+v", ev)
				}
			},
		},
		{
			name: "click without path is a row click",
			data: `{"type":"click","id":"porch"}`,
			verify: func(t *testing.T, m *ClientMessage) {
				ev := m.ClickEvent()
				if len(ev.Path) != 1 || ev.Path[0] != grid.TargetRow {
					t.Errorf("ClickEvent().Path = %v, want [row]", ev.Path)
				}
			},
		},
		{
			name: "device action",
			data: `{"type":"device-action","id":"bridge","action":"adopt"}`,
			verify: func(t *testing.T, m *ClientMessage) {
				ev := m.ClickEvent()
				if ev.RowID != "bridge" || ev.Action != "adopt" || ev.Path[0] != grid.TargetAction {
					t.Errorf("ClickEvent() = %+v", ev)
				}
			},
		},
		{
			name:    "device action without action",
			data:    `{"type":"device-action","id":"bridge"}`,
			wantErr: "missing action",
		},
		{
			name:    "device action without id",
			data:    `{"type":"device-action","action":"adopt"}`,
			wantErr: "missing id",
		},
		{
			name: "click on action control keeps the action name",
			data: `{"type":"click","id":"porch","path":["action","row"],"action":"remove"}`,
			verify: func(t *testing.T, m *ClientMessage) {
				ev := m.ClickEvent()
				if ev.Action != "remove" || len(ev.Path) != 2 {
					t.Errorf("ClickEvent() = %+v", ev)
				}
			},
		},
		{
			name:    "missing type",
			data:    `{"text":"x"}`,
			wantErr: "missing type",
		},
		{
			name:    "unknown type",
			data:    `{"type":"explode"}`,
			wantErr: "unknown type",
		},
		{
			name:    "malformed JSON",
			data:    `{"type":`,
			wantErr: "malformed JSON",
		},
		{
			name:    "too large",
			data:    `{"type":"set-filter","text":"` + strings.Repeat("x", MaxMessageSize) + `"}`,
			wantErr: "too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseClientMessage([]byte(tt.data))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseClientMessage() error = nil, want %q", tt.wantErr)
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("error %v is not a *ParseError", err)
				}
				if !contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClientMessage() error = %v", err)
			}
			if tt.verify != nil {
				tt.verify(t, m)
			}
		})
	}
}

func TestClientMessage_SortSpecNone(t *testing.T) {
	tests := []ClientMessage{
		{Type: TypeSetSort, Column: "name", Direction: "none"},
		{Type: TypeSetSort, Direction: "asc"},
		{Type: TypeSetSort},
	}
	for _, m := range tests {
		if got := m.SortSpec(); got.Active() || got.Direction != grid.DirectionNone {
			t.Errorf("SortSpec() for %+v = %+v, want inactive", m, got)
		}
	}
}

func BenchmarkParseClientMessage(b *testing.B) {
	data := []byte(`{"type":"click","id":"porch","path":["checkbox","cell","row"]}`)
	for i := 0; i < b.N; i++ {
		_, _ = ParseClientMessage(data)
	}
}
