package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "yes\n", true},
		{"short yes", "y\n", true},
		{"upper case", "YES\n", true},
		{"no answer", "\n", false},
		{"no", "n\n", false},
		{"other", "sure\n", false},
		{"eof", "", false},
		{"yes without newline", "y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := Confirm(strings.NewReader(tt.input), &out, "TEST", []string{"first warning"}, 80)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "first warning")
			if !tt.want {
				assert.Contains(t, out.String(), "Operation cancelled.")
			}
		})
	}
}
