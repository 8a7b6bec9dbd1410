package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gohugoio/hashstructure"
)

const (
	// DefaultIdentityField is the row key used for identity when none is configured
	DefaultIdentityField = "name"

	// DefaultFallbackIdentityField is consulted when the identity field is missing
	DefaultFallbackIdentityField = "id"

	// SelectableKey is the row key that can opt a row out of selection
	SelectableKey = "selectable"
)

// Row is an open-ended mapping from column key to value.
//
// Keys are defined by the caller. The engine only reads keys named by column
// definitions, the identity fields and SelectableKey, and never writes to a row.
type Row map[string]any

// Get returns the value stored under key, or nil.
func (r Row) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// String returns the string form of the value stored under key.
func (r Row) String(key string) string {
	return Stringify(r.Get(key))
}

// Selectable reports whether the row may be selected.
// Only an explicit boolean false opts a row out.
func (r Row) Selectable() bool {
	if v, ok := r[SelectableKey].(bool); ok {
		return v
	}
	return true
}

// Identity returns the row identity. The primary field is tried first, then
// the fallback field, then a structural hash of the row content, so the
// result is never empty.
func Identity(r Row, field, fallback string) string {
	if field == "" {
		field = DefaultIdentityField
	}
	if id := r.String(field); id != "" {
		return id
	}
	if fallback != "" && fallback != field {
		if id := r.String(fallback); id != "" {
			return id
		}
	}
	return hashIdentity(r)
}

func hashIdentity(r Row) string {
	sum, err := hashstructure.Hash(map[string]any(r), nil)
	if err != nil {
		// unhashable values (funcs, channels): fmt prints maps with sorted keys
		sum, _ = hashstructure.Hash(fmt.Sprint(map[string]any(r)), nil)
	}
	return fmt.Sprintf("row-%016x", sum)
}

// Stringify converts a row value to the string form used for filtering,
// string comparison and grouping. Nil becomes the empty string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// numeric attempts to coerce v to a finite float64.
func numeric(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case float32:
		f = float64(t)
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
