package grid

import "slices"

// HeaderState is the aggregate state of the select-all checkbox
type HeaderState string

const (
	HeaderNone HeaderState = "none"
	HeaderSome HeaderState = "some"
	HeaderAll  HeaderState = "all"
)

// Selection is a set of row identities that remembers insertion order.
// The zero value is an empty selection ready to use.
type Selection struct {
	order []string
	index map[string]struct{}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add selects id. Returns false if it was already selected.
func (s *Selection) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Remove deselects id. Returns false if it was not selected.
func (s *Selection) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.index, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}

// Toggle flips the membership of id and returns the new membership.
func (s *Selection) Toggle(id string) bool {
	if s.Remove(id) {
		return false
	}
	s.Add(id)
	return true
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.order = nil
	s.index = nil
}

// Len returns the number of selected identities.
func (s *Selection) Len() int {
	return len(s.order)
}

// IDs returns the selected identities in insertion order.
// The returned slice is a copy.
func (s *Selection) IDs() []string {
	return slices.Clone(s.order)
}

// Header derives the select-all state against the given candidate ids,
// which are the identities of the filtered, selectable rows.
func (s *Selection) Header(candidates []string) HeaderState {
	if len(candidates) == 0 {
		return HeaderNone
	}
	selected := 0
	for _, id := range candidates {
		if s.Has(id) {
			selected++
		}
	}
	switch selected {
	case 0:
		return HeaderNone
	case len(candidates):
		return HeaderAll
	default:
		return HeaderSome
	}
}
