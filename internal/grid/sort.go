package grid

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is the sort direction of the active column
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// ParseDirection parses "asc", "ascending", "desc", "descending" or "none".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DirectionNone, nil
	case "asc", "ascending":
		return DirectionAsc, nil
	case "desc", "descending":
		return DirectionDesc, nil
	default:
		return DirectionNone, fmt.Errorf("invalid sort direction %q (expected asc, desc or none)", s)
	}
}

// StatusColumn is the column key whose values sort by status priority
const StatusColumn = "status"

// Known status tokens
const (
	StatusOnline          = "online"
	StatusOffline         = "offline"
	StatusDiscovered      = "discovered"
	StatusUpdateAvailable = "update-available"
	StatusUpdating        = "updating"
)

var statusPriority = map[string]int{
	StatusOnline:          0,
	StatusOffline:         1,
	StatusDiscovered:      2,
	StatusUpdateAvailable: 3,
	StatusUpdating:        4,
}

// SortSpec is the active sort column and direction.
// The zero value means "no sort".
type SortSpec struct {
	Column    string    `json:"column" yaml:"column"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Active reports whether the spec orders anything.
func (s SortSpec) Active() bool {
	return s.Column != "" && (s.Direction == DirectionAsc || s.Direction == DirectionDesc)
}

// Activate applies one header activation on column and returns the new spec.
//
// Repeated activation on the same column cycles asc -> desc -> none, where
// none clears the column. A different column always starts at asc.
func (s SortSpec) Activate(column string) SortSpec {
	if column == "" {
		return SortSpec{Direction: DirectionNone}
	}
	if s.Column != column || !s.Active() {
		return SortSpec{Column: column, Direction: DirectionAsc}
	}
	if s.Direction == DirectionAsc {
		return SortSpec{Column: column, Direction: DirectionDesc}
	}
	return SortSpec{Direction: DirectionNone}
}

// Sort returns the rows ordered by spec. The sort is stable in both
// directions, and an inactive spec returns the input order unchanged.
func Sort(rows []Row, spec SortSpec) []Row {
	if !spec.Active() {
		return rows
	}

	out := slices.Clone(rows)
	cmp := newComparator(spec.Column)
	slices.SortStableFunc(out, func(a, b Row) int {
		c := cmp.compare(a.Get(spec.Column), b.Get(spec.Column))
		if spec.Direction == DirectionDesc {
			return -c
		}
		return c
	})
	return out
}

// comparator compares values of a single column.
// It holds a collator, which is not safe for concurrent use.
type comparator struct {
	column   string
	collator *collate.Collator
}

func newComparator(column string) *comparator {
	return &comparator{
		column:   column,
		collator: collate.New(language.Und),
	}
}

func (c *comparator) compare(a, b any) int {
	if c.column == StatusColumn {
		pa, okA := statusPriority[Stringify(a)]
		pb, okB := statusPriority[Stringify(b)]
		switch {
		case okA && okB:
			return pa - pb
		case okA:
			return -1
		case okB:
			return 1
		}
		// unknown tokens fall through to the generic comparison
	}

	if fa, ok := numeric(a); ok {
		if fb, ok := numeric(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	return c.collator.CompareString(Stringify(a), Stringify(b))
}
