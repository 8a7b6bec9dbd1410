package grid

// Align is a horizontal alignment hint for a column
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Column describes one grid column. Columns are owned by the caller and
// referenced, never copied or mutated, by the grid.
type Column struct {
	// Key is the row key this column reads; unique within a grid
	Key string `json:"key" yaml:"key"`

	// Title is the header text
	Title string `json:"title" yaml:"title"`

	Sortable bool `json:"sortable,omitempty" yaml:"sortable,omitempty"`

	// Filterable is advisory only: filtering always matches every field
	Filterable bool `json:"filterable,omitempty" yaml:"filterable,omitempty"`

	Groupable bool `json:"groupable,omitempty" yaml:"groupable,omitempty"`
	Hidden    bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`

	// Layout hints
	Width int    `json:"width,omitempty" yaml:"width,omitempty"`
	Align Align  `json:"align,omitempty" yaml:"align,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`

	// Format maps a raw value to its presentation. Nil means Stringify.
	Format func(value any, row Row) string `json:"-" yaml:"-"`
}

// Display returns the presentation string for this column in row.
func (c *Column) Display(row Row) string {
	v := row.Get(c.Key)
	if c.Format != nil {
		return c.Format(v, row)
	}
	return Stringify(v)
}

// Visible returns the columns that are not hidden, in order.
func Visible(columns []Column) []Column {
	out := make([]Column, 0, len(columns))
	for _, c := range columns {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

func findColumn(columns []Column, key string) (*Column, bool) {
	for i := range columns {
		if columns[i].Key == key {
			return &columns[i], true
		}
	}
	return nil, false
}
