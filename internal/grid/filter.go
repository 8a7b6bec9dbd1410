package grid

import "strings"

// Filter keeps the rows where at least one field value contains text,
// case-insensitively. Every field participates, including ones no column
// renders. Empty or whitespace-only text returns rows itself.
func Filter(rows []Row, text string) []Row {
	if strings.TrimSpace(text) == "" {
		return rows
	}
	needle := strings.ToLower(text)

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if rowMatches(row, needle) {
			out = append(out, row)
		}
	}
	return out
}

func rowMatches(row Row, needle string) bool {
	for _, v := range row {
		if strings.Contains(strings.ToLower(Stringify(v)), needle) {
			return true
		}
	}
	return false
}
