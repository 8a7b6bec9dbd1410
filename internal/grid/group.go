package grid

// OtherBucket is the bucket key for rows whose grouping value is absent or nil
const OtherBucket = "Other"

// Origin tokens used by the device dashboard
const (
	OriginConfigured = "configured"
	OriginDiscovered = "discovered"
)

// statusLabels are the built-in labels for buckets of the status column
var statusLabels = map[string]string{
	StatusOnline:          "Online",
	StatusOffline:         "Offline",
	StatusDiscovered:      "Discovered",
	StatusUpdateAvailable: "Update Available",
	StatusUpdating:        "Updating",
}

// originLabels are the built-in labels for buckets of origin columns
var originLabels = map[string]string{
	OriginConfigured: "Your devices",
	OriginDiscovered: "Discovered",
}

// builtinLabels maps a grouping column to its built-in bucket labels
var builtinLabels = map[string]map[string]string{
	StatusColumn: statusLabels,
	"deviceType": originLabels,
	"origin":     originLabels,
}

// GroupSpec describes how rows are partitioned into buckets.
type GroupSpec struct {
	// Column is the grouping column key; empty disables grouping
	Column string `json:"column" yaml:"column"`

	// Order lists bucket keys that appear first, in this order
	Order []string `json:"order,omitempty" yaml:"order,omitempty"`

	// Labels overrides the display label of matching bucket keys
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Label returns the display label for a bucket key.
// Caller labels win over built-in ones; unknown keys are shown verbatim.
func (g GroupSpec) Label(key string) string {
	if l, ok := g.Labels[key]; ok {
		return l
	}
	if l, ok := builtinLabels[g.Column][key]; ok {
		return l
	}
	return key
}

// Bucket is a named partition of rows produced by Group
type Bucket struct {
	Key   string
	Label string
	Rows  []Row
}

// BucketKey returns the bucket key of row under the grouping column.
func BucketKey(row Row, column string) string {
	v, ok := row[column]
	if !ok || v == nil {
		return OtherBucket
	}
	return Stringify(v)
}

// Group partitions rows into buckets. Buckets named in spec.Order come
// first in that order; the rest follow in first-seen order. Rows keep their
// incoming order inside each bucket.
func Group(rows []Row, spec GroupSpec) []Bucket {
	if spec.Column == "" {
		return nil
	}

	index := make(map[string]int)
	var seen []Bucket
	for _, row := range rows {
		key := BucketKey(row, spec.Column)
		i, ok := index[key]
		if !ok {
			i = len(seen)
			index[key] = i
			seen = append(seen, Bucket{Key: key, Label: spec.Label(key)})
		}
		seen[i].Rows = append(seen[i].Rows, row)
	}

	if len(spec.Order) == 0 {
		return seen
	}

	out := make([]Bucket, 0, len(seen))
	placed := make(map[string]bool, len(seen))
	for _, key := range spec.Order {
		i, ok := index[key]
		if !ok || placed[key] {
			continue
		}
		placed[key] = true
		out = append(out, seen[i])
	}
	for _, b := range seen {
		if !placed[b.Key] {
			out = append(out, b)
		}
	}
	return out
}

// StatusLabel returns the display label of a status token.
// Unknown tokens are returned verbatim.
func StatusLabel(token string) string {
	if l, ok := statusLabels[token]; ok {
		return l
	}
	return token
}
