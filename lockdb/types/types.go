// Package types defines the row-level values exchanged with the database
// layer.
package types

// RecordRef identifies one locked related record found by a composed lookup.
type RecordRef struct {
	// Kind is the related-entity kind the record was found under
	Kind string `json:"kind"`
	// ID is the id of the row to act on (for junction-connected kinds this is
	// the junction row id)
	ID int64 `json:"id"`
}

// Record is a generic entity row fetched by id. Fields holds every column
// value keyed by column name; the database layer does not interpret them.
type Record struct {
	Kind   string         `json:"kind"`
	ID     int64          `json:"id"`
	Fields map[string]any `json:"fields"`
}
