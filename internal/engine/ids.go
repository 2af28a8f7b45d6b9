package engine

import "github.com/google/uuid"

// UUIDv7Generator generates time-sortable UUIDv7 object IDs.
//
// Sorting object IDs sorts objects by creation time, which keeps debug
// output and traces readable.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
