package browser

import (
	"log/slog"

	"github.com/google/uuid"
)

// TabIDPrefix starts every generated tab ID.
const TabIDPrefix = "tab-"

// newTabID returns "tab-" followed by a UUIDv7: a millisecond timestamp plus
// random bits, so IDs sort by creation time and collisions are negligible.
func newTabID() string {
	id, err := uuid.NewV7()
	if err != nil {
		slog.Debug("uuid v7 generation failed, using v4", "error", err)
		id = uuid.New()
	}
	return TabIDPrefix + id.String()
}
