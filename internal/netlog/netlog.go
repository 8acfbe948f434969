// Package netlog builds the structured logger both cmd/client and
// cmd/server use, grounded on the slog.Logger construction and
// With(...)-scoped child loggers used throughout dm-vev-adamant (e.g. its
// raknet network wrapper tagging every record with "transport": "raknet").
package netlog

import (
	"log/slog"
	"os"
)

// New returns a text-handler logger writing to stderr, tagged with the
// given component name ("server" or "client").
func New(component string) *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h).With("component", component)
}
