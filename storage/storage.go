// Package storage persists assistant conversations.
//
// Information Hiding:
// - Backend schema and connection management hidden behind SessionStore
// - Serialization of tool-call metadata internalized
package storage

import (
	"context"

	"github.com/dparolin/dommyhoops/llm"
)

// SessionStore persists append-only conversations keyed by session ID.
// Messages are never mutated or removed once appended.
type SessionStore interface {
	// Append adds messages to a session, creating it if needed.
	Append(ctx context.Context, sessionID string, messages []llm.Message) error

	// Load returns a session's messages in append order.
	// A missing session yields an empty slice, not an error.
	Load(ctx context.Context, sessionID string) ([]llm.Message, error)

	// Sessions lists all known session IDs.
	Sessions(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
